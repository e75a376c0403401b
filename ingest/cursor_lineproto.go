package ingest

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/influxdata/influxdb/models"
	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/surface"
	"github.com/metrico/nebula/types"
	"go.uber.org/zap"
)

// lineProtoCursor iterates influx line-protocol points. Tags surface as
// string columns, fields keep their wire type, and the point timestamp
// is provided under the reserved time column, which is what tables with
// a provided time spec consume.
type lineProtoCursor struct {
	file    *os.File
	scanner *bufio.Scanner
	pending []models.Point
	next    map[string]any
}

func newLineProtoCursor(t *meta.TableSpec, schema *types.Node, file string) (surface.Cursor, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	c := &lineProtoCursor{file: f, scanner: bufio.NewScanner(f)}
	c.advance()
	return c, nil
}

func (c *lineProtoCursor) advance() {
	for {
		if len(c.pending) > 0 {
			p := c.pending[0]
			c.pending = c.pending[1:]
			values, err := pointValues(p)
			if err != nil {
				zap.L().Warn("bad line-protocol point dropped", zap.Error(err))
				continue
			}
			c.next = values
			return
		}
		if !c.scanner.Scan() {
			c.next = nil
			c.file.Close()
			return
		}
		line := c.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		points, err := models.ParsePointsWithPrecision(line, time.Now().UTC(), "ns")
		if err != nil {
			zap.L().Warn("bad line-protocol line dropped", zap.Error(err))
			continue
		}
		c.pending = points
	}
}

func pointValues(p models.Point) (map[string]any, error) {
	fields, err := p.Fields()
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		values[k] = v
	}
	for _, tag := range p.Tags() {
		values[string(tag.Key)] = string(tag.Value)
	}
	values[meta.TimeColumnName] = p.Time().Unix()
	return values, nil
}

func (c *lineProtoCursor) HasNext() bool {
	return c.next != nil
}

func (c *lineProtoCursor) Next() surface.Row {
	row := surface.NewValueRow(c.next)
	c.advance()
	return row
}
