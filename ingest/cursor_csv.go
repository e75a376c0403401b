package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/surface"
	"github.com/metrico/nebula/types"
	"go.uber.org/zap"
)

// csvCursor iterates a delimited file. The first record is consumed as
// a header when it names the declared columns; otherwise records map to
// columns in schema order. Values stay strings and coerce on read.
type csvCursor struct {
	file    *os.File
	reader  *csv.Reader
	columns []string
	order   []int
	next    map[string]any
	err     error
}

func newCSVCursor(t *meta.TableSpec, schema *types.Node, file string) (surface.Cursor, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if d := t.Settings["csv.delimiter"]; d != "" {
		r.Comma = rune(d[0])
	}

	c := &csvCursor{
		file:    f,
		reader:  r,
		columns: schema.ColumnNames(),
	}

	first, err := r.Read()
	if err == io.EOF {
		return c, nil
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if c.bindHeader(first) {
		c.advance()
	} else {
		c.next = c.record(first)
	}
	return c, nil
}

// bindHeader matches the first record against the declared columns and
// remembers the field order when every column is present.
func (c *csvCursor) bindHeader(record []string) bool {
	pos := make(map[string]int, len(record))
	for i, name := range record {
		pos[name] = i
	}
	order := make([]int, len(c.columns))
	for i, name := range c.columns {
		p, ok := pos[name]
		if !ok {
			return false
		}
		order[i] = p
	}
	c.order = order
	return true
}

func (c *csvCursor) record(fields []string) map[string]any {
	values := make(map[string]any, len(c.columns))
	for i, name := range c.columns {
		idx := i
		if c.order != nil {
			idx = c.order[i]
		}
		if idx < len(fields) {
			values[name] = fields[idx]
		}
	}
	return values
}

func (c *csvCursor) advance() {
	fields, err := c.reader.Read()
	if err == io.EOF {
		c.next = nil
		c.file.Close()
		return
	}
	if err != nil {
		c.err = err
		c.next = nil
		c.file.Close()
		zap.L().Warn("csv read stopped", zap.Error(err))
		return
	}
	c.next = c.record(fields)
}

func (c *csvCursor) HasNext() bool {
	return c.next != nil
}

func (c *csvCursor) Next() surface.Row {
	row := surface.NewValueRow(c.next)
	c.advance()
	return row
}
