package ingest

import (
	"bufio"
	"fmt"
	"os"

	"github.com/go-faster/jx"
	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/surface"
	"github.com/metrico/nebula/types"
	"go.uber.org/zap"
)

// jsonCursor iterates newline-delimited JSON objects. Scalars and
// arrays of scalars are supported; nested objects become map views.
type jsonCursor struct {
	file    *os.File
	scanner *bufio.Scanner
	next    map[string]any
}

func newJSONCursor(t *meta.TableSpec, schema *types.Node, file string) (surface.Cursor, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	c := &jsonCursor{file: f, scanner: bufio.NewScanner(f)}
	c.scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	c.advance()
	return c, nil
}

func (c *jsonCursor) advance() {
	for c.scanner.Scan() {
		line := c.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		values, err := decodeObject(jx.DecodeBytes(line))
		if err != nil {
			zap.L().Warn("bad json row dropped", zap.Error(err))
			continue
		}
		c.next = values
		return
	}
	c.next = nil
	c.file.Close()
}

func (c *jsonCursor) HasNext() bool {
	return c.next != nil
}

func (c *jsonCursor) Next() surface.Row {
	row := surface.NewValueRow(c.next)
	c.advance()
	return row
}

func decodeObject(d *jx.Decoder) (map[string]any, error) {
	values := make(map[string]any)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := decodeValue(d)
		if err != nil {
			return err
		}
		values[key] = v
		return nil
	})
	return values, err
}

func decodeValue(d *jx.Decoder) (any, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return nil, err
		}
		if n.IsInt() {
			return n.Int64()
		}
		return n.Float64()
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return nil, d.Null()
	case jx.Array:
		var items []any
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := decodeValue(d)
			if err != nil {
				return err
			}
			items = append(items, v)
			return nil
		})
		return items, err
	case jx.Object:
		return decodeObject(d)
	}
	return nil, d.Skip()
}
