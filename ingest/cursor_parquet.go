package ingest

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	arrowmem "github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/surface"
	"github.com/metrico/nebula/types"
)

// parquetCursor iterates a parquet file through the arrow bridge,
// record batch by record batch.
type parquetCursor struct {
	pf     *file.Reader
	reader pqarrow.RecordReader
	rec    arrow.Record
	row    int
	done   bool
}

func newParquetCursor(t *meta.TableSpec, schema *types.Node, path string) (surface.Cursor, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: 4096}, arrowmem.DefaultAllocator)
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	rr, err := fr.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	c := &parquetCursor{pf: pf, reader: rr}
	c.advance()
	return c, nil
}

func (c *parquetCursor) advance() {
	if c.rec != nil && c.row < int(c.rec.NumRows()) {
		return
	}
	for c.reader.Next() {
		rec := c.reader.Record()
		if rec.NumRows() == 0 {
			continue
		}
		c.rec = rec
		c.row = 0
		return
	}
	c.rec = nil
	c.done = true
	c.reader.Release()
	c.pf.Close()
}

func (c *parquetCursor) HasNext() bool {
	return !c.done
}

func (c *parquetCursor) Next() surface.Row {
	rec := c.rec
	values := make(map[string]any, int(rec.NumCols()))
	for j := 0; j < int(rec.NumCols()); j++ {
		values[rec.ColumnName(j)] = arrowValue(rec.Column(j), c.row)
	}
	c.row++
	c.advance()
	return surface.NewValueRow(values)
}

func arrowValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch a := col.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return a.Value(i)
	case *array.Int16:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		return int64(a.Value(i))
	case *array.Float32:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).Unix()
	case *array.List:
		from, to := a.ValueOffsets(i)
		items := make([]any, 0, to-from)
		for k := from; k < to; k++ {
			items = append(items, arrowValue(a.ListValues(), int(k)))
		}
		return items
	}
	return nil
}
