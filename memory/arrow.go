package memory

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	arrowmem "github.com/apache/arrow/go/v18/arrow/memory"
)

// ArrowSchema maps the batch's schema into an arrow schema.
func (b *Batch) ArrowSchema() (*arrow.Schema, error) {
	schema := b.table.Schema
	fields := make([]arrow.Field, schema.Size())
	for i := 0; i < schema.Size(); i++ {
		node := schema.ChildAt(i)
		dt, err := node.ArrowType()
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: node.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// ToRecord exports the batch as one arrow record for the query layer.
func (b *Batch) ToRecord(pool arrowmem.Allocator) (arrow.Record, error) {
	schema, err := b.ArrowSchema()
	if err != nil {
		return nil, err
	}
	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	for i, c := range b.cols {
		if err := writeColumn(builder.Field(i), c); err != nil {
			return nil, err
		}
	}
	return builder.NewRecord(), nil
}

func writeColumn(fb array.Builder, c *column) error {
	for i := 0; i < len(c.valids); i++ {
		if !c.valids[i] {
			fb.AppendNull()
			continue
		}
		switch b := fb.(type) {
		case *array.BooleanBuilder:
			b.Append(c.bools[i])
		case *array.Int8Builder:
			b.Append(c.i8s[i])
		case *array.Int16Builder:
			b.Append(c.i16s[i])
		case *array.Int32Builder:
			b.Append(c.i32s[i])
		case *array.Int64Builder:
			b.Append(c.i64s[i])
		case *array.Float32Builder:
			b.Append(c.f32s[i])
		case *array.Float64Builder:
			b.Append(c.f64s[i])
		case *array.StringBuilder:
			b.Append(c.strs[i])
		case *array.ListBuilder:
			b.Append(true)
			from, to := c.offsets[i], c.offsets[i+1]
			if err := writeListItems(b.ValueBuilder(), c.elems, int(from), int(to)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("no arrow export for column %q kind %s", c.node.Name, c.node.Kind)
		}
	}
	return nil
}

func writeListItems(fb array.Builder, c *column, from, to int) error {
	for i := from; i < to; i++ {
		if !c.valids[i] {
			fb.AppendNull()
			continue
		}
		switch b := fb.(type) {
		case *array.BooleanBuilder:
			b.Append(c.bools[i])
		case *array.Int32Builder:
			b.Append(c.i32s[i])
		case *array.Int64Builder:
			b.Append(c.i64s[i])
		case *array.Float32Builder:
			b.Append(c.f32s[i])
		case *array.Float64Builder:
			b.Append(c.f64s[i])
		case *array.StringBuilder:
			b.Append(c.strs[i])
		default:
			return fmt.Errorf("no arrow export for list elements of %q", c.node.Name)
		}
	}
	return nil
}
