// Package memory holds the in-memory columnar batch the ingestion
// pipeline accumulates rows into. A batch is append-only with a
// one-step rollback; reads of sealed rows are stable across later
// appends.
package memory

import (
	"fmt"

	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/surface"
)

// Batch buffers typed rows column by column, keyed by the effective
// schema of its table.
type Batch struct {
	table  *meta.Table
	cols   []*column
	fields map[string]int
	rows   int
}

func NewBatch(table *meta.Table) (*Batch, error) {
	schema := table.Schema
	cols := make([]*column, schema.Size())
	fields := make(map[string]int, schema.Size())
	for i := 0; i < schema.Size(); i++ {
		node := schema.ChildAt(i)
		col, err := newColumn(node)
		if err != nil {
			return nil, err
		}
		cols[i] = col
		fields[node.Name] = i
	}
	return &Batch{table: table, cols: cols, fields: fields}, nil
}

func (b *Batch) Table() *meta.Table {
	return b.table
}

// Add appends one row, reading every schema column from the view.
func (b *Batch) Add(row surface.Row) error {
	for _, c := range b.cols {
		c.append(row)
	}
	b.rows++
	return nil
}

// Rollback undoes the last Add. It is valid immediately after any
// successful Add; calling it on an empty batch is a no-op.
func (b *Batch) Rollback() {
	if b.rows == 0 {
		return
	}
	for _, c := range b.cols {
		c.rollback()
	}
	b.rows--
}

func (b *Batch) Rows() int {
	return b.rows
}

// Bytes approximates the resident size of the batch.
func (b *Batch) Bytes() int64 {
	var size int64
	for _, c := range b.cols {
		size += c.bytes()
	}
	return size
}

// Row returns a stable read view of row i, i < Rows().
func (b *Batch) Row(i int) surface.Row {
	return &batchRow{batch: b, index: i}
}

func (b *Batch) columnOf(field string) (*column, error) {
	idx, ok := b.fields[field]
	if !ok {
		return nil, fmt.Errorf("no column %q in table %s", field, b.table.Name)
	}
	return b.cols[idx], nil
}

// batchRow forwards name-based reads into the owning batch's columns.
type batchRow struct {
	batch *Batch
	index int
}

func (r *batchRow) col(field string) *column {
	c, err := r.batch.columnOf(field)
	if err != nil {
		return nil
	}
	return c
}

func (r *batchRow) IsNull(field string) bool {
	c := r.col(field)
	return c == nil || !c.valids[r.index]
}

func (r *batchRow) ReadBool(field string) bool {
	return r.col(field).bools[r.index]
}

func (r *batchRow) ReadByte(field string) int8 {
	return r.col(field).i8s[r.index]
}

func (r *batchRow) ReadShort(field string) int16 {
	return r.col(field).i16s[r.index]
}

func (r *batchRow) ReadInt(field string) int32 {
	return r.col(field).i32s[r.index]
}

func (r *batchRow) ReadLong(field string) int64 {
	return r.col(field).i64s[r.index]
}

func (r *batchRow) ReadFloat(field string) float32 {
	return r.col(field).f32s[r.index]
}

func (r *batchRow) ReadDouble(field string) float64 {
	return r.col(field).f64s[r.index]
}

func (r *batchRow) ReadString(field string) string {
	return r.col(field).strs[r.index]
}

func (r *batchRow) ReadList(field string) surface.List {
	c := r.col(field)
	return &columnSlice{
		col:  c.elems,
		from: int(c.offsets[r.index]),
		to:   int(c.offsets[r.index+1]),
	}
}

func (r *batchRow) ReadMap(field string) surface.Map {
	c := r.col(field)
	from, to := int(c.offsets[r.index]), int(c.offsets[r.index+1])
	return columnMap{
		keys: &columnSlice{col: c.keys, from: from, to: to},
		vals: &columnSlice{col: c.vals, from: from, to: to},
	}
}

// columnSlice is a positional list view over a child column range.
type columnSlice struct {
	col      *column
	from, to int
}

func (s *columnSlice) Items() int {
	return s.to - s.from
}

func (s *columnSlice) IsNull(i int) bool {
	return !s.col.valids[s.from+i]
}

func (s *columnSlice) ReadBool(i int) bool {
	return s.col.bools[s.from+i]
}

func (s *columnSlice) ReadInt(i int) int32 {
	return s.col.i32s[s.from+i]
}

func (s *columnSlice) ReadLong(i int) int64 {
	return s.col.i64s[s.from+i]
}

func (s *columnSlice) ReadFloat(i int) float32 {
	return s.col.f32s[s.from+i]
}

func (s *columnSlice) ReadDouble(i int) float64 {
	return s.col.f64s[s.from+i]
}

func (s *columnSlice) ReadString(i int) string {
	return s.col.strs[s.from+i]
}

type columnMap struct {
	keys, vals *columnSlice
}

func (m columnMap) Items() int {
	return m.keys.Items()
}

func (m columnMap) Keys() surface.List {
	return m.keys
}

func (m columnMap) Values() surface.List {
	return m.vals
}
