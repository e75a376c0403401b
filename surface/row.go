// Package surface defines the row view every decoded input presents to
// the ingestion pipeline: a capability set of typed readers keyed by
// column name, plus positional list/map sub-views.
package surface

// Row is a read-only view over one record. Readers are keyed by column
// name; a read of a column absent from the row is a programming error.
// ValueRow returns the zero value for it; a batch row view panics.
type Row interface {
	IsNull(field string) bool
	ReadBool(field string) bool
	ReadByte(field string) int8
	ReadShort(field string) int16
	ReadInt(field string) int32
	ReadLong(field string) int64
	ReadFloat(field string) float32
	ReadDouble(field string) float64
	ReadString(field string) string
	ReadList(field string) List
	ReadMap(field string) Map
}

// List is a positional view over a list value.
type List interface {
	Items() int
	IsNull(i int) bool
	ReadBool(i int) bool
	ReadInt(i int) int32
	ReadLong(i int) int64
	ReadFloat(i int) float32
	ReadDouble(i int) float64
	ReadString(i int) string
}

// Map exposes parallel key/value lists.
type Map interface {
	Items() int
	Keys() List
	Values() List
}

// Cursor is a single-pass forward iterator of rows over one decoded
// input. Cursors are not restartable.
type Cursor interface {
	HasNext() bool
	Next() Row
}
