package surface

import (
	"encoding/binary"
	"fmt"

	"github.com/go-faster/city"
)

// MockRow produces deterministic pseudo-random values per (seed, index,
// field). Two mock rows built from the same seed and index read equal,
// which is what the synthetic loader and the buffer tests rely on.
type MockRow struct {
	Seed  int64
	Index int64
}

func NewMockRow(seed, index int64) *MockRow {
	return &MockRow{Seed: seed, Index: index}
}

func (r *MockRow) hash(field string) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(r.Seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(r.Index))
	return city.CH64(append(buf[:], field...))
}

func (r *MockRow) IsNull(field string) bool {
	return false
}

func (r *MockRow) ReadBool(field string) bool {
	return r.hash(field)&1 == 1
}

func (r *MockRow) ReadByte(field string) int8 {
	return int8(r.hash(field))
}

func (r *MockRow) ReadShort(field string) int16 {
	return int16(r.hash(field))
}

func (r *MockRow) ReadInt(field string) int32 {
	return int32(r.hash(field))
}

func (r *MockRow) ReadLong(field string) int64 {
	return int64(r.hash(field) >> 1)
}

func (r *MockRow) ReadFloat(field string) float32 {
	return float32(r.hash(field)%1000) / 10
}

func (r *MockRow) ReadDouble(field string) float64 {
	return float64(r.hash(field)%100000) / 100
}

func (r *MockRow) ReadString(field string) string {
	return fmt.Sprintf("%s-%x", field, r.hash(field)&0xffff)
}

func (r *MockRow) ReadList(field string) List {
	n := int(r.hash(field)%4) + 1
	items := make(ValueList, n)
	for i := range items {
		items[i] = fmt.Sprintf("%s-%d-%x", field, i, r.hash(field)>>8)
	}
	return items
}

func (r *MockRow) ReadMap(field string) Map {
	keys := r.ReadList(field + ".k").(ValueList)
	vals := r.ReadList(field + ".v").(ValueList)
	n := min(len(keys), len(vals))
	return ValueMap{K: keys[:n], V: vals[:n]}
}
