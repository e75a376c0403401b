package memory

import (
	"fmt"

	"github.com/metrico/nebula/surface"
	"github.com/metrico/nebula/types"
)

// column is the append-only store behind one schema column: a typed
// value slice plus a valid bitmap. Compound kinds keep child columns
// and an offsets slice with one entry per stored row plus the leading
// zero.
type column struct {
	node   *types.Node
	valids []bool

	bools []bool
	i8s   []int8
	i16s  []int16
	i32s  []int32
	i64s  []int64
	f32s  []float32
	f64s  []float64
	strs  []string

	offsets []int32
	elems   *column
	keys    *column
	vals    *column
}

func newColumn(node *types.Node) (*column, error) {
	c := &column{node: node}
	switch node.Kind {
	case types.KindBool, types.KindByte, types.KindShort, types.KindInt,
		types.KindLong, types.KindFloat, types.KindDouble, types.KindString:
	case types.KindList:
		elem, err := newColumn(node.ChildAt(0))
		if err != nil {
			return nil, err
		}
		c.elems = elem
		c.offsets = []int32{0}
	case types.KindMap:
		keys, err := newColumn(node.ChildAt(0))
		if err != nil {
			return nil, err
		}
		vals, err := newColumn(node.ChildAt(1))
		if err != nil {
			return nil, err
		}
		c.keys, c.vals = keys, vals
		c.offsets = []int32{0}
	default:
		return nil, fmt.Errorf("unsupported column kind %s for %q", node.Kind, node.Name)
	}
	return c, nil
}

// append stores the named field of the row.
func (c *column) append(row surface.Row) {
	name := c.node.Name
	if row.IsNull(name) {
		c.appendNull()
		return
	}
	c.valids = append(c.valids, true)
	switch c.node.Kind {
	case types.KindBool:
		c.bools = append(c.bools, row.ReadBool(name))
	case types.KindByte:
		c.i8s = append(c.i8s, row.ReadByte(name))
	case types.KindShort:
		c.i16s = append(c.i16s, row.ReadShort(name))
	case types.KindInt:
		c.i32s = append(c.i32s, row.ReadInt(name))
	case types.KindLong:
		c.i64s = append(c.i64s, row.ReadLong(name))
	case types.KindFloat:
		c.f32s = append(c.f32s, row.ReadFloat(name))
	case types.KindDouble:
		c.f64s = append(c.f64s, row.ReadDouble(name))
	case types.KindString:
		c.strs = append(c.strs, row.ReadString(name))
	case types.KindList:
		list := row.ReadList(name)
		for i := 0; i < list.Items(); i++ {
			c.elems.appendItem(list, i)
		}
		c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1]+int32(list.Items()))
	case types.KindMap:
		m := row.ReadMap(name)
		keys, vals := m.Keys(), m.Values()
		for i := 0; i < m.Items(); i++ {
			c.keys.appendItem(keys, i)
			c.vals.appendItem(vals, i)
		}
		c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1]+int32(m.Items()))
	}
}

func (c *column) appendNull() {
	c.valids = append(c.valids, false)
	switch c.node.Kind {
	case types.KindBool:
		c.bools = append(c.bools, false)
	case types.KindByte:
		c.i8s = append(c.i8s, 0)
	case types.KindShort:
		c.i16s = append(c.i16s, 0)
	case types.KindInt:
		c.i32s = append(c.i32s, 0)
	case types.KindLong:
		c.i64s = append(c.i64s, 0)
	case types.KindFloat:
		c.f32s = append(c.f32s, 0)
	case types.KindDouble:
		c.f64s = append(c.f64s, 0)
	case types.KindString:
		c.strs = append(c.strs, "")
	case types.KindList, types.KindMap:
		c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1])
	}
}

// appendItem stores one positional element of a list view.
func (c *column) appendItem(list surface.List, i int) {
	if list.IsNull(i) {
		c.appendNull()
		return
	}
	c.valids = append(c.valids, true)
	switch c.node.Kind {
	case types.KindBool:
		c.bools = append(c.bools, list.ReadBool(i))
	case types.KindByte:
		c.i8s = append(c.i8s, int8(list.ReadInt(i)))
	case types.KindShort:
		c.i16s = append(c.i16s, int16(list.ReadInt(i)))
	case types.KindInt:
		c.i32s = append(c.i32s, list.ReadInt(i))
	case types.KindLong:
		c.i64s = append(c.i64s, list.ReadLong(i))
	case types.KindFloat:
		c.f32s = append(c.f32s, list.ReadFloat(i))
	case types.KindDouble:
		c.f64s = append(c.f64s, list.ReadDouble(i))
	case types.KindString:
		c.strs = append(c.strs, list.ReadString(i))
	}
}

// rollback drops the last stored row, reclaiming child storage for
// compound kinds.
func (c *column) rollback() {
	n := len(c.valids)
	if n == 0 {
		return
	}
	c.valids = c.valids[:n-1]
	switch c.node.Kind {
	case types.KindBool:
		c.bools = c.bools[:n-1]
	case types.KindByte:
		c.i8s = c.i8s[:n-1]
	case types.KindShort:
		c.i16s = c.i16s[:n-1]
	case types.KindInt:
		c.i32s = c.i32s[:n-1]
	case types.KindLong:
		c.i64s = c.i64s[:n-1]
	case types.KindFloat:
		c.f32s = c.f32s[:n-1]
	case types.KindDouble:
		c.f64s = c.f64s[:n-1]
	case types.KindString:
		c.strs = c.strs[:n-1]
	case types.KindList:
		keep := c.offsets[len(c.offsets)-2]
		c.elems.truncate(int(keep))
		c.offsets = c.offsets[:len(c.offsets)-1]
	case types.KindMap:
		keep := c.offsets[len(c.offsets)-2]
		c.keys.truncate(int(keep))
		c.vals.truncate(int(keep))
		c.offsets = c.offsets[:len(c.offsets)-1]
	}
}

func (c *column) truncate(n int) {
	for len(c.valids) > n {
		c.rollback()
	}
}

// bytes approximates resident size, counted for the admission cap.
func (c *column) bytes() int64 {
	size := int64(len(c.valids))
	switch c.node.Kind {
	case types.KindBool, types.KindByte:
		size += int64(len(c.valids))
	case types.KindShort:
		size += 2 * int64(len(c.i16s))
	case types.KindInt, types.KindFloat:
		size += 4 * int64(len(c.valids))
	case types.KindLong, types.KindDouble:
		size += 8 * int64(len(c.valids))
	case types.KindString:
		for _, s := range c.strs {
			size += int64(len(s)) + 16
		}
	case types.KindList:
		size += 4*int64(len(c.offsets)) + c.elems.bytes()
	case types.KindMap:
		size += 4*int64(len(c.offsets)) + c.keys.bytes() + c.vals.bytes()
	}
	return size
}
