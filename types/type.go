package types

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
)

// Kind enumerates the primitive and compound kinds a column can hold.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindInt128
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindByte:
		return "tinyint"
	case KindShort:
		return "smallint"
	case KindInt:
		return "int"
	case KindLong:
		return "bigint"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindInt128:
		return "int128"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "invalid"
}

// kindNames maps accepted spelling variants to kinds, the same way the
// column type table accepts multiple SQL-ish aliases.
var kindNames = map[string]Kind{
	"bool":     KindBool,
	"boolean":  KindBool,
	"byte":     KindByte,
	"tinyint":  KindByte,
	"int8":     KindByte,
	"short":    KindShort,
	"smallint": KindShort,
	"int16":    KindShort,
	"int":      KindInt,
	"integer":  KindInt,
	"int32":    KindInt,
	"long":     KindLong,
	"bigint":   KindLong,
	"int64":    KindLong,
	"float":    KindFloat,
	"real":     KindFloat,
	"double":   KindDouble,
	"float64":  KindDouble,
	"string":   KindString,
	"varchar":  KindString,
	"text":     KindString,
	"int128":   KindInt128,
}

// Node is one node of a nominal type tree. The root of a schema is an
// unnamed row node whose children are columns, ordered. A list node has
// exactly one child (the element type), a map node has two (key, value).
type Node struct {
	Name     string
	Kind     Kind
	Children []*Node
}

func NewNode(name string, kind Kind, children ...*Node) *Node {
	return &Node{Name: name, Kind: kind, Children: children}
}

// LongNode builds a 64-bit integer column node, the shape used for the
// reserved time column.
func LongNode(name string) *Node {
	return &Node{Name: name, Kind: KindLong}
}

func (n *Node) Size() int {
	return len(n.Children)
}

func (n *Node) ChildAt(i int) *Node {
	return n.Children[i]
}

func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// AddChild appends a column subtree. A duplicate name is a precondition
// violation on the caller side.
func (n *Node) AddChild(c *Node) error {
	if _, ok := n.Child(c.Name); ok {
		return fmt.Errorf("type tree already has a child named %q", c.Name)
	}
	n.Children = append(n.Children, c)
	return nil
}

// Remove drops the child with the given name, keeping order of the rest.
func (n *Node) Remove(name string) {
	out := n.Children[:0]
	for _, c := range n.Children {
		if c.Name != name {
			out = append(out, c)
		}
	}
	n.Children = out
}

// Clone deep-copies the tree so callers can normalize a schema without
// mutating the spec's parsed form.
func (n *Node) Clone() *Node {
	c := &Node{Name: n.Name, Kind: n.Kind}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// ColumnNames lists the top-level column names in schema order.
func (n *Node) ColumnNames() []string {
	names := make([]string, len(n.Children))
	for i, c := range n.Children {
		names[i] = c.Name
	}
	return names
}

// ArrowType maps a column node to the arrow data type used when a batch
// is exported as a record.
func (n *Node) ArrowType() (arrow.DataType, error) {
	switch n.Kind {
	case KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case KindByte:
		return arrow.PrimitiveTypes.Int8, nil
	case KindShort:
		return arrow.PrimitiveTypes.Int16, nil
	case KindInt:
		return arrow.PrimitiveTypes.Int32, nil
	case KindLong:
		return arrow.PrimitiveTypes.Int64, nil
	case KindFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case KindDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case KindString:
		return arrow.BinaryTypes.String, nil
	case KindList:
		elem, err := n.Children[0].ArrowType()
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	}
	return nil, fmt.Errorf("no arrow mapping for kind %s", n.Kind)
}
