package types

import (
	"fmt"
	"strings"
)

// Parse deserializes a schema string such as
//
//	ROW<id:int, event:string, items:list<string>, flag:bool>
//
// into a type tree. Type names are case-insensitive and accept the
// aliases in kindNames. The textual form round-trips through Format.
func Parse(s string) (*Node, error) {
	p := &parser{in: s}
	p.skipSpace()
	node, err := p.row("")
	if err != nil {
		return nil, fmt.Errorf("bad schema %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.in) {
		return nil, fmt.Errorf("bad schema %q: trailing input at %d", s, p.pos)
	}
	return node, nil
}

// Format serializes a type tree back into its textual form.
func Format(n *Node) string {
	var b strings.Builder
	writeNode(&b, n, true)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, root bool) {
	switch {
	case root:
		b.WriteString("ROW<")
		for i, c := range n.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			b.WriteString(":")
			writeNode(b, c, false)
		}
		b.WriteString(">")
	case n.Kind == KindList:
		b.WriteString("list<")
		writeNode(b, n.Children[0], false)
		b.WriteString(">")
	case n.Kind == KindMap:
		b.WriteString("map<")
		writeNode(b, n.Children[0], false)
		b.WriteString(", ")
		writeNode(b, n.Children[1], false)
		b.WriteString(">")
	default:
		b.WriteString(n.Kind.String())
	}
}

type parser struct {
	in  string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.in) && (p.in[p.pos] == ' ' || p.in[p.pos] == '\t' || p.in[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.in[start:p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.in) || p.in[p.pos] != c {
		return fmt.Errorf("expected %q at %d", string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) row(name string) (*Node, error) {
	word := p.ident()
	if !strings.EqualFold(word, "ROW") {
		return nil, fmt.Errorf("expected ROW at %d, got %q", p.pos, word)
	}
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	row := &Node{Name: name}
	for {
		p.skipSpace()
		colName := p.ident()
		if colName == "" {
			return nil, fmt.Errorf("expected column name at %d", p.pos)
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		col, err := p.typeNode(colName)
		if err != nil {
			return nil, err
		}
		if err := row.AddChild(col); err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos < len(p.in) && p.in[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	return row, nil
}

func (p *parser) typeNode(name string) (*Node, error) {
	p.skipSpace()
	word := p.ident()
	lower := strings.ToLower(word)
	switch lower {
	case "list":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.typeNode("")
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return &Node{Name: name, Kind: KindList, Children: []*Node{elem}}, nil
	case "map":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		key, err := p.typeNode("")
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		val, err := p.typeNode("")
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return &Node{Name: name, Kind: KindMap, Children: []*Node{key, val}}, nil
	case "row":
		// nested rows are not supported by the ingest surface
		return nil, fmt.Errorf("nested ROW is not supported at %d", p.pos)
	}
	kind, ok := kindNames[lower]
	if !ok {
		return nil, fmt.Errorf("unknown type %q at %d", word, p.pos)
	}
	return &Node{Name: name, Kind: kind}, nil
}
