package meta

import (
	"sync"

	"github.com/metrico/nebula/types"
)

// TimeColumnName is the reserved column present on every effective
// schema, holding seconds since the unix epoch as a 64-bit integer.
const TimeColumnName = "_time_"

// Table is the effective shape of a table after time normalization:
// the parsed schema with exactly one reserved time column.
type Table struct {
	Name   string
	Schema *types.Node
	Props  ColumnProps
}

// ParsedSchema parses the spec's schema string as declared, without
// time normalization.
func (t *TableSpec) ParsedSchema() (*types.Node, error) {
	return types.Parse(t.Schema)
}

// Table builds the effective table from the spec. The source schema is
// cloned, the time column appended, and for column-sourced time the
// origin column is consumed so it does not appear twice.
func (t *TableSpec) Table() (*Table, error) {
	schema, err := t.ParsedSchema()
	if err != nil {
		return nil, err
	}
	if t.Time.Type == TimeColumn {
		schema.Remove(t.Time.Column)
	}
	schema.Remove(TimeColumnName)
	if err := schema.AddChild(types.LongNode(TimeColumnName)); err != nil {
		return nil, err
	}
	return &Table{Name: t.Name, Schema: schema, Props: t.Columns}, nil
}

// TableService is the process-wide registry of effective tables,
// enrolled as their first blocks are ingested and queried by the
// execution layer.
type TableService struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewTableService() *TableService {
	return &TableService{tables: make(map[string]*Table)}
}

// Enroll registers the table, keeping the first enrollment if it is
// already present.
func (s *TableService) Enroll(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[t.Name]; !ok {
		s.tables[t.Name] = t
	}
}

func (s *TableService) Query(name string) (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

func (s *TableService) All() []*Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out
}
