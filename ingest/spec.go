// Package ingest derives work units from table specs and executes them:
// fetch, decode, batch, publish.
package ingest

import (
	"fmt"
	"sync/atomic"

	"github.com/metrico/nebula/meta"
)

// SpecState is the lifecycle of a work unit. Terminal states are
// immutable.
type SpecState int32

const (
	StateNew SpecState = iota
	StateInProgress
	StateDone
	StateFailed
)

func (s SpecState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateInProgress:
		return "INPROGRESS"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// IngestSpec is one unit of ingest work derived from a table spec: a
// concrete source location with its size, identified as
// {table}@{path}@{size}.
type IngestSpec struct {
	Table   *meta.TableSpec
	Version string
	Path    string
	Domain  string
	Size    int64
	// macro-resolved bucket start, set at creation for macro sources
	MDate int64

	state atomic.Int32
}

func NewIngestSpec(table *meta.TableSpec, version, path, domain string, size int64, mdate int64) *IngestSpec {
	s := &IngestSpec{
		Table:   table,
		Version: version,
		Path:    path,
		Domain:  domain,
		Size:    size,
		MDate:   mdate,
	}
	s.state.Store(int32(StateNew))
	return s
}

// ID is the wire identity of the work unit.
func (s *IngestSpec) ID() string {
	return fmt.Sprintf("%s@%s@%d", s.Table.Name, s.Path, s.Size)
}

func (s *IngestSpec) State() SpecState {
	return SpecState(s.state.Load())
}

// Transition moves the spec forward, refusing to leave a terminal
// state or to skip INPROGRESS.
func (s *IngestSpec) Transition(next SpecState) bool {
	for {
		cur := SpecState(s.state.Load())
		ok := cur == StateNew && next == StateInProgress ||
			cur == StateInProgress && (next == StateDone || next == StateFailed)
		if !ok {
			return false
		}
		if s.state.CompareAndSwap(int32(cur), int32(next)) {
			return true
		}
	}
}

// Reopen puts a failed spec back to NEW for a retry cycle.
func (s *IngestSpec) Reopen() bool {
	return s.state.CompareAndSwap(int32(StateFailed), int32(StateNew))
}

func (s *IngestSpec) String() string {
	return fmt.Sprintf("[%s: %s]", s.ID(), s.State())
}
