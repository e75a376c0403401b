package execution

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/metrico/nebula/meta"
	"go.uber.org/zap"
)

// BlockManager is the process-wide registry of admitted blocks.
// Admission and eviction are linearizable per table: every mutation of
// one table's set happens under that table's lock.
type BlockManager struct {
	mu     sync.RWMutex
	tables map[string]*tableBlocks

	// now returns unix seconds; tests pin it.
	now func() int64
}

type blockEntry struct {
	block BatchBlock
	order uint64
}

type tableBlocks struct {
	mu        sync.Mutex
	entries   []blockEntry
	bytes     int64
	nextOrder uint64
}

func NewBlockManager() *BlockManager {
	return &BlockManager{
		tables: make(map[string]*tableBlocks),
		now:    func() int64 { return time.Now().Unix() },
	}
}

func (m *BlockManager) table(name string) *tableBlocks {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		t = &tableBlocks{}
		m.tables[name] = t
	}
	return t
}

// Add admits blocks one at a time under the owning table's caps.
// Expired blocks and duplicate identities are rejected; size pressure
// evicts resident blocks oldest max-time first.
func (m *BlockManager) Add(spec *meta.TableSpec, blocks ...BatchBlock) error {
	t := m.table(spec.Name)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.add(m.now(), spec, blocks)
}

// Swap atomically replaces every resident block sharing the spec id of
// the incoming set with the new blocks. Observers see either only the
// old blocks or only the new ones.
func (m *BlockManager) Swap(spec *meta.TableSpec, blocks []BatchBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	t := m.table(spec.Name)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeSameSpec(blocks[0].Sig)
	return t.add(m.now(), spec, blocks)
}

// RemoveSameSpec drops every block whose {table, spec} matches the
// query signature, returning how many were dropped.
func (m *BlockManager) RemoveSameSpec(sig BlockSignature) int {
	t := m.table(sig.Table)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeSameSpec(sig)
}

// Blocks lists the resident blocks of a table overlapping
// [start, end]; end == 0 means no upper bound.
func (m *BlockManager) Blocks(table string, start, end uint64) []BatchBlock {
	m.mu.RLock()
	t, ok := m.tables[table]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []BatchBlock
	for _, e := range t.entries {
		if e.block.Sig.MaxTime < start {
			continue
		}
		if end > 0 && e.block.Sig.MinTime > end {
			continue
		}
		out = append(out, e.block)
	}
	return out
}

// Tables returns the table names currently holding blocks.
func (m *BlockManager) Tables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *tableBlocks) add(now int64, spec *meta.TableSpec, blocks []BatchBlock) error {
	horizon := now - spec.MaxSeconds()
	for _, b := range blocks {
		if spec.MaxHr > 0 && int64(b.Sig.MaxTime) < horizon {
			admissionsRejected.WithLabelValues(spec.Name, "expired").Inc()
			zap.L().Warn("block rejected",
				zap.String("table", spec.Name),
				zap.String("block", b.Sig.String()),
				zap.String("kind", "AdmissionRejected"))
			continue
		}
		if t.holds(b.Sig) {
			admissionsRejected.WithLabelValues(spec.Name, "duplicate").Inc()
			return fmt.Errorf("duplicate block identity %s", b.Sig)
		}
		t.entries = append(t.entries, blockEntry{block: b, order: t.nextOrder})
		t.nextOrder++
		t.bytes += b.Bytes()
		admissionsTotal.WithLabelValues(spec.Name).Inc()
	}
	t.evictOverCap(spec)
	residentBytes.WithLabelValues(spec.Name).Set(float64(t.bytes))
	residentBlocks.WithLabelValues(spec.Name).Set(float64(len(t.entries)))
	return nil
}

func (t *tableBlocks) holds(sig BlockSignature) bool {
	for _, e := range t.entries {
		if e.block.Sig.SameSpec(sig) && e.block.Sig.Sequence == sig.Sequence {
			return true
		}
	}
	return false
}

func (t *tableBlocks) evictOverCap(spec *meta.TableSpec) {
	t.evictToCap(spec.MaxBytes(), spec.Name)
}

// evictToCap drops blocks while resident bytes exceed the cap, oldest
// max-time first, insertion order breaking ties. A non-positive cap
// means unbounded.
func (t *tableBlocks) evictToCap(limit int64, table string) {
	if limit <= 0 {
		return
	}
	for t.bytes > limit && len(t.entries) > 0 {
		victim := 0
		for i := 1; i < len(t.entries); i++ {
			vi, vv := t.entries[i], t.entries[victim]
			if vi.block.Sig.MaxTime < vv.block.Sig.MaxTime ||
				(vi.block.Sig.MaxTime == vv.block.Sig.MaxTime && vi.order < vv.order) {
				victim = i
			}
		}
		b := t.entries[victim]
		t.entries = append(t.entries[:victim], t.entries[victim+1:]...)
		t.bytes -= b.block.Bytes()
		evictionsTotal.WithLabelValues(table).Inc()
		zap.L().Info("block evicted",
			zap.String("table", table),
			zap.String("block", b.block.Sig.String()))
	}
}

func (t *tableBlocks) removeSameSpec(sig BlockSignature) int {
	kept := t.entries[:0]
	removed := 0
	for _, e := range t.entries {
		if e.block.Sig.SameSpec(sig) {
			t.bytes -= e.block.Bytes()
			removed++
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
	return removed
}

// EvictSpec removes every block belonging to a retired work unit.
func (m *BlockManager) EvictSpec(table, specID string) int {
	return m.RemoveSameSpec(BlockSignature{Table: table, Spec: specID})
}
