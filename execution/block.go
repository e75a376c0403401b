// Package execution owns the registry of published blocks: admission
// under per-table caps, same-spec replacement, and time-based eviction.
package execution

import (
	"fmt"

	"github.com/metrico/nebula/memory"
)

// BlockSignature is the identity of a published block. Blocks with the
// same {table, spec} belong to the same logical partition; swap
// admission replaces by that pair.
type BlockSignature struct {
	Table    string
	Sequence uint64
	MinTime  uint64
	MaxTime  uint64
	Spec     string
}

func (s BlockSignature) String() string {
	return fmt.Sprintf("%s#%d[%d,%d]@%s", s.Table, s.Sequence, s.MinTime, s.MaxTime, s.Spec)
}

// SameSpec reports whether two signatures identify the same logical
// partition.
func (s BlockSignature) SameSpec(o BlockSignature) bool {
	return s.Table == o.Table && s.Spec == o.Spec
}

// BatchBlock pairs a signature with its sealed batch. Immutable once
// admitted.
type BatchBlock struct {
	Sig  BlockSignature
	Data *memory.Batch
}

// Bytes is the resident size the block is accounted at.
func (b BatchBlock) Bytes() int64 {
	if b.Data == nil {
		return 0
	}
	return b.Data.Bytes()
}
