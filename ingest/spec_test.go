package ingest

import (
	"testing"

	"github.com/metrico/nebula/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestSpecID(t *testing.T) {
	table := &meta.TableSpec{
		Name:     "test",
		MaxMB:    1000,
		MaxHr:    10,
		Schema:   "ROW<a:int>",
		Source:   meta.S3,
		Loader:   "Swap",
		Location: "s3://test",
		Backup:   "s3://bak",
		Format:   "csv",
	}
	spec := NewIngestSpec(table, "1.0", "nebula/v1.x", "nebula", 10, 0)

	assert.Equal(t, "test@nebula/v1.x@10", spec.ID())
	assert.Equal(t, int64(10), spec.Size)
	assert.Equal(t, "nebula/v1.x", spec.Path)
	assert.Equal(t, "nebula", spec.Domain)
	assert.Equal(t, "test", spec.Table.Name)
	assert.Equal(t, "1.0", spec.Version)
	assert.Equal(t, StateNew, spec.State())
}

func TestSpecStateMachine(t *testing.T) {
	table := &meta.TableSpec{Name: "t"}
	spec := NewIngestSpec(table, "1", "p", "d", 1, 0)

	// DONE is only reachable through INPROGRESS
	require.False(t, spec.Transition(StateDone))
	require.True(t, spec.Transition(StateInProgress))
	require.False(t, spec.Transition(StateInProgress))
	require.True(t, spec.Transition(StateDone))

	// terminal states are immutable
	assert.False(t, spec.Transition(StateFailed))
	assert.False(t, spec.Transition(StateInProgress))
	assert.Equal(t, StateDone, spec.State())
}

func TestSpecReopen(t *testing.T) {
	spec := NewIngestSpec(&meta.TableSpec{Name: "t"}, "1", "p", "d", 1, 0)
	require.True(t, spec.Transition(StateInProgress))
	require.True(t, spec.Transition(StateFailed))

	// a failed unit can be reopened for retry, a done one cannot
	assert.True(t, spec.Reopen())
	assert.Equal(t, StateNew, spec.State())
	require.True(t, spec.Transition(StateInProgress))
	require.True(t, spec.Transition(StateDone))
	assert.False(t, spec.Reopen())
}
