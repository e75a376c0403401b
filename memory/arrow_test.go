package memory

import (
	"testing"

	"github.com/apache/arrow/go/v18/arrow/array"
	arrowmem "github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/metrico/nebula/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRecord(t *testing.T) {
	batch, err := NewBatch(testTable(t))
	require.NoError(t, err)

	for i := int64(0); i < 10; i++ {
		require.NoError(t, batch.Add(surface.NewValueRow(mockValues(3, i))))
	}

	rec, err := batch.ToRecord(arrowmem.NewGoAllocator())
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, int64(10), rec.NumRows())
	assert.Equal(t, int64(4), rec.NumCols())

	ids := rec.Column(0).(*array.Int32)
	for i := 0; i < 10; i++ {
		assert.Equal(t, batch.Row(i).ReadInt("id"), ids.Value(i))
	}

	items := rec.Column(2).(*array.List)
	for i := 0; i < 10; i++ {
		assert.Equal(t, batch.Row(i).IsNull("items"), items.IsNull(i), "row %d", i)
	}
}
