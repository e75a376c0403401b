package meta

import (
	"testing"

	"github.com/metrico/nebula/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specWithTime(ts TimeSpec) *TableSpec {
	return &TableSpec{
		Name:   "t",
		MaxMB:  100,
		MaxHr:  1,
		Schema:   "ROW<id:int, date:string, value:double>",
		Source:   S3,
		Loader:   "Swap",
		Location: "s3://bucket/t/",
		Time:     ts,
	}
}

func TestTableNormalization(t *testing.T) {
	for _, ts := range []TimeSpec{
		{Type: TimeStatic, Value: 100},
		{Type: TimeCurrent},
		{Type: TimeMacro, Pattern: "date"},
		{Type: TimeProvided},
	} {
		table, err := specWithTime(ts).Table()
		require.NoError(t, err, "time type %s", ts.Type)

		node, ok := table.Schema.Child(TimeColumnName)
		require.True(t, ok)
		assert.Equal(t, types.KindLong, node.Kind)
		assert.Equal(t, 4, table.Schema.Size(), "exactly one time column added")
	}
}

func TestTableNormalizationColumn(t *testing.T) {
	table, err := specWithTime(TimeSpec{Type: TimeColumn, Column: "date", Pattern: "%Y-%m-%d"}).Table()
	require.NoError(t, err)

	_, ok := table.Schema.Child("date")
	assert.False(t, ok, "source time column is consumed")
	node, ok := table.Schema.Child(TimeColumnName)
	require.True(t, ok)
	assert.Equal(t, types.KindLong, node.Kind)
	assert.Equal(t, 3, table.Schema.Size())
}

func TestTableServiceEnroll(t *testing.T) {
	svc := NewTableService()
	first, err := specWithTime(TimeSpec{Type: TimeStatic}).Table()
	require.NoError(t, err)
	svc.Enroll(first)
	svc.Enroll(&Table{Name: "t"})

	got, ok := svc.Query("t")
	require.True(t, ok)
	assert.Same(t, first, got, "first enrollment wins")
	assert.Len(t, svc.All(), 1)
}

func TestValidate(t *testing.T) {
	good := specWithTime(TimeSpec{Type: TimeColumn, Column: "date"})
	require.NoError(t, good.Validate())

	bad := specWithTime(TimeSpec{Type: TimeColumn, Column: "missing"})
	assert.Error(t, bad.Validate())

	macro := specWithTime(TimeSpec{Type: TimeMacro})
	assert.Error(t, macro.Validate())

	noLoc := specWithTime(TimeSpec{Type: TimeStatic})
	noLoc.Location = ""
	assert.Error(t, noLoc.Validate())
}

func TestParseClusterInfo(t *testing.T) {
	ci, err := ParseClusterInfo([]byte(`
version: "1.0"
tables:
  metrics:
    max-mb: 512
    max-hr: 24
    schema: "ROW<id:bigint, name:string>"
    data: s3
    loader: Roll
    source: "s3://bucket/metrics/dt=DATE/"
    format: csv
    time:
      type: static
      value: 42
`))
	require.NoError(t, err)
	require.Contains(t, ci.Tables, "metrics")
	spec := ci.Tables["metrics"]
	assert.Equal(t, "metrics", spec.Name)
	assert.Equal(t, S3, spec.Source)
	assert.Equal(t, TimeStatic, spec.Time.Type)
	assert.Equal(t, int64(42), spec.Time.Value)
	assert.Equal(t, []string{"metrics"}, ci.TableNames())
}

func TestParseClusterInfoRejectsBadTable(t *testing.T) {
	_, err := ParseClusterInfo([]byte(`
tables:
  broken:
    schema: "not a schema"
    data: s3
    loader: Swap
    source: "s3://b/x"
`))
	assert.Error(t, err)

	_, err = ParseClusterInfo([]byte(`
tables:
  broken:
    schema: "ROW<a:int>"
    data: teleport
`))
	assert.Error(t, err)
}
