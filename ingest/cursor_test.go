package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func schemaOf(t *testing.T, s string) *types.Node {
	t.Helper()
	schema, err := types.Parse(s)
	require.NoError(t, err)
	return schema
}

func TestCursorDispatch(t *testing.T) {
	table := &meta.TableSpec{Name: "t", Format: "avro"}
	_, err := NewCursor(table, schemaOf(t, "ROW<a:int>"), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestCSVCursorHeader(t *testing.T) {
	path := writeFile(t, "h.csv", "event,id\nfirst,1\nsecond,2\n")
	table := &meta.TableSpec{Name: "t", Format: "csv"}
	c, err := NewCursor(table, schemaOf(t, "ROW<id:int, event:string>"), path)
	require.NoError(t, err)

	require.True(t, c.HasNext())
	row := c.Next()
	assert.Equal(t, int32(1), row.ReadInt("id"))
	assert.Equal(t, "first", row.ReadString("event"))

	require.True(t, c.HasNext())
	row = c.Next()
	assert.Equal(t, int32(2), row.ReadInt("id"))
	assert.False(t, c.HasNext())
}

func TestCSVCursorHeaderless(t *testing.T) {
	// without a recognizable header, fields bind in schema order
	path := writeFile(t, "nh.csv", "1,first\n2,second\n")
	table := &meta.TableSpec{Name: "t", Format: "csv"}
	c, err := NewCursor(table, schemaOf(t, "ROW<id:int, event:string>"), path)
	require.NoError(t, err)

	rows := 0
	for c.HasNext() {
		row := c.Next()
		rows++
		assert.Equal(t, int32(rows), row.ReadInt("id"))
	}
	assert.Equal(t, 2, rows)
}

func TestCSVCursorDelimiter(t *testing.T) {
	path := writeFile(t, "tab.csv", "id\tevent\n7\tseven\n")
	table := &meta.TableSpec{
		Name:     "t",
		Format:   "csv",
		Settings: meta.Settings{"csv.delimiter": "\t"},
	}
	c, err := NewCursor(table, schemaOf(t, "ROW<id:int, event:string>"), path)
	require.NoError(t, err)
	require.True(t, c.HasNext())
	assert.Equal(t, "seven", c.Next().ReadString("event"))
}

func TestCSVCursorEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")
	table := &meta.TableSpec{Name: "t", Format: "csv"}
	c, err := NewCursor(table, schemaOf(t, "ROW<id:int>"), path)
	require.NoError(t, err)
	assert.False(t, c.HasNext())
}

func TestJSONCursor(t *testing.T) {
	path := writeFile(t, "r.ndjson",
		`{"id": 1, "event": "a", "items": ["x", "y"], "flag": true}
{"id": 2, "event": "b", "items": null, "flag": false}
not json at all
{"id": 3, "event": "c", "items": [], "flag": true, "score": 1.5}
`)
	table := &meta.TableSpec{Name: "t", Format: "ndjson"}
	c, err := NewCursor(table, schemaOf(t, meta.TestSchema), path)
	require.NoError(t, err)

	require.True(t, c.HasNext())
	row := c.Next()
	assert.Equal(t, int64(1), row.ReadLong("id"))
	assert.Equal(t, "a", row.ReadString("event"))
	list := row.ReadList("items")
	require.Equal(t, 2, list.Items())
	assert.Equal(t, "y", list.ReadString(1))
	assert.True(t, row.ReadBool("flag"))

	require.True(t, c.HasNext())
	row = c.Next()
	assert.True(t, row.IsNull("items"))

	// the bad line is dropped, the last object still arrives
	require.True(t, c.HasNext())
	row = c.Next()
	assert.Equal(t, int64(3), row.ReadLong("id"))
	assert.Equal(t, 1.5, row.ReadDouble("score"))
	assert.False(t, c.HasNext())
}

func TestLineProtoCursor(t *testing.T) {
	path := writeFile(t, "m.lp",
		"cpu,host=web01 usage=0.5,cores=4i 1565994194000000000\n"+
			"cpu,host=web02 usage=0.9,cores=8i 1565994195000000000\n")
	table := &meta.TableSpec{Name: "t", Format: "lineproto"}
	c, err := NewCursor(table, schemaOf(t, "ROW<host:string, usage:double, cores:bigint>"), path)
	require.NoError(t, err)

	require.True(t, c.HasNext())
	row := c.Next()
	assert.Equal(t, "web01", row.ReadString("host"))
	assert.Equal(t, 0.5, row.ReadDouble("usage"))
	assert.Equal(t, int64(4), row.ReadLong("cores"))
	// the point timestamp is provided under the reserved column
	assert.Equal(t, int64(1565994194), row.ReadLong(meta.TimeColumnName))

	require.True(t, c.HasNext())
	row = c.Next()
	assert.Equal(t, "web02", row.ReadString("host"))
	assert.False(t, c.HasNext())
}
