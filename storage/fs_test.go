package storage

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	uri, err := ParseURI("s3://bucket/prefix/dt=DATE/")
	require.NoError(t, err)
	assert.Equal(t, "s3", uri.Protocol)
	assert.Equal(t, "bucket", uri.Domain)
	assert.Equal(t, "prefix/dt=DATE/", uri.Path)

	uri, err = ParseURI("/var/data/files")
	require.NoError(t, err)
	assert.Equal(t, "local", uri.Protocol)
	assert.Equal(t, "/var/data/files", uri.Path)

	uri, err = ParseURI("kafka://broker:9092/topic")
	require.NoError(t, err)
	assert.Equal(t, "kafka", uri.Protocol)
	assert.Equal(t, "broker:9092", uri.Domain)
	assert.Equal(t, "topic", uri.Path)
}

func TestMakeFSUnknownProtocol(t *testing.T) {
	factory := MakeFS(Options{})
	_, err := factory("carrier-pigeon", "loft")
	assert.Error(t, err)
}

func memFS(t *testing.T) (FileSystem, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/tmp", 0o755))
	return NewLocalFS(mem, "/tmp"), mem
}

func TestLocalList(t *testing.T) {
	lfs, mem := memFS(t)
	require.NoError(t, mem.MkdirAll("/data/sub", 0o755))
	require.NoError(t, afero.WriteFile(mem, "/data/part-0.csv", []byte("aaaa"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/data/part-1.csv", []byte("bb"), 0o644))

	files := lfs.List(context.Background(), "/data")
	require.Len(t, files, 3)
	byName := map[string]FileInfo{}
	for _, f := range files {
		byName[f.Name] = f
	}
	assert.Equal(t, int64(4), byName["/data/part-0.csv"].Size)
	assert.Equal(t, int64(2), byName["/data/part-1.csv"].Size)
	assert.True(t, byName["/data/sub"].IsDir)

	// prefix filtering within a directory
	parts := lfs.List(context.Background(), "/data/part-")
	assert.Len(t, parts, 2)

	// a missing prefix lists empty, it does not fail
	assert.Empty(t, lfs.List(context.Background(), "/nowhere/at-all-"))
}

func TestLocalCopyReadSync(t *testing.T) {
	lfs, mem := memFS(t)
	require.NoError(t, afero.WriteFile(mem, "/data/in.csv", []byte("hello rows"), 0o644))

	tmp, err := lfs.Copy(context.Background(), "/data/in.csv")
	require.NoError(t, err)
	copied, err := afero.ReadFile(mem, tmp)
	require.NoError(t, err)
	assert.Equal(t, "hello rows", string(copied))

	head, err := lfs.Read(context.Background(), "/data/in.csv", 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(head))

	// reading past the end returns what is there
	all, err := lfs.Read(context.Background(), "/data/in.csv", 100)
	require.NoError(t, err)
	assert.Equal(t, "hello rows", string(all))

	require.NoError(t, lfs.Sync(context.Background(), "/data/in.csv", "/backup/out.csv"))
	synced, err := afero.ReadFile(mem, "/backup/out.csv")
	require.NoError(t, err)
	assert.Equal(t, "hello rows", string(synced))

	_, err = lfs.Copy(context.Background(), "/data/missing.csv")
	assert.Error(t, err)
}
