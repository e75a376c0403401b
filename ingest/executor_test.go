package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/metrico/nebula/execution"
	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) (*execution.BlockManager, *meta.TableService, storage.Factory, string) {
	t.Helper()
	dir := t.TempDir()
	fs := storage.MakeFS(storage.Options{TmpPath: dir})
	return execution.NewBlockManager(), meta.NewTableService(), fs, dir
}

func csvTable(name, location string) *meta.TableSpec {
	return &meta.TableSpec{
		Name:     name,
		MaxMB:    1000,
		MaxHr:    1000000,
		Schema:   "ROW<id:bigint, event:string, date:string>",
		Source:   meta.Local,
		Loader:   LoaderSwap,
		Location: location,
		Format:   "csv",
		Time: meta.TimeSpec{
			Type:    meta.TimeColumn,
			Column:  "date",
			Pattern: "%Y-%m-%d %H:%M:%S",
		},
	}
}

func writeCSV(t *testing.T, path string, rows int, tag string) int64 {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	fmt.Fprintln(f, "id,event,date")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(f, "%d,%s-%04d,2019-08-15 10:%02d:00\n", i, tag, i, i%60)
	}
	info, err := f.Stat()
	require.NoError(t, err)
	return info.Size()
}

func TestColumnTimeIngest(t *testing.T) {
	bm, ts, fs, dir := testEnv(t)
	path := filepath.Join(dir, "part.csv")
	size := writeCSV(t, path, 4, "aa")

	table := csvTable("events", dir)
	exec := NewExecutor(bm, ts, fs, 50000, "NebulaTest")
	spec := NewIngestSpec(table, "1.0", path, "", size, 0)

	require.NoError(t, exec.Work(context.Background(), spec))
	assert.Equal(t, StateDone, spec.State())

	// the effective schema consumed the source time column
	effective, ok := ts.Query("events")
	require.True(t, ok)
	_, hasDate := effective.Schema.Child("date")
	assert.False(t, hasDate)
	_, hasTime := effective.Schema.Child(meta.TimeColumnName)
	assert.True(t, hasTime)

	blocks := bm.Blocks("events", 0, 0)
	require.Len(t, blocks, 1)
	b := blocks[0]

	want := time.Date(2019, 8, 15, 10, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, uint64(want), b.Sig.MinTime)
	assert.Equal(t, uint64(want+3*60), b.Sig.MaxTime)

	require.Equal(t, 4, b.Data.Rows())
	for i := 0; i < 4; i++ {
		row := b.Data.Row(i)
		sec := row.ReadLong(meta.TimeColumnName)
		assert.Equal(t, want+int64(i*60), sec)
		assert.GreaterOrEqual(t, uint64(sec), b.Sig.MinTime)
		assert.LessOrEqual(t, uint64(sec), b.Sig.MaxTime)
		assert.Equal(t, fmt.Sprintf("aa-%04d", i), row.ReadString("event"))
	}
}

func TestSwapCycle(t *testing.T) {
	bm, ts, fs, dir := testEnv(t)
	path := filepath.Join(dir, "p1.csv")
	size := writeCSV(t, path, 4, "v1")

	table := csvTable("swap", dir)
	// two rows per block so four rows seal exactly two blocks
	exec := NewExecutor(bm, ts, fs, 2, "NebulaTest")

	s1 := NewIngestSpec(table, "1.0", path, "", size, 0)
	require.NoError(t, exec.Work(context.Background(), s1))
	require.Len(t, bm.Blocks("swap", 0, 0), 2)
	assert.Equal(t, "v1-0000", bm.Blocks("swap", 0, 0)[0].Data.Row(0).ReadString("event"))

	// same identity, new content
	newSize := writeCSV(t, path, 4, "v2")
	require.Equal(t, size, newSize, "replacement keeps the same id")
	again := NewIngestSpec(table, "1.0", path, "", newSize, 0)
	require.Equal(t, s1.ID(), again.ID())
	require.NoError(t, exec.Work(context.Background(), again))

	blocks := bm.Blocks("swap", 0, 0)
	require.Len(t, blocks, 2, "old generation fully replaced")
	seen := map[uint64]bool{}
	for _, b := range blocks {
		assert.Equal(t, s1.ID(), b.Sig.Spec)
		assert.Equal(t, "v2", b.Data.Row(0).ReadString("event")[:2])
		assert.False(t, seen[b.Sig.Sequence], "no duplicate {table, sequence} under one spec")
		seen[b.Sig.Sequence] = true
	}
}

func TestRollAppends(t *testing.T) {
	bm, ts, fs, dir := testEnv(t)
	path := filepath.Join(dir, "roll.csv")
	size := writeCSV(t, path, 2, "r1")

	table := csvTable("roll", dir)
	table.Loader = LoaderRoll
	exec := NewExecutor(bm, ts, fs, 50000, "NebulaTest")

	require.NoError(t, exec.Work(context.Background(), NewIngestSpec(table, "1.0", path, "", size, 0)))
	require.Len(t, bm.Blocks("roll", 0, 0), 1)

	path2 := filepath.Join(dir, "roll2.csv")
	size2 := writeCSV(t, path2, 2, "r2")
	require.NoError(t, exec.Work(context.Background(), NewIngestSpec(table, "1.0", path2, "", size2, 0)))
	assert.Len(t, bm.Blocks("roll", 0, 0), 2, "roll keeps displaced blocks")
}

func TestTestLoader(t *testing.T) {
	bm, ts, fs, _ := testEnv(t)
	start := time.Now().Unix() - 600
	table := meta.TestTableSpec("NebulaTest", start, 10)

	exec := NewExecutor(bm, ts, fs, 50000, "NebulaTest")
	spec := NewIngestSpec(table, "1.0", "nebula/test/nebula.test", "nebula", 0, 0)
	require.NoError(t, exec.Work(context.Background(), spec))

	blocks := bm.Blocks("nebula.test", 0, 0)
	numBlocks := runtime.NumCPU()
	require.Len(t, blocks, numBlocks)

	end := start + meta.HourSeconds*10
	window := (end - start) / int64(numBlocks)
	for _, b := range blocks {
		i := int64(b.Sig.Sequence)
		assert.Equal(t, uint64(start+i*window), b.Sig.MinTime)
		assert.Equal(t, uint64(start+i*window+window), b.Sig.MaxTime)
		assert.Equal(t, spec.ID(), b.Sig.Spec)
		assert.Greater(t, b.Data.Rows(), 0)
	}
}

func TestUnsupportedFormatFailsUnit(t *testing.T) {
	bm, ts, fs, dir := testEnv(t)
	path := filepath.Join(dir, "x.bin")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))

	table := csvTable("bad", dir)
	table.Format = "avro"
	exec := NewExecutor(bm, ts, fs, 50000, "NebulaTest")
	spec := NewIngestSpec(table, "1.0", path, "", 4, 0)

	err := exec.Work(context.Background(), spec)
	require.Error(t, err)
	assert.Equal(t, StateFailed, spec.State())
	assert.Empty(t, bm.Blocks("bad", 0, 0), "failed units admit nothing")
}

func TestCopyFailureFailsUnit(t *testing.T) {
	bm, ts, fs, dir := testEnv(t)
	table := csvTable("gone", dir)
	exec := NewExecutor(bm, ts, fs, 50000, "NebulaTest")
	spec := NewIngestSpec(table, "1.0", filepath.Join(dir, "missing.csv"), "", 1, 0)

	err := exec.Work(context.Background(), spec)
	require.Error(t, err)
	assert.Equal(t, StateFailed, spec.State())
}

func TestCancelledUnitAdmitsNothing(t *testing.T) {
	bm, ts, fs, dir := testEnv(t)
	path := filepath.Join(dir, "c.csv")
	size := writeCSV(t, path, 50, "cc")

	table := csvTable("cancelled", dir)
	exec := NewExecutor(bm, ts, fs, 50000, "NebulaTest")
	spec := NewIngestSpec(table, "1.0", path, "", size, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := exec.Work(ctx, spec)
	require.Error(t, err)
	assert.Equal(t, StateFailed, spec.State())
	assert.Empty(t, bm.Blocks("cancelled", 0, 0))
}

func TestTempFilesRemoved(t *testing.T) {
	bm, ts, fs, dir := testEnv(t)
	path := filepath.Join(dir, "tmp.csv")
	size := writeCSV(t, path, 2, "tt")

	table := csvTable("tmp", dir)
	exec := NewExecutor(bm, ts, fs, 50000, "NebulaTest")
	require.NoError(t, exec.Work(context.Background(), NewIngestSpec(table, "1.0", path, "", size, 0)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "nebula.local.", "fetch temp files are unlinked")
	}
}

func TestFilterExpression(t *testing.T) {
	bm, ts, fs, dir := testEnv(t)
	path := filepath.Join(dir, "f.csv")
	size := writeCSV(t, path, 10, "ff")

	table := csvTable("filtered", dir)
	table.Settings = meta.Settings{"filter": `id >= 5`}
	exec := NewExecutor(bm, ts, fs, 50000, "NebulaTest")
	require.NoError(t, exec.Work(context.Background(), NewIngestSpec(table, "1.0", path, "", size, 0)))

	blocks := bm.Blocks("filtered", 0, 0)
	require.Len(t, blocks, 1)
	assert.Equal(t, 5, blocks[0].Data.Rows())
}

func TestBadTimeRowsDropped(t *testing.T) {
	bm, ts, fs, dir := testEnv(t)
	path := filepath.Join(dir, "drop.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	fmt.Fprintln(f, "id,event,date")
	fmt.Fprintln(f, "1,ok,2019-08-15 10:00:00")
	fmt.Fprintln(f, "2,bad,definitely not a date")
	fmt.Fprintln(f, "3,ok,2019-08-15 10:01:00")
	info, _ := f.Stat()
	f.Close()

	table := csvTable("drops", dir)
	exec := NewExecutor(bm, ts, fs, 50000, "NebulaTest")
	require.NoError(t, exec.Work(context.Background(), NewIngestSpec(table, "1.0", path, "", info.Size(), 0)))

	blocks := bm.Blocks("drops", 0, 0)
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].Data.Rows(), "unparseable time fails only that row")
}

func TestLocalAdapterWithMemFS(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/data", 0o755))
	require.NoError(t, afero.WriteFile(mem, "/data/a.csv", []byte("x"), 0o644))

	lfs := storage.NewLocalFS(mem, "/tmp")
	files := lfs.List(context.Background(), "/data")
	require.Len(t, files, 1)
	assert.Equal(t, int64(1), files[0].Size)
}
