package ingest

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/metrico/nebula/execution"
	"github.com/metrico/nebula/memory"
	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/storage"
	"github.com/metrico/nebula/surface"
	"github.com/metrico/nebula/types"
	"go.uber.org/zap"
)

const (
	LoaderSwap = "Swap"
	LoaderRoll = "Roll"

	// DefaultBlockMaxRows caps rows per sealed block.
	DefaultBlockMaxRows = 50000
)

// Executor runs one work unit at a time: fetch, decode, batch, publish.
type Executor struct {
	Blocks     *execution.BlockManager
	Tables     *meta.TableService
	FS         storage.Factory
	MaxRows    int
	TestLoader string
}

func NewExecutor(bm *execution.BlockManager, ts *meta.TableService, fs storage.Factory, maxRows int, testLoader string) *Executor {
	if maxRows <= 0 {
		maxRows = DefaultBlockMaxRows
	}
	return &Executor{Blocks: bm, Tables: ts, FS: fs, MaxRows: maxRows, TestLoader: testLoader}
}

// Work executes the spec and drives its state machine. A failed unit
// admits nothing.
func (e *Executor) Work(ctx context.Context, spec *IngestSpec) error {
	if !spec.Transition(StateInProgress) {
		return fmt.Errorf("%w: spec %s is not claimable in state %s", ErrConfig, spec.ID(), spec.State())
	}
	err := e.work(ctx, spec)
	if err != nil {
		spec.Transition(StateFailed)
		specsFailed.WithLabelValues(spec.Table.Name).Inc()
		zap.L().Error("work unit failed",
			zap.String("spec", spec.ID()),
			zap.String("kind", kindOf(err)),
			zap.Error(err))
		return err
	}
	spec.Transition(StateDone)
	specsDone.WithLabelValues(spec.Table.Name).Inc()
	return nil
}

func (e *Executor) work(ctx context.Context, spec *IngestSpec) error {
	loader := spec.Table.Loader
	if loader == e.TestLoader {
		return e.loadTest(spec)
	}
	switch loader {
	case LoaderSwap:
		return e.loadSwap(ctx, spec)
	case LoaderRoll:
		return e.loadRoll(ctx, spec)
	}
	return fmt.Errorf("%w: unknown loader %q", ErrConfig, loader)
}

// loadTest synthesizes one equal-width block per core covering the
// table's time window, admitted directly.
func (e *Executor) loadTest(spec *IngestSpec) error {
	t := spec.Table
	table, err := t.Table()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	e.Tables.Enroll(table)

	start := t.Time.Value
	end := start + meta.HourSeconds*int64(t.MaxHr)
	numBlocks := runtime.NumCPU()
	window := (end - start) / int64(numBlocks)

	const rowsPerBlock = 512
	for i := 0; i < numBlocks; i++ {
		begin := start + int64(i)*window
		batch, err := memory.NewBatch(table)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		for r := 0; r < rowsPerBlock; r++ {
			row := &syntheticRow{
				MockRow: surface.MockRow{Seed: start, Index: int64(i*rowsPerBlock + r)},
				time:    begin + int64(r)*window/rowsPerBlock,
			}
			if err := batch.Add(row); err != nil {
				return err
			}
		}
		err = e.Blocks.Add(t, execution.BatchBlock{
			Sig: execution.BlockSignature{
				Table:    table.Name,
				Sequence: uint64(i),
				MinTime:  uint64(begin),
				MaxTime:  uint64(begin + window),
				Spec:     spec.ID(),
			},
			Data: batch,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAdmissionRejected, err)
		}
	}
	return nil
}

func (e *Executor) loadSwap(ctx context.Context, spec *IngestSpec) error {
	if !spec.Table.Source.IsFileSystem() {
		return fmt.Errorf("%w: swap loader needs a file-system source, got %s", ErrConfig, spec.Table.Source)
	}
	blocks, err := e.load(ctx, spec)
	if err != nil {
		return err
	}
	if err := e.Blocks.Swap(spec.Table, blocks); err != nil {
		return fmt.Errorf("%w: %v", ErrAdmissionRejected, err)
	}
	return nil
}

func (e *Executor) loadRoll(ctx context.Context, spec *IngestSpec) error {
	if !spec.Table.Source.IsFileSystem() {
		return fmt.Errorf("%w: roll loader needs a file-system source, got %s", ErrConfig, spec.Table.Source)
	}
	blocks, err := e.load(ctx, spec)
	if err != nil {
		return err
	}
	if err := e.Blocks.Add(spec.Table, blocks...); err != nil {
		return fmt.Errorf("%w: %v", ErrAdmissionRejected, err)
	}
	return nil
}

// load copies the input to a local temp file and decodes it. The temp
// file is removed on every exit path.
func (e *Executor) load(ctx context.Context, spec *IngestSpec) ([]execution.BatchBlock, error) {
	fs, err := e.FS(spec.Table.Source.Protocol(), spec.Domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	tmp, err := fs.Copy(ctx, spec.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: copy %s: %v", ErrSourceUnavailable, spec.Path, err)
	}
	defer os.Remove(tmp)

	return e.ingest(ctx, spec, tmp)
}

// ingest decodes one local file into sealed blocks.
func (e *Executor) ingest(ctx context.Context, spec *IngestSpec, path string) ([]execution.BatchBlock, error) {
	t := spec.Table
	table, err := t.Table()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	e.Tables.Enroll(table)

	timeFn, err := makeTimeFunc(t, spec.MDate)
	if err != nil {
		return nil, err
	}
	declared, err := t.ParsedSchema()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	cursor, err := NewCursor(t, declared, path)
	if err != nil {
		return nil, err
	}
	filter, err := compileFilter(t)
	if err != nil {
		return nil, err
	}

	batch, err := memory.NewBatch(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	var (
		blocks  []execution.BatchBlock
		seq     uint64
		minTime = uint64(math.MaxUint64)
		maxTime = uint64(0)
	)
	seal := func() {
		if batch.Rows() == 0 {
			return
		}
		blocks = append(blocks, execution.BatchBlock{
			Sig: execution.BlockSignature{
				Table:    table.Name,
				Sequence: seq,
				MinTime:  minTime,
				MaxTime:  maxTime,
				Spec:     spec.ID(),
			},
			Data: batch,
		})
		seq++
		batch, _ = memory.NewBatch(table)
		minTime, maxTime = math.MaxUint64, 0
	}

	wrapper := &timeRow{resolve: timeFn}
	for cursor.HasNext() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		default:
		}

		row := cursor.Next()
		if err := wrapper.set(row); err != nil {
			rowsDropped.WithLabelValues(t.Name).Inc()
			zap.L().Warn("row dropped",
				zap.String("spec", spec.ID()),
				zap.String("kind", kindOf(err)),
				zap.Error(err))
			continue
		}
		if filter != nil && !filter(declared, row) {
			rowsFiltered.WithLabelValues(t.Name).Inc()
			continue
		}

		if batch.Rows() >= e.MaxRows {
			seal()
		}

		ts := uint64(wrapper.cached)
		if ts < minTime {
			minTime = ts
		}
		if ts > maxTime {
			maxTime = ts
		}
		if err := batch.Add(wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		rowsIngested.WithLabelValues(t.Name).Inc()
	}
	seal()
	return blocks, nil
}

// syntheticRow overlays a fixed timestamp on deterministic mock data.
type syntheticRow struct {
	surface.MockRow
	time int64
}

func (r *syntheticRow) IsNull(field string) bool {
	if field == meta.TimeColumnName {
		return false
	}
	return r.MockRow.IsNull(field)
}

func (r *syntheticRow) ReadLong(field string) int64 {
	if field == meta.TimeColumnName {
		return r.time
	}
	return r.MockRow.ReadLong(field)
}

// rowFilter evaluates the table's optional filter expression; rows it
// rejects never reach the batch.
type rowFilter func(schema *types.Node, row surface.Row) bool

func compileFilter(t *meta.TableSpec) (rowFilter, error) {
	src := t.Settings["filter"]
	if src == "" {
		return nil, nil
	}
	prog, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("%w: bad filter %q: %v", ErrConfig, src, err)
	}
	return func(schema *types.Node, row surface.Row) bool {
		out, err := vm.Run(prog, rowEnv(schema, row))
		if err != nil {
			return false
		}
		keep, _ := out.(bool)
		return keep
	}, nil
}

// rowEnv projects a row's declared columns into an expression scope.
func rowEnv(schema *types.Node, row surface.Row) map[string]any {
	env := make(map[string]any, schema.Size())
	for i := 0; i < schema.Size(); i++ {
		node := schema.ChildAt(i)
		if row.IsNull(node.Name) {
			env[node.Name] = nil
			continue
		}
		switch node.Kind {
		case types.KindBool:
			env[node.Name] = row.ReadBool(node.Name)
		case types.KindByte, types.KindShort, types.KindInt, types.KindLong:
			env[node.Name] = row.ReadLong(node.Name)
		case types.KindFloat, types.KindDouble:
			env[node.Name] = row.ReadDouble(node.Name)
		case types.KindString:
			env[node.Name] = row.ReadString(node.Name)
		}
	}
	return env
}
