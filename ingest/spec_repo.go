package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/storage"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SpecRepo owns the canonical set of work units derived from the
// cluster's table specs. Refresh is single-writer; readers take
// snapshots.
type SpecRepo struct {
	mu    sync.RWMutex
	specs map[string]*IngestSpec
	retry map[string]*retryState

	fs           storage.Factory
	testLoader   string
	refreshEvery time.Duration

	// onEvict fires for spec ids that disappeared from the config so
	// their blocks can be dropped.
	onEvict func(table, specID string)
}

type retryState struct {
	bo   *backoff.ExponentialBackOff
	next time.Time
}

func NewSpecRepo(fs storage.Factory, testLoader string, refreshEvery time.Duration, onEvict func(table, specID string)) *SpecRepo {
	if onEvict == nil {
		onEvict = func(string, string) {}
	}
	return &SpecRepo{
		specs:        make(map[string]*IngestSpec),
		retry:        make(map[string]*retryState),
		fs:           fs,
		testLoader:   testLoader,
		refreshEvery: refreshEvery,
		onEvict:      onEvict,
	}
}

// Refresh recomputes the canonical spec set from the cluster info.
// Known ids keep their state; new ids enter NEW; vanished ids are
// evicted together with their blocks. Identical inputs produce an
// identical id set.
func (r *SpecRepo) Refresh(ctx context.Context, ci *meta.ClusterInfo) error {
	gen := make(map[string]*IngestSpec)
	for _, name := range ci.TableNames() {
		t := ci.Tables[name]
		specs, err := r.genTable(ctx, ci, t)
		if err != nil {
			zap.L().Error("spec generation failed",
				zap.String("table", t.Name),
				zap.String("kind", kindOf(err)),
				zap.Error(err))
			continue
		}
		for _, s := range specs {
			gen[s.ID()] = s
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	merged := make(map[string]*IngestSpec, len(gen))
	for id, ns := range gen {
		if old, ok := r.specs[id]; ok {
			merged[id] = old
			continue
		}
		merged[id] = ns
	}
	for id, old := range r.specs {
		if _, ok := gen[id]; !ok {
			r.onEvict(old.Table.Name, id)
			delete(r.retry, id)
			zap.L().Info("spec retired", zap.String("spec", id))
		}
	}
	r.specs = merged
	return nil
}

func (r *SpecRepo) genTable(ctx context.Context, ci *meta.ClusterInfo, t *meta.TableSpec) ([]*IngestSpec, error) {
	switch {
	case t.Loader == r.testLoader:
		// fixed synthetic unit with a deterministic id
		return []*IngestSpec{
			NewIngestSpec(t, ci.Version, fmt.Sprintf("nebula/test/%s", t.Name), "nebula", 0, 0),
		}, nil

	case t.Source.IsFileSystem():
		return r.genFileSystem(ctx, ci, t)

	case t.Source == meta.Kafka:
		return r.genStream(ctx, ci, t)
	}
	return nil, fmt.Errorf("%w: no spec generation for source %s", ErrConfig, t.Source)
}

func (r *SpecRepo) genFileSystem(ctx context.Context, ci *meta.ClusterInfo, t *meta.TableSpec) ([]*IngestSpec, error) {
	uri, err := storage.ParseURI(t.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	fs, err := r.fs(t.Source.Protocol(), uri.Domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	cuts := []meta.MacroCut{{Path: uri.Path}}
	if macro := meta.ExtractPatternMacro(uri.Path); macro != meta.MacroInvalid {
		now := ci.Now()
		cuts = meta.ExpandPattern(uri.Path, macro, now-t.MaxSeconds(), now)
	}

	var specs []*IngestSpec
	for _, cut := range cuts {
		for _, f := range fs.List(ctx, cut.Path) {
			if f.IsDir {
				continue
			}
			specs = append(specs, NewIngestSpec(t, ci.Version, f.Name, uri.Domain, f.Size, cut.MDate))
		}
	}
	return specs, nil
}

// genStream emits one unit per partition of the topic. Stream specs
// are placeholders until a stream cursor lands; the executor fails
// them with a config error.
func (r *SpecRepo) genStream(ctx context.Context, ci *meta.ClusterInfo, t *meta.TableSpec) ([]*IngestSpec, error) {
	uri, err := storage.ParseURI(t.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	topic := uri.Path
	if topic == "" {
		topic = uri.Domain
	}
	fs, err := r.fs("kafka", topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	var specs []*IngestSpec
	for _, p := range fs.List(ctx, "") {
		specs = append(specs, NewIngestSpec(t, ci.Version, p.Name, topic, t.Serde.Size, 0))
	}
	return specs, nil
}

// Specs returns a snapshot of the current spec set keyed by id.
func (r *SpecRepo) Specs() map[string]*IngestSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*IngestSpec, len(r.specs))
	for id, s := range r.specs {
		out[id] = s
	}
	return out
}

// IDs returns the sorted spec ids, the determinism witness.
func (r *SpecRepo) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := maps.Keys(r.specs)
	slices.Sort(ids)
	return ids
}

// Claimable returns the units an executor may claim now: NEW specs plus
// FAILED ones whose backoff elapsed, reopened. Backoff grows
// exponentially and is capped at the refresh interval.
func (r *SpecRepo) Claimable() []*IngestSpec {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	ids := maps.Keys(r.specs)
	slices.Sort(ids)

	var out []*IngestSpec
	for _, id := range ids {
		s := r.specs[id]
		switch s.State() {
		case StateNew:
			out = append(out, s)
		case StateDone:
			delete(r.retry, id)
		case StateFailed:
			st, ok := r.retry[id]
			if !ok {
				bo := backoff.NewExponentialBackOff()
				bo.InitialInterval = time.Second
				if r.refreshEvery < bo.InitialInterval {
					bo.InitialInterval = r.refreshEvery
				}
				bo.MaxInterval = r.refreshEvery
				bo.MaxElapsedTime = 0
				bo.RandomizationFactor = 0
				bo.Reset()
				st = &retryState{bo: bo, next: now.Add(bo.NextBackOff())}
				r.retry[id] = st
				continue
			}
			if now.After(st.next) && s.Reopen() {
				st.next = now.Add(st.bo.NextBackOff())
				out = append(out, s)
			}
		}
	}
	return out
}
