package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/surface"
	"go.uber.org/zap"
)

// timeFunc resolves the reserved time column for one row.
type timeFunc func(surface.Row) (int64, error)

// strptime directives accepted in column time patterns, translated to
// Go reference-time layouts.
var strptimeRepl = strings.NewReplacer(
	"%Y", "2006",
	"%y", "06",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
)

// makeTimeFunc builds the resolver for a table's time spec. Values are
// captured by value, never by reference into the spec.
func makeTimeFunc(t *meta.TableSpec, mdate int64) (timeFunc, error) {
	ts := t.Time
	switch ts.Type {
	case meta.TimeStatic:
		value := ts.Value
		return func(surface.Row) (int64, error) { return value, nil }, nil

	case meta.TimeCurrent:
		return func(surface.Row) (int64, error) { return time.Now().Unix(), nil }, nil

	case meta.TimeColumn:
		col := ts.Column
		pattern := ts.Pattern
		switch pattern {
		case "":
			// no pattern: the column already holds integer unix seconds
			return func(r surface.Row) (int64, error) {
				if r.IsNull(col) {
					return 0, fmt.Errorf("%w: null time column %q", ErrTime, col)
				}
				v := r.ReadLong(col)
				if v == 0 {
					if s := r.ReadString(col); s != "" {
						parsed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
						if err != nil {
							return 0, fmt.Errorf("%w: bad unix value %q in column %q", ErrTime, s, col)
						}
						return parsed, nil
					}
				}
				return v, nil
			}, nil
		case "auto":
			return func(r surface.Row) (int64, error) {
				s := r.ReadString(col)
				parsed, err := dateparse.ParseAny(s)
				if err != nil {
					return 0, fmt.Errorf("%w: cannot parse %q from column %q: %v", ErrTime, s, col, err)
				}
				return parsed.Unix(), nil
			}, nil
		default:
			layout := strptimeRepl.Replace(pattern)
			return func(r surface.Row) (int64, error) {
				s := r.ReadString(col)
				parsed, err := time.ParseInLocation(layout, s, time.UTC)
				if err != nil {
					return 0, fmt.Errorf("%w: cannot parse %q with pattern %q: %v", ErrTime, s, pattern, err)
				}
				return parsed.Unix(), nil
			}, nil
		}

	case meta.TimeMacro:
		if ts.Pattern == "date" {
			d := mdate
			return func(surface.Row) (int64, error) { return d, nil }, nil
		}
		zap.L().Warn("unsupported macro time pattern, stamping zero",
			zap.String("table", t.Name),
			zap.String("pattern", ts.Pattern))
		return func(surface.Row) (int64, error) { return 0, nil }, nil

	case meta.TimeProvided:
		// the source adapter injects the value under the reserved name
		return func(r surface.Row) (int64, error) {
			if r.IsNull(meta.TimeColumnName) {
				return 0, fmt.Errorf("%w: source did not provide a timestamp", ErrTime)
			}
			return r.ReadLong(meta.TimeColumnName), nil
		}, nil
	}
	return nil, fmt.Errorf("%w: unsupported time type %d", ErrTime, ts.Type)
}

// timeRow decorates a source row, intercepting only reads of the
// reserved time column and routing them through the resolver.
type timeRow struct {
	surface.Row
	resolve timeFunc
	cached  int64
}

func (r *timeRow) set(row surface.Row) error {
	r.Row = row
	t, err := r.resolve(row)
	if err != nil {
		return err
	}
	r.cached = t
	return nil
}

func (r *timeRow) IsNull(field string) bool {
	if field == meta.TimeColumnName {
		return false
	}
	return r.Row.IsNull(field)
}

func (r *timeRow) ReadLong(field string) int64 {
	if field == meta.TimeColumnName {
		return r.cached
	}
	return r.Row.ReadLong(field)
}
