package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/talentflow-cli/internal/cache"
	"github.com/KaramelBytes/talentflow-cli/internal/parser"
)

// Loader reads source tables from a directory through an explicit cache.
// Cache keys are "<table>:<absolute dir>", so two loaders over the same
// directory share entries when they share a Store.
type Loader struct {
	dir    string
	store  *cache.Store
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil store gets a private one-hour Store and a
// nil logger falls back to slog.Default().
func NewLoader(dir string, store *cache.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = cache.New(cache.WithLogger(logger))
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Loader{dir: dir, store: store, logger: logger}
}

// Dir returns the absolute data directory.
func (l *Loader) Dir() string { return l.dir }

// Store returns the cache the loader memoizes through.
func (l *Loader) Store() *cache.Store { return l.store }

func (l *Loader) key(name string) string { return name + ":" + l.dir }

// readTable resolves base inside the data directory and reads it. ok is
// false when no candidate file exists.
func (l *Loader) readTable(base string) (t *parser.Table, path string, ok bool, err error) {
	path, ok = parser.ResolveSource(l.dir, base)
	if !ok {
		return nil, "", false, nil
	}
	t, err = parser.ReadFile(path)
	if err != nil {
		return nil, path, true, &LoadError{Dataset: base, Path: path, Err: err}
	}
	return t, path, true, nil
}

// Flows loads the required flows table. A missing table yields an error
// wrapping ErrFlowsMissing; an unreadable one yields a *LoadError.
func (l *Loader) Flows(ctx context.Context) (*FlowTable, error) {
	return cache.Fetch(ctx, l.store, l.key("load_flows"), func(ctx context.Context) (*FlowTable, error) {
		t, path, ok, err := l.readTable(FlowsBase)
		if !ok {
			l.logger.Error("flows table missing", "dir", l.dir)
			return nil, fmt.Errorf("%w in %s", ErrFlowsMissing, l.dir)
		}
		if err != nil {
			l.logger.Error("flows table unreadable", "path", path, "error", err)
			return nil, err
		}
		flows, err := DecodeFlows(t)
		if err != nil {
			l.logger.Error("flows table malformed", "path", path, "error", err)
			return nil, &LoadError{Dataset: FlowsBase, Path: path, Err: err}
		}
		l.logger.Info("loaded flows", "path", path, "routes", flows.Len())
		return flows, nil
	})
}

// Migrations loads individual researcher records when available.
func (l *Loader) Migrations(ctx context.Context) Optional[[]Migration] {
	return optionalLoad(ctx, l, "load_migrations", MigrationsBase, func(t *parser.Table) ([]Migration, error) {
		return DecodeMigrations(t), nil
	})
}

// Indicators loads the long-format WDI table when available.
func (l *Loader) Indicators(ctx context.Context) Optional[[]IndicatorRow] {
	return optionalLoad(ctx, l, "load_wdi", IndicatorsBase, DecodeIndicators)
}

// Mapping loads the ISO2/ISO3 cross-reference when available.
func (l *Loader) Mapping(ctx context.Context) Optional[[]CountryCode] {
	return optionalLoad(ctx, l, "load_mapping", MappingBase, DecodeMapping)
}

// optionalLoad memoizes an optional table. Absence and decode failures are
// cached as None so the warning is logged once per window.
func optionalLoad[T any](ctx context.Context, l *Loader, fn, base string, decode func(*parser.Table) (T, error)) Optional[T] {
	opt, err := cache.Fetch(ctx, l.store, l.key(fn), func(ctx context.Context) (Optional[T], error) {
		t, path, ok, err := l.readTable(base)
		if !ok {
			l.logger.Warn("optional table missing", "table", base, "dir", l.dir)
			return None[T](fmt.Sprintf("%s not found (optional)", base)), nil
		}
		if err != nil {
			l.logger.Warn("optional table unreadable", "table", base, "error", err)
			return None[T](err.Error()), nil
		}
		v, err := decode(t)
		if err != nil {
			lerr := &LoadError{Dataset: base, Path: path, Err: err}
			l.logger.Warn("optional table malformed", "table", base, "error", lerr)
			return None[T](lerr.Error()), nil
		}
		l.logger.Debug("loaded optional table", "table", base, "path", path, "rows", t.Len())
		return Some(v), nil
	})
	if err != nil {
		return None[T](err.Error())
	}
	return opt
}

// LoadAll loads every table. The returned Bundle is itself memoized, so
// concurrent callers inside the window share one SnapshotID. The error is
// non-nil only when flows cannot be loaded.
func (l *Loader) LoadAll(ctx context.Context) (*Bundle, error) {
	return cache.Fetch(ctx, l.store, l.key("load_all"), func(ctx context.Context) (*Bundle, error) {
		flows, err := l.Flows(ctx)
		if err != nil {
			// unwrap the cached-failure envelope so callers see the root cause once
			var lf *cache.ErrLoadFailed
			if errors.As(err, &lf) {
				err = lf.Err
			}
			return nil, err
		}
		b := &Bundle{
			SnapshotID: uuid.NewString(),
			LoadedAt:   time.Now(),
			Dir:        l.dir,
			Flows:      flows,
			Migrations: l.Migrations(ctx),
			Indicators: l.Indicators(ctx),
			Mapping:    l.Mapping(ctx),
		}
		b.Notices = optionalNotices(b)
		return b, nil
	})
}

func optionalNotices(b *Bundle) []string {
	out := []string{}
	for _, st := range Status(b)[1:] {
		if !st.Present {
			out = append(out, st.Name+": "+st.Reason)
		}
	}
	return out
}
