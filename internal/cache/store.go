// Package cache memoizes expensive, idempotent loads for a bounded window.
//
// A Store is constructed once per process and handed to whoever needs it;
// there is no package-level instance. Concurrent first access to a key runs
// the load function once and every caller observes the same value. A failed
// load is remembered for the same window, so callers get the cached failure
// instead of re-reading storage until the entry expires or is invalidated.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL matches the one-hour memoization window of the dashboard.
const DefaultTTL = time.Hour

// LoadFunc produces the value for a key.
type LoadFunc func(ctx context.Context) (any, error)

// Options configures a Store.
type Options struct {
	// TTL is how long values and failures stay cached. Zero disables expiry.
	TTL time.Duration
	// Now is the clock used for expiry decisions.
	Now func() time.Time
	// Logger receives debug-level hit/miss events.
	Logger *slog.Logger
}

// Option is a functional option for configuring a Store.
type Option func(*Options)

// WithTTL sets the memoization window.
func WithTTL(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.TTL = d
		}
	}
}

// WithClock overrides the clock; used by tests to step through expiry.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

type entry struct {
	value    any
	err      error
	storedAt time.Time
}

// Store is a keyed memo table with TTL eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	flight  singleflight.Group
	opts    Options

	hits, misses, loads, failures int64
}

// New creates a Store.
func New(opts ...Option) *Store {
	o := Options{TTL: DefaultTTL, Now: time.Now, Logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{entries: make(map[string]*entry), opts: o}
}

// ErrLoadFailed is returned while a failed load is still inside its window.
type ErrLoadFailed struct {
	Key      string
	Err      error
	FailedAt time.Time
	RetryAt  time.Time
}

func (e *ErrLoadFailed) Error() string {
	return fmt.Sprintf("load %s failed at %s (cached until %s): %v",
		e.Key, e.FailedAt.Format(time.RFC3339), e.RetryAt.Format(time.RFC3339), e.Err)
}

func (e *ErrLoadFailed) Unwrap() error { return e.Err }

// GetOrLoad returns the cached value for key, calling load at most once per
// window across all concurrent callers.
func (s *Store) GetOrLoad(ctx context.Context, key string, load LoadFunc) (any, error) {
	if e := s.lookup(key); e != nil {
		return s.served(key, e)
	}

	v, err, shared := s.flight.Do(key, func() (any, error) {
		// Another caller may have stored the entry between lookup and Do.
		if e := s.lookup(key); e != nil {
			return e.value, e.err
		}
		s.count(&s.misses)
		requestsTotal.WithLabelValues("miss").Inc()
		s.opts.Logger.Debug("cache miss", "key", key)

		value, err := load(ctx)
		now := s.opts.Now()
		s.count(&s.loads)
		loadsTotal.Inc()
		if err != nil {
			s.count(&s.failures)
			requestsTotal.WithLabelValues("error").Inc()
			err = &ErrLoadFailed{Key: key, Err: err, FailedAt: now, RetryAt: s.expiry(now)}
		}
		s.mu.Lock()
		s.entries[key] = &entry{value: value, err: err, storedAt: now}
		s.mu.Unlock()
		return value, err
	})
	if shared {
		s.opts.Logger.Debug("cache load shared", "key", key)
	}
	return v, err
}

func (s *Store) served(key string, e *entry) (any, error) {
	if e.err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		return nil, e.err
	}
	s.count(&s.hits)
	requestsTotal.WithLabelValues("hit").Inc()
	s.opts.Logger.Debug("cache hit", "key", key)
	return e.value, nil
}

func (s *Store) lookup(key string) *entry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.expired(e) {
		s.mu.Lock()
		// Only drop the entry we saw; a fresh one may have replaced it.
		if cur, ok := s.entries[key]; ok && cur == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil
	}
	return e
}

func (s *Store) expired(e *entry) bool {
	if s.opts.TTL == 0 {
		return false
	}
	return !s.opts.Now().Before(e.storedAt.Add(s.opts.TTL))
}

func (s *Store) expiry(from time.Time) time.Time {
	if s.opts.TTL == 0 {
		return time.Time{}
	}
	return from.Add(s.opts.TTL)
}

// Invalidate drops key so the next access reloads it.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Purge drops every entry and returns how many were removed.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]*entry)
	return n
}

// TTL reports the configured window.
func (s *Store) TTL() time.Duration { return s.opts.TTL }

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	Entries  int   `json:"entries"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Loads    int64 `json:"loads"`
	Failures int64 `json:"failures"`
	TTLSec   int64 `json:"ttl_sec"`
}

// Stats returns current counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Entries:  len(s.entries),
		Hits:     s.hits,
		Misses:   s.misses,
		Loads:    s.loads,
		Failures: s.failures,
		TTLSec:   int64(s.TTL() / time.Second),
	}
}

func (s *Store) count(c *int64) {
	s.mu.Lock()
	*c++
	s.mu.Unlock()
}

// Fetch is the typed form of GetOrLoad.
func Fetch[T any](ctx context.Context, s *Store, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := s.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %s holds %T, not %T", key, v, zero)
	}
	return t, nil
}
