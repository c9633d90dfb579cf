package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eduplatform-web/internal/notify"
	"eduplatform-web/internal/observability"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime     = 5 * time.Minute
	DefaultGCTime        = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Broadcaster forwards local invalidations to other instances
type Broadcaster interface {
	PublishInvalidation(ctx context.Context, prefix Key) error
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type entry struct {
	key       Key
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	// invalidatedSeq is the gateway sequence number of the last invalidation
	invalidatedSeq uint64
	stale          bool
	lastAccess     time.Time
	gcTime         time.Duration
	fetching       int
	observers      map[int]func()
}

// Gateway is the request cache. Build one per process with New and pass it
// to whoever issues queries.
type Gateway struct {
	now           func() time.Time
	sleep         SleepFunc
	notifier      notify.Notifier
	broadcaster   Broadcaster
	logger        *slog.Logger
	staleTime     time.Duration
	gcTime        time.Duration
	sweepInterval time.Duration

	flights singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64
	epoch   uint64
	nextObs int
}

// Option configures a Gateway
type Option func(*Gateway)

func WithClock(now func() time.Time) Option { return func(g *Gateway) { g.now = now } }

// WithSleep replaces the wait between retries
func WithSleep(sleep SleepFunc) Option { return func(g *Gateway) { g.sleep = sleep } }

func WithNotifier(n notify.Notifier) Option { return func(g *Gateway) { g.notifier = n } }

func WithBroadcaster(b Broadcaster) Option { return func(g *Gateway) { g.broadcaster = b } }

func WithLogger(l *slog.Logger) Option { return func(g *Gateway) { g.logger = l } }

// WithStaleTime sets the default time a result stays fresh
func WithStaleTime(d time.Duration) Option { return func(g *Gateway) { g.staleTime = d } }

// WithGCTime sets the default retention of unobserved entries
func WithGCTime(d time.Duration) Option { return func(g *Gateway) { g.gcTime = d } }

func WithSweepInterval(d time.Duration) Option { return func(g *Gateway) { g.sweepInterval = d } }

// New creates a Gateway
func New(opts ...Option) *Gateway {
	g := &Gateway{
		now:           time.Now,
		sleep:         sleepContext,
		notifier:      notify.Discard,
		logger:        observability.Logger(),
		staleTime:     DefaultStaleTime,
		gcTime:        DefaultGCTime,
		sweepInterval: DefaultSweepInterval,
		entries:       make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetBroadcaster installs b after construction, for wiring cycles where the
// broadcaster itself needs the gateway.
func (g *Gateway) SetBroadcaster(b Broadcaster) {
	g.mu.Lock()
	g.broadcaster = b
	g.mu.Unlock()
}

// entryLocked returns the entry for key, creating it. Caller holds g.mu.
func (g *Gateway) entryLocked(key Key) *entry {
	id := key.String()
	e, ok := g.entries[id]
	if !ok {
		e = &entry{key: key, gcTime: g.gcTime, observers: make(map[int]func())}
		g.entries[id] = e
		observability.CacheEntries.Set(float64(len(g.entries)))
	}
	e.lastAccess = g.now()
	return e
}

func (g *Gateway) isFresh(e *entry, staleTime time.Duration) bool {
	if !e.hasData || e.stale || staleTime < 0 {
		return false
	}
	return g.now().Sub(e.updatedAt) < staleTime
}

// fetch runs fn for key through a shared flight. Concurrent callers for the
// same key share one network call; the flight is detached from the caller's
// cancellation and keeps running if every caller leaves.
func (g *Gateway) fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	id := key.String()
	ch := g.flights.DoChan(id, func() (any, error) {
		return g.runFlight(context.WithoutCancel(ctx), key, fn)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Gateway) runFlight(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	domainName := key.Domain()

	g.mu.Lock()
	e := g.entryLocked(key)
	e.fetching++
	startSeq := g.seq
	epoch := g.epoch
	g.mu.Unlock()

	var (
		val      any
		err      error
		failures int
	)
	for {
		val, err = fn(ctx)
		if err == nil {
			break
		}
		failures++
		decision := Retry(failures, err)
		if !decision.Retry {
			break
		}
		observability.CacheRetriesTotal.WithLabelValues(domainName).Inc()
		observability.FromContext(ctx).Debug("Retrying query",
			"key", key.String(), "failures", failures, "delay", decision.Delay, "error", err)
		if sleepErr := g.sleep(ctx, decision.Delay); sleepErr != nil {
			break
		}
	}

	g.mu.Lock()
	e.fetching--
	current, live := g.entries[key.String()]
	if live && current == e && g.epoch == epoch {
		if err == nil {
			e.data = val
			e.hasData = true
			e.err = nil
			e.updatedAt = g.now()
			// An invalidation that raced with this flight keeps the entry stale
			e.stale = e.invalidatedSeq > startSeq
		} else {
			e.err = err
		}
	}
	g.mu.Unlock()

	if err != nil {
		observability.CacheFetchesTotal.WithLabelValues(domainName, "error").Inc()
		observability.FromContext(ctx).Warn("Query failed", "key", key.String(), "attempts", failures, "error", err)
		if n, ok := notify.FromQueryError(err); ok {
			g.notifier.Notify(ctx, n)
		}
		return nil, err
	}
	observability.CacheFetchesTotal.WithLabelValues(domainName, "success").Inc()
	return val, nil
}

// Invalidate marks every entry whose key starts with prefix as stale.
// Observed entries refetch in the background. The invalidation is forwarded
// to the broadcaster when one is set. It returns the number of entries hit.
func (g *Gateway) Invalidate(ctx context.Context, prefix Key) int {
	n := g.invalidate(prefix, false, "local")

	g.mu.Lock()
	b := g.broadcaster
	g.mu.Unlock()
	if b != nil {
		if err := b.PublishInvalidation(ctx, prefix); err != nil {
			observability.FromContext(ctx).Warn("Failed to broadcast invalidation", "prefix", prefix.String(), "error", err)
		}
	}
	return n
}

// InvalidateExact marks only the entry for key as stale
func (g *Gateway) InvalidateExact(ctx context.Context, key Key) int {
	return g.invalidate(key, true, "local")
}

// ApplyRemoteInvalidation applies an invalidation received from another
// instance. It is never re-broadcast.
func (g *Gateway) ApplyRemoteInvalidation(prefix Key) int {
	return g.invalidate(prefix, false, "remote")
}

func (g *Gateway) invalidate(prefix Key, exact bool, origin string) int {
	g.mu.Lock()
	g.seq++
	var hooks []func()
	hit := 0
	for _, e := range g.entries {
		if exact && !e.key.Equal(prefix) || !exact && !e.key.HasPrefix(prefix) {
			continue
		}
		hit++
		e.stale = true
		e.invalidatedSeq = g.seq
		observability.CacheInvalidationsTotal.WithLabelValues(e.key.Domain(), origin).Inc()
		for _, hook := range e.observers {
			hooks = append(hooks, hook)
		}
	}
	g.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	return hit
}

// SetData writes data into the entry for key as a fresh result
func SetData[T any](g *Gateway, key Key, data T) {
	g.mu.Lock()
	e := g.entryLocked(key)
	e.data = data
	e.hasData = true
	e.err = nil
	e.stale = false
	e.updatedAt = g.now()
	hooks := make([]func(), 0, len(e.observers))
	for _, hook := range e.observers {
		hooks = append(hooks, hook)
	}
	g.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

// GetData returns the cached data for key, if any
func GetData[T any](g *Gateway, key Key) (T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var zero T
	e, ok := g.entries[key.String()]
	if !ok || !e.hasData {
		return zero, false
	}
	v, ok := e.data.(T)
	return v, ok
}

// Clear drops every cached result. Observed entries stay registered but
// lose their data, and their observers are told so they can reload. Flights
// still running when Clear is called do not repopulate the cache, and
// queries issued after it start their own flight instead of joining them.
func (g *Gateway) Clear() {
	g.mu.Lock()
	g.epoch++
	var hooks []func()
	for id, e := range g.entries {
		g.flights.Forget(id)
		if len(e.observers) == 0 {
			delete(g.entries, id)
			continue
		}
		e.data, e.hasData, e.err, e.stale = nil, false, nil, false
		for _, hook := range e.observers {
			hooks = append(hooks, hook)
		}
	}
	observability.CacheEntries.Set(float64(len(g.entries)))
	g.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

// Len returns the number of entries
func (g *Gateway) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Sweep evicts entries that are unobserved, idle and older than their GC
// time. It returns the number evicted.
func (g *Gateway) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	evicted := 0
	for id, e := range g.entries {
		if len(e.observers) > 0 || e.fetching > 0 {
			continue
		}
		if now.Sub(e.lastAccess) >= e.gcTime {
			delete(g.entries, id)
			evicted++
		}
	}
	observability.CacheEntries.Set(float64(len(g.entries)))
	return evicted
}

// Run sweeps periodically until ctx is done
func (g *Gateway) Run(ctx context.Context) {
	ticker := time.NewTicker(g.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := g.Sweep(); n > 0 {
				g.logger.Debug("Evicted idle cache entries", "count", n)
			}
		}
	}
}

func (g *Gateway) observe(key Key, hook func()) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextObs++
	e := g.entryLocked(key)
	e.observers[g.nextObs] = hook
	return g.nextObs
}

func (g *Gateway) unobserve(key Key, id int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[key.String()]; ok {
		delete(e.observers, id)
		e.lastAccess = g.now()
	}
}

func typeMismatch[T any](key Key, v any) error {
	var zero T
	return fmt.Errorf("querycache: entry %s holds %T, want %T", key.String(), v, zero)
}
