package querycache

import (
	"context"
	"time"

	"eduplatform-web/internal/notify"
	"eduplatform-web/internal/observability"
)

// Status is the state of a query result
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Result is what a query resolves to. Expected failures are reported through
// Status and Err, never by panicking. On error, Data may still hold the last
// good result with IsStale set.
type Result[T any] struct {
	Status        Status
	Data          T
	HasData       bool
	Err           error
	IsStale       bool
	IsPlaceholder bool
	UpdatedAt     time.Time
}

// QueryOptions tune a single query. Zero durations use the gateway defaults;
// a negative StaleTime makes every lookup refetch.
type QueryOptions struct {
	StaleTime time.Duration
	GCTime    time.Duration
	// Enabled gates the query. A disabled query resolves to StatusIdle
	// without touching the network.
	Enabled func() bool
	// KeepPreviousData makes an Observer show the previous key's data while
	// a new key loads
	KeepPreviousData bool
}

func (o QueryOptions) enabled() bool {
	return o.Enabled == nil || o.Enabled()
}

func (o QueryOptions) staleTime(g *Gateway) time.Duration {
	if o.StaleTime == 0 {
		return g.staleTime
	}
	return o.StaleTime
}

// Query returns the cached result for key when it is fresh, and otherwise
// fetches it (sharing the flight with any concurrent caller for the same key,
// with retries per Retry). Only the terminal failure of a flight notifies.
func Query[T any](ctx context.Context, g *Gateway, key Key, fetch func(context.Context) (T, error), opts QueryOptions) Result[T] {
	return query(ctx, g, key, fetch, opts, false)
}

func query[T any](ctx context.Context, g *Gateway, key Key, fetch func(context.Context) (T, error), opts QueryOptions, force bool) Result[T] {
	domainName := key.Domain()

	if !opts.enabled() {
		observability.CacheLookupsTotal.WithLabelValues(domainName, "disabled").Inc()
		return Result[T]{Status: StatusIdle}
	}

	g.mu.Lock()
	e := g.entryLocked(key)
	if opts.GCTime > 0 {
		e.gcTime = opts.GCTime
	}
	if !force && g.isFresh(e, opts.staleTime(g)) {
		data, updatedAt := e.data, e.updatedAt
		g.mu.Unlock()

		observability.CacheLookupsTotal.WithLabelValues(domainName, "hit").Inc()
		v, ok := data.(T)
		if !ok {
			return Result[T]{Status: StatusError, Err: typeMismatch[T](key, data)}
		}
		return Result[T]{Status: StatusSuccess, Data: v, HasData: true, UpdatedAt: updatedAt}
	}

	prev, hadData := e.data.(T)
	hadData = hadData && e.hasData
	prevAt := e.updatedAt
	g.mu.Unlock()

	if hadData {
		observability.CacheLookupsTotal.WithLabelValues(domainName, "stale").Inc()
	} else {
		observability.CacheLookupsTotal.WithLabelValues(domainName, "miss").Inc()
	}

	val, err := g.fetch(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		r := Result[T]{Status: StatusError, Err: err}
		if hadData {
			r.Data, r.HasData, r.IsStale, r.UpdatedAt = prev, true, true, prevAt
		}
		return r
	}

	v, ok := val.(T)
	if !ok {
		return Result[T]{Status: StatusError, Err: typeMismatch[T](key, val)}
	}
	return Result[T]{Status: StatusSuccess, Data: v, HasData: true, UpdatedAt: g.now()}
}

// MutationOptions are the callbacks of a mutation
type MutationOptions[T any] struct {
	// OnSuccess runs before Mutate returns, so invalidations it issues are
	// visible to the caller
	OnSuccess func(ctx context.Context, result T)
	// OnError runs after the failure notification
	OnError func(ctx context.Context, err error)
	// ErrorTitle replaces the generic title when the server gives no message
	ErrorTitle string
	// Unauthorized, when set, is the description of the toast shown for a
	// 401. Endpoints that check the credentials they are sent set it.
	Unauthorized string
	// Success, when set, produces the success toast
	Success func(result T) notify.Notification
}

// Mutate runs a write exactly once. Writes are never retried since they may
// not be idempotent.
func Mutate[T any](ctx context.Context, g *Gateway, fetch func(context.Context) (T, error), opts MutationOptions[T]) (T, error) {
	result, err := fetch(ctx)
	if err != nil {
		observability.MutationsTotal.WithLabelValues("error").Inc()
		observability.FromContext(ctx).Warn("Mutation failed", "error", err)

		title := notify.MutationFallbackTitle
		if opts.ErrorTitle != "" {
			title = opts.ErrorTitle
		}
		var (
			n  notify.Notification
			ok bool
		)
		if opts.Unauthorized != "" {
			n, ok = notify.FromRejectedCredentials(err, title, opts.Unauthorized)
		} else {
			n, ok = notify.FromError(err, title)
		}
		if ok {
			n.Duration = notify.MutationErrorDuration
			g.notifier.Notify(ctx, n)
		}
		if opts.OnError != nil {
			opts.OnError(ctx, err)
		}
		var zero T
		return zero, err
	}

	observability.MutationsTotal.WithLabelValues("success").Inc()
	if opts.OnSuccess != nil {
		opts.OnSuccess(ctx, result)
	}
	if opts.Success != nil {
		g.notifier.Notify(ctx, opts.Success(result))
	}
	return result, nil
}
