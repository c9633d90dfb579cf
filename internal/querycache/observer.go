package querycache

import (
	"context"
	"sync"
)

// Observer is a long-lived subscription to one query at a time, the way a
// mounted view follows its data. While an Observer watches a key the entry
// is never evicted, and invalidating it triggers a background refetch.
type Observer[T any] struct {
	g      *Gateway
	opts   QueryOptions
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	key     Key
	fetch   func(context.Context) (T, error)
	hasKey  bool
	obsID   int
	result  Result[T]
	loadSeq uint64
	done    chan struct{}
	closed  bool
}

// Observe creates an Observer. Background loads inherit the values of ctx
// but not its cancellation; Close stops them.
func Observe[T any](ctx context.Context, g *Gateway, opts QueryOptions) *Observer[T] {
	octx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Observer[T]{
		g:      g,
		opts:   opts,
		ctx:    octx,
		cancel: cancel,
		result: Result[T]{Status: StatusIdle},
	}
}

// SetKey points the observer at key and starts loading it. With
// KeepPreviousData the previous key's data stays visible, flagged as a
// placeholder, until the new key resolves.
func (o *Observer[T]) SetKey(key Key, fetch func(context.Context) (T, error)) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if o.hasKey && o.key.Equal(key) {
		o.fetch = fetch
		o.mu.Unlock()
		return
	}

	oldKey, oldID, hadKey := o.key, o.obsID, o.hasKey
	o.key, o.fetch, o.hasKey = key, fetch, true
	if o.opts.KeepPreviousData && o.result.HasData {
		o.result.IsPlaceholder = true
		o.result.Err = nil
		o.result.Status = StatusSuccess
	} else {
		o.result = Result[T]{Status: StatusLoading}
	}
	o.mu.Unlock()

	if hadKey {
		o.g.unobserve(oldKey, oldID)
	}
	id := o.g.observe(key, func() { o.onChange(key) })

	o.mu.Lock()
	o.obsID = id
	o.mu.Unlock()

	o.startLoad(false)
}

func (o *Observer[T]) onChange(key Key) {
	o.mu.Lock()
	current := o.hasKey && o.key.Equal(key) && !o.closed
	o.mu.Unlock()
	if current {
		o.startLoad(false)
	}
}

// startLoad resolves the current key in the background. A newer load
// supersedes an older one; results arriving after Close are dropped.
func (o *Observer[T]) startLoad(force bool) {
	o.mu.Lock()
	if o.closed || !o.hasKey {
		o.mu.Unlock()
		return
	}
	if !o.opts.enabled() {
		o.result = Result[T]{Status: StatusIdle}
		o.mu.Unlock()
		return
	}

	o.loadSeq++
	seq := o.loadSeq
	done := make(chan struct{})
	o.done = done
	key, fetch := o.key, o.fetch
	o.mu.Unlock()

	go func() {
		defer close(done)
		r := query(o.ctx, o.g, key, fetch, o.opts, force)

		o.mu.Lock()
		defer o.mu.Unlock()
		if o.closed || seq != o.loadSeq {
			return
		}
		o.result = r
	}()
}

// Current returns the latest result
func (o *Observer[T]) Current() Result[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Key returns the observed key
func (o *Observer[T]) Key() Key {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.key
}

// Wait blocks until no load is in progress, then returns the current result
func (o *Observer[T]) Wait(ctx context.Context) Result[T] {
	for {
		o.mu.Lock()
		done := o.done
		o.mu.Unlock()

		if done == nil {
			return o.Current()
		}
		select {
		case <-done:
		case <-ctx.Done():
			r := o.Current()
			if r.Err == nil && r.Status == StatusLoading {
				r.Err = ctx.Err()
			}
			return r
		}

		o.mu.Lock()
		settled := o.done == done
		o.mu.Unlock()
		if settled {
			return o.Current()
		}
	}
}

// Refetch reloads the current key, bypassing freshness, and waits for it
func (o *Observer[T]) Refetch(ctx context.Context) Result[T] {
	o.startLoad(true)
	return o.Wait(ctx)
}

// Close stops observing. The entry becomes eligible for eviction after its
// GC time.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	key, id, hadKey := o.key, o.obsID, o.hasKey
	o.mu.Unlock()

	o.cancel()
	if hadKey {
		o.g.unobserve(key, id)
	}
}
