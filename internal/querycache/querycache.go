// Package querycache caches the results of remote queries for a stale-time
// window, shares in-flight fetches between callers, and lets a caller stop
// waiting for a slow fetch without abandoning it.
package querycache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/retry"
)

var ErrClosed = errors.New("query cache is closed")

// Key identifies a query, e.g. {"products", "groceries"}.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

func (k Key) id() string {
	return strings.Join(k, "\x00")
}

type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

type Result[T any] struct {
	Data      T
	Status    Status
	Err       error
	UpdatedAt time.Time
	// Stale is set when Data is older than the stale time and a background
	// refetch has been started.
	Stale bool
}

func (r Result[T]) Pending() bool {
	return r.Status == StatusPending
}

type Fetcher[T any] func(ctx context.Context) (T, error)

type Options struct {
	StaleTime    time.Duration
	FetchTimeout time.Duration
	// ErrorTime is how long a failed fetch is reported to queries whose
	// wait runs out before the refetch ends.
	ErrorTime time.Duration
	Retry        retry.Config
	Now          func() time.Time
}

const (
	defaultStaleTime    = 5 * time.Minute
	defaultFetchTimeout = 30 * time.Second
	defaultErrorTime    = 30 * time.Second
)

func (o *Options) normalize() {
	if o.StaleTime <= 0 {
		o.StaleTime = defaultStaleTime
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = defaultFetchTimeout
	}
	if o.ErrorTime <= 0 {
		o.ErrorTime = defaultErrorTime
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type entry[T any] struct {
	data      T
	updatedAt time.Time
}

type failure struct {
	err error
	at  time.Time
}

type Cache[T any] struct {
	opts   Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group
	wg     sync.WaitGroup

	mu       sync.RWMutex
	closed   bool
	entries  map[string]entry[T]
	failures map[string]failure
}

func New[T any](name string, opts Options, log *zap.Logger) *Cache[T] {
	opts.normalize()
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache[T]{
		opts:     opts,
		log:      log.Named("querycache").With(zap.String("cache", name)),
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]entry[T]),
		failures: make(map[string]failure),
	}
}

// Query returns the cached result for key while it is fresh. A stale result
// is returned as is and refreshed in the background. Without a cached
// result Query fetches and waits up to wait for the answer (wait <= 0 waits
// until the fetch ends or ctx is done); when the wait runs out the result
// is pending and the fetch carries on, filling the cache. If the previous
// fetch for key failed within the error time, that error is returned instead
// of pending.
func (c *Cache[T]) Query(ctx context.Context, key Key, wait time.Duration, fetch Fetcher[T]) Result[T] {
	id := key.id()

	c.mu.RLock()
	e, ok := c.entries[id]
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return Result[T]{Status: StatusError, Err: ErrClosed}
	}

	if ok {
		res := Result[T]{Data: e.data, Status: StatusSuccess, UpdatedAt: e.updatedAt}
		if c.opts.Now().Sub(e.updatedAt) >= c.opts.StaleTime {
			c.log.Debug("revalidating", zap.Stringer("key", key))
			c.start(id, key, fetch)
			res.Stale = true
		}
		return res
	}

	ch := c.start(id, key, fetch)

	var timeout <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case r := <-ch:
		if r.Err != nil {
			return Result[T]{Status: StatusError, Err: r.Err}
		}
		e := r.Val.(entry[T])
		return Result[T]{Data: e.data, Status: StatusSuccess, UpdatedAt: e.updatedAt}
	case <-timeout:
		if err := c.recentFailure(id); err != nil {
			return Result[T]{Status: StatusError, Err: err}
		}
		return Result[T]{Status: StatusPending}
	case <-ctx.Done():
		return Result[T]{Status: StatusPending}
	}
}

func (c *Cache[T]) recentFailure(id string) error {
	c.mu.RLock()
	f, ok := c.failures[id]
	c.mu.RUnlock()

	if !ok || c.opts.Now().Sub(f.at) >= c.opts.ErrorTime {
		return nil
	}
	return f.err
}

func (c *Cache[T]) start(id string, key Key, fetch Fetcher[T]) <-chan singleflight.Result {
	return c.group.DoChan(id, func() (any, error) {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, ErrClosed
		}
		c.wg.Add(1)
		c.mu.Unlock()
		defer c.wg.Done()

		return c.fetch(id, key, fetch)
	})
}

func (c *Cache[T]) fetch(id string, key Key, fetch Fetcher[T]) (any, error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.FetchTimeout)
	defer cancel()

	start := c.opts.Now()
	data, err := retry.DoWithResult(ctx, c.opts.Retry, func() (T, error) {
		return fetch(ctx)
	})
	if err != nil {
		c.log.Warn("fetch failed", zap.Stringer("key", key), zap.Error(err))
		c.mu.Lock()
		c.failures[id] = failure{err: err, at: c.opts.Now()}
		c.mu.Unlock()
		return nil, err
	}

	e := entry[T]{data: data, updatedAt: c.opts.Now()}

	c.mu.Lock()
	c.entries[id] = e
	delete(c.failures, id)
	c.mu.Unlock()

	c.log.Debug("fetched", zap.Stringer("key", key), zap.Duration("took", e.updatedAt.Sub(start)))
	return e, nil
}

// Close cancels in-flight fetches and waits for them to return.
func (c *Cache[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
