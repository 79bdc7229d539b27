package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"storefront/internal/retry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, clk *clock) *Cache[string] {
	t.Helper()
	opts := Options{
		StaleTime:    5 * time.Minute,
		FetchTimeout: time.Second,
		Retry:        retry.Config{MaxAttempts: 1},
	}
	if clk != nil {
		opts.Now = clk.Now
	}
	c := New[string]("test", opts, zap.NewNop())
	t.Cleanup(c.Close)
	return c
}

func countingFetcher(calls *atomic.Int32, value string) Fetcher[string] {
	return func(context.Context) (string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestQueryReusesFreshResult(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(t, clk)
	var calls atomic.Int32

	res := c.Query(context.Background(), Key{"product", "1"}, 0, countingFetcher(&calls, "soap"))
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "soap", res.Data)

	clk.Advance(4*time.Minute + 59*time.Second)

	res = c.Query(context.Background(), Key{"product", "1"}, 0, countingFetcher(&calls, "other"))
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "soap", res.Data)
	assert.False(t, res.Stale)
	assert.EqualValues(t, 1, calls.Load())
}

func TestQueryKeysAreIndependent(t *testing.T) {
	c := newTestCache(t, nil)
	var calls atomic.Int32

	all := c.Query(context.Background(), Key{"products"}, 0, countingFetcher(&calls, "all"))
	groceries := c.Query(context.Background(), Key{"products", "groceries"}, 0, countingFetcher(&calls, "groceries"))

	assert.Equal(t, "all", all.Data)
	assert.Equal(t, "groceries", groceries.Data)
	assert.EqualValues(t, 2, calls.Load())
}

func TestQueryRevalidatesStaleResult(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(t, clk)
	var calls atomic.Int32

	c.Query(context.Background(), Key{"products"}, 0, countingFetcher(&calls, "v1"))
	clk.Advance(5 * time.Minute)

	res := c.Query(context.Background(), Key{"products"}, 0, countingFetcher(&calls, "v2"))
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "v1", res.Data)
	assert.True(t, res.Stale)

	assert.Eventually(t, func() bool {
		r := c.Query(context.Background(), Key{"products"}, 0, countingFetcher(&calls, "v2"))
		return r.Data == "v2"
	}, time.Second, 5*time.Millisecond)
}

func TestQueryPendingKeepsFetching(t *testing.T) {
	c := newTestCache(t, nil)
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		select {
		case <-release:
			return "ready", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	res := c.Query(context.Background(), Key{"product", "slow"}, 10*time.Millisecond, fetch)
	assert.True(t, res.Pending())

	close(release)

	assert.Eventually(t, func() bool {
		r := c.Query(context.Background(), Key{"product", "slow"}, 10*time.Millisecond, fetch)
		return r.Status == StatusSuccess && r.Data == "ready"
	}, time.Second, 5*time.Millisecond)
}

func TestQuerySharesInFlightFetch(t *testing.T) {
	c := newTestCache(t, nil)
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		select {
		case <-release:
			return "shared", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	first := c.Query(context.Background(), Key{"products"}, time.Millisecond, fetch)
	require.True(t, first.Pending())

	var wg sync.WaitGroup
	results := make([]Result[string], 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Query(context.Background(), Key{"products"}, 0, fetch)
		}()
	}

	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, StatusSuccess, r.Status)
		assert.Equal(t, "shared", r.Data)
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestQueryErrorIsNotCached(t *testing.T) {
	c := newTestCache(t, nil)
	boom := errors.New("boom")
	var calls atomic.Int32
	failing := func(context.Context) (string, error) {
		calls.Add(1)
		return "", boom
	}

	res := c.Query(context.Background(), Key{"products"}, 0, failing)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, boom)

	res = c.Query(context.Background(), Key{"products"}, 0, countingFetcher(&calls, "ok"))
	assert.Equal(t, StatusSuccess, res.Status)
	assert.EqualValues(t, 2, calls.Load())
}

func TestQuerySlowRefetchReportsRecentFailure(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(t, clk)
	key := Key{"product", "flaky"}
	boom := errors.New("upstream 503")

	res := c.Query(context.Background(), key, 0, func(context.Context) (string, error) {
		return "", boom
	})
	require.Equal(t, StatusError, res.Status)

	release := make(chan struct{})
	defer close(release)
	var calls atomic.Int32
	slow := func(ctx context.Context) (string, error) {
		calls.Add(1)
		select {
		case <-release:
			return "", boom
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	res = c.Query(context.Background(), key, 10*time.Millisecond, slow)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, boom)
	assert.EqualValues(t, 1, calls.Load())

	clk.Advance(31 * time.Second)

	res = c.Query(context.Background(), key, 10*time.Millisecond, slow)
	assert.True(t, res.Pending())
}

func TestQueryRetriesFetch(t *testing.T) {
	c := New[string]("retry", Options{
		FetchTimeout: time.Second,
		Retry:        retry.Config{MaxAttempts: 3, Backoff: retry.ConstantBackoff(time.Millisecond)},
	}, zap.NewNop())
	t.Cleanup(c.Close)

	var calls atomic.Int32
	res := c.Query(context.Background(), Key{"products"}, 0, func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})

	assert.Equal(t, StatusSuccess, res.Status)
	assert.EqualValues(t, 3, calls.Load())
}

func TestQueryCallerCancelled(t *testing.T) {
	c := newTestCache(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Query(ctx, Key{"products"}, 0, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	assert.True(t, res.Pending())
}

func TestCloseCancelsFetches(t *testing.T) {
	c := New[string]("close", Options{Retry: retry.Config{MaxAttempts: 1}}, zap.NewNop())

	started := make(chan struct{})
	res := c.Query(context.Background(), Key{"products"}, time.Millisecond, func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})
	require.True(t, res.Pending())
	<-started

	c.Close()

	res = c.Query(context.Background(), Key{"products"}, 0, func(context.Context) (string, error) {
		t.Fatal("must not fetch after close")
		return "", nil
	})
	assert.ErrorIs(t, res.Err, ErrClosed)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "products/groceries", Key{"products", "groceries"}.String())
	assert.NotEqual(t, Key{"a/b"}.id(), Key{"a", "b"}.id())
}
