package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher loads the authoritative value of a query.
type Fetcher func(ctx context.Context) (any, error)

// RefetchFunc reloads the query addressed by key after it was invalidated.
type RefetchFunc func(ctx context.Context, key Key) (any, error)

// ErrFetchCancelled marks a shared load that CancelQueries cancelled
// before it completed. Fetch never returns it.
var ErrFetchCancelled = errors.New("query fetch cancelled")

type entry struct {
	key       Key
	value     any
	stale     bool
	updatedAt time.Time
}

type inflight struct {
	key       Key
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled bool
}

type refetcher struct {
	prefix Key
	fn     RefetchFunc
}

// QueryClient is the shared query cache. It is safe for concurrent use;
// writers replace whole entries and never merge fields of two writers.
type QueryClient struct {
	mu         sync.Mutex
	entries    *LRUCache[*entry]
	group      singleflight.Group
	inflight   map[string]*inflight
	refetchers []refetcher
	logger     *slog.Logger

	refetchTimeout time.Duration
	background     sync.WaitGroup
}

// QueryClientConfig configures a QueryClient.
type QueryClientConfig struct {
	MaxEntries     int
	TTL            time.Duration
	RefetchTimeout time.Duration
	Logger         *slog.Logger
}

// DefaultQueryClientConfig returns sensible defaults
func DefaultQueryClientConfig() QueryClientConfig {
	return QueryClientConfig{
		MaxEntries:     500,
		TTL:            10 * time.Minute,
		RefetchTimeout: 7 * time.Second,
	}
}

// NewQueryClient creates an empty query cache.
func NewQueryClient(cfg QueryClientConfig) *QueryClient {
	def := DefaultQueryClientConfig()
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.RefetchTimeout <= 0 {
		cfg.RefetchTimeout = def.RefetchTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &QueryClient{
		entries:        NewLRUCache[*entry](cfg.MaxEntries, cfg.TTL),
		inflight:       make(map[string]*inflight),
		logger:         cfg.Logger.With("component", "cache"),
		refetchTimeout: cfg.RefetchTimeout,
	}
}

// GetQueryData returns the cached value of key, stale or not.
func (c *QueryClient) GetQueryData(key Key) (any, bool) {
	e, ok := c.entries.Get(key.String())
	if !ok {
		return nil, false
	}
	return e.value, true
}

// SetQueryData replaces the cached value of key. The entry becomes fresh.
func (c *QueryClient) SetQueryData(key Key, value any) {
	c.entries.Set(key.String(), &entry{key: key, value: value, updatedAt: time.Now()})
}

// RemoveQueryData drops the entry of key.
func (c *QueryClient) RemoveQueryData(key Key) {
	c.entries.Delete(key.String())
}

// RemoveQueries drops every entry whose key starts with prefix.
func (c *QueryClient) RemoveQueries(prefix Key) int {
	return c.entries.DeleteFunc(func(_ string, e *entry) bool {
		return e.key.HasPrefix(prefix)
	})
}

// IsStale reports whether key is cached but was invalidated since.
func (c *QueryClient) IsStale(key Key) bool {
	e, ok := c.entries.Get(key.String())
	return ok && e.stale
}

// Fetch returns the fresh cached value of key or loads it with fetcher.
// Concurrent fetches of the same key share one load, which runs detached
// from any single caller and is bounded by the refetch timeout. A load
// cancelled through CancelQueries is not cached; its callers get whatever
// the canceller left in the cache, or an uncached read when that is empty.
func (c *QueryClient) Fetch(ctx context.Context, key Key, fetcher Fetcher) (any, error) {
	id := key.String()
	if e, ok := c.entries.Get(id); ok && !e.stale {
		return e.value, nil
	}

	ch := c.group.DoChan(id, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refetchTimeout)
		defer cancel()
		return c.load(loadCtx, key, fetcher)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if !errors.Is(res.Err, ErrFetchCancelled) {
		return res.Val, res.Err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v, ok := c.GetQueryData(key); ok {
		return v, nil
	}
	c.logger.DebugContext(ctx, "Reading cancelled query without caching", "key", id)
	return fetcher(ctx)
}

func (c *QueryClient) load(ctx context.Context, key Key, fetcher Fetcher) (any, error) {
	id := key.String()
	fetchCtx, cancel := context.WithCancel(ctx)
	state := &inflight{key: key, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	c.inflight[id] = state
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		if c.inflight[id] == state {
			delete(c.inflight, id)
		}
		c.mu.Unlock()
		close(state.done)
	}()

	value, err := fetcher(fetchCtx)

	c.mu.Lock()
	cancelled := state.cancelled
	if err == nil && !cancelled {
		c.entries.Set(id, &entry{key: key, value: value, updatedAt: time.Now()})
	}
	c.mu.Unlock()

	if cancelled {
		c.logger.DebugContext(ctx, "Discarded cancelled fetch", "key", id)
		return value, ErrFetchCancelled
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// CancelQueries cancels every in-flight fetch whose key starts with prefix
// and waits until those fetches have returned, so that none of them can
// overwrite data written after this call.
func (c *QueryClient) CancelQueries(ctx context.Context, prefix Key) error {
	c.mu.Lock()
	var waiting []*inflight
	for id, state := range c.inflight {
		if !state.key.HasPrefix(prefix) {
			continue
		}
		state.cancelled = true
		state.cancel()
		c.group.Forget(id)
		waiting = append(waiting, state)
	}
	c.mu.Unlock()

	for _, state := range waiting {
		select {
		case <-state.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if len(waiting) > 0 {
		c.logger.DebugContext(ctx, "Cancelled in-flight queries", "prefix", prefix.String(), "count", len(waiting))
	}
	return nil
}

// RegisterRefetch installs a loader used to refresh invalidated entries
// under prefix in the background.
func (c *QueryClient) RegisterRefetch(prefix Key, fn RefetchFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refetchers = append(c.refetchers, refetcher{prefix: prefix, fn: fn})
}

// InvalidateQueries marks every entry whose key starts with prefix as
// stale and schedules a background refetch for those with a registered
// loader. It returns the number of invalidated entries.
func (c *QueryClient) InvalidateQueries(prefix Key) int {
	var keys []Key
	for _, id := range c.entries.Keys() {
		c.entries.Update(id, func(e *entry) *entry {
			if !e.key.HasPrefix(prefix) {
				return e
			}
			keys = append(keys, e.key)
			return &entry{key: e.key, value: e.value, stale: true, updatedAt: e.updatedAt}
		})
	}

	c.mu.Lock()
	refetchers := append([]refetcher(nil), c.refetchers...)
	c.mu.Unlock()

	for _, key := range keys {
		for _, r := range refetchers {
			if !key.HasPrefix(r.prefix) {
				continue
			}
			c.scheduleRefetch(key, r.fn)
			break
		}
	}
	return len(keys)
}

func (c *QueryClient) scheduleRefetch(key Key, fn RefetchFunc) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.refetchTimeout)
		defer cancel()
		_, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
			return fn(ctx, key)
		})
		if err != nil {
			c.logger.Warn("Background refetch failed", "key", key.String(), "error", err)
		}
	}()
}

// Wait blocks until every scheduled background refetch has finished.
func (c *QueryClient) Wait() {
	c.background.Wait()
}

// CleanExpired implements Cleaner.
func (c *QueryClient) CleanExpired() int {
	return c.entries.CleanExpired()
}

// Size returns the number of cached entries.
func (c *QueryClient) Size() int {
	return c.entries.Size()
}

// GetTyped returns the cached value of key when it has type T.
func GetTyped[T any](c *QueryClient, key Key) (T, bool) {
	var zero T
	v, ok := c.GetQueryData(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// FetchTyped is Fetch for loaders returning T.
func FetchTyped[T any](ctx context.Context, c *QueryClient, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.New("cached value has unexpected type for key " + key.String())
	}
	return t, nil
}
