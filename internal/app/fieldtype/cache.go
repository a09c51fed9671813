package fieldtype

import (
	"context"
	"sync"
)

// Cache memoizes the member type option list.
//
// A MemberTypeField keeps a long-lived Cache; WithCache installs a fresh one
// for the lifetime of a single request.
type Cache struct {
	mu      sync.Mutex
	loaded  bool
	options Options
}

func NewCache() *Cache { return &Cache{} }

// Reset drops the memoized list.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.options = nil
}

func (c *Cache) load(ctx context.Context, fill func(context.Context) (Options, error)) (Options, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.options.clone(), nil
	}
	opts, err := fill(ctx)
	if err != nil {
		return nil, err
	}
	c.options = opts.clone()
	c.loaded = true
	return opts, nil
}

type cacheKey struct{}

// WithCache returns a context carrying a new request-scoped Cache.
func WithCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheKey{}, NewCache())
}

func cacheFrom(ctx context.Context) (*Cache, bool) {
	c, ok := ctx.Value(cacheKey{}).(*Cache)
	return c, ok && c != nil
}
