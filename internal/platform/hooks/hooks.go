// Package hooks provides typed extension points.
//
// A Chain is a filter: every registered callback receives the value returned by
// the previous one. An Action only observes. Callbacks run in ascending priority
// order; callbacks sharing a priority run in registration order. The zero value
// of both types is ready to use and safe for concurrent registration and
// dispatch.
package hooks

import (
	"context"
	"sort"
	"sync"
)

// DefaultPriority is used by Add when a caller has no ordering preference.
const DefaultPriority = 10

// Func transforms a value flowing through a Chain.
type Func[T any] func(ctx context.Context, v T) T

type entry[T any] struct {
	priority int
	seq      int
	fn       T
}

type list[T any] struct {
	mu      sync.RWMutex
	seq     int
	entries []entry[T]
}

func (l *list[T]) add(priority int, fn T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.entries = append(l.entries, entry[T]{priority: priority, seq: l.seq, fn: fn})
	sort.SliceStable(l.entries, func(i, j int) bool {
		if l.entries[i].priority == l.entries[j].priority {
			return l.entries[i].seq < l.entries[j].seq
		}
		return l.entries[i].priority < l.entries[j].priority
	})
}

func (l *list[T]) snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.fn)
	}
	return out
}

func (l *list[T]) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Chain is a priority-ordered filter over values of type T.
type Chain[T any] struct {
	l list[Func[T]]
}

// Add registers fn at the given priority.
func (c *Chain[T]) Add(priority int, fn Func[T]) {
	if fn == nil {
		return
	}
	c.l.add(priority, fn)
}

// Apply runs v through every registered filter and returns the result.
func (c *Chain[T]) Apply(ctx context.Context, v T) T {
	for _, fn := range c.l.snapshot() {
		v = fn(ctx, v)
	}
	return v
}

// Len returns the number of registered filters.
func (c *Chain[T]) Len() int { return c.l.len() }

// Action is a priority-ordered set of observers of values of type T.
type Action[T any] struct {
	l list[func(ctx context.Context, v T)]
}

// Add registers fn at the given priority.
func (a *Action[T]) Add(priority int, fn func(ctx context.Context, v T)) {
	if fn == nil {
		return
	}
	a.l.add(priority, fn)
}

// Do invokes every registered observer with v.
func (a *Action[T]) Do(ctx context.Context, v T) {
	for _, fn := range a.l.snapshot() {
		fn(ctx, v)
	}
}

// Len returns the number of registered observers.
func (a *Action[T]) Len() int { return a.l.len() }
