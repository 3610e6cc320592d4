// Package dedup keeps the newest record per (repo, architecture)
package dedup

import (
	"sync"
	"time"
)

// Key groups records that describe the same artifact line
type Key struct {
	Repo string
	Arch string
}

// Item is anything that can be collapsed
type Item interface {
	DedupKey() Key
	PublishedTime() time.Time
}

// ParseInstant parses an RFC 3339 timestamp; anything unparsable is the zero
// instant so it loses against every real date
func ParseInstant(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Latest returns one item per key carrying the greatest published instant.
// Ties keep the item seen first, and keys keep the order they were first seen in
func Latest[T Item](items []T) []T {
	if len(items) < 2 {
		return items
	}
	idx := make(map[Key]int, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := it.DedupKey()
		i, ok := idx[k]
		if !ok {
			idx[k] = len(out)
			out = append(out, it)
			continue
		}
		if it.PublishedTime().After(out[i].PublishedTime()) {
			out[i] = it
		}
	}
	return out
}

// Accumulator collects the records of one run. It is safe for concurrent use
type Accumulator[T Item] struct {
	mu    sync.Mutex
	items []T
}

// NewAccumulator returns an empty accumulator
func NewAccumulator[T Item]() *Accumulator[T] { return &Accumulator[T]{} }

// Add appends items in order
func (a *Accumulator[T]) Add(items ...T) {
	if len(items) == 0 {
		return
	}
	a.mu.Lock()
	a.items = append(a.items, items...)
	a.mu.Unlock()
}

// Collapse applies Latest in place and returns how many items were dropped
func (a *Accumulator[T]) Collapse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	before := len(a.items)
	a.items = Latest(a.items)
	return before - len(a.items)
}

// Records returns a copy of the current items
func (a *Accumulator[T]) Records() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}

// Len is the current item count
func (a *Accumulator[T]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}
