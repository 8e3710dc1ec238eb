package ratelimit

import (
	"sync/atomic"
	"time"
)

// Budget is a hot-swappable (limit, window) pair.
type Budget struct {
	v atomic.Pointer[budget]
}

type budget struct {
	limit  int
	window time.Duration
}

func NewBudget(limit int, window time.Duration) *Budget {
	b := &Budget{}
	b.Set(limit, window)
	return b
}

func (b *Budget) Set(limit int, window time.Duration) {
	b.v.Store(&budget{limit: limit, window: window})
}

// Get returns the current limit and window.
func (b *Budget) Get() (int, time.Duration) {
	cur := b.v.Load()
	return cur.limit, cur.window
}
