// Package dedupe tracks submission tokens so a form posted twice (double
// click, browser retry) produces one lead.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Deduper records seen submission tokens.
type Deduper interface {
	// SeenAndRecord reports whether token was already recorded inside the
	// replay window and records it if not.
	SeenAndRecord(ctx context.Context, token string) bool

	// Unrecord forgets token so the same submission can be retried, e.g.
	// after the queue rejected it.
	Unrecord(ctx context.Context, token string)

	Size() int
}

type entry struct {
	token string
	at    time.Time
}

// tokenDeduper keeps tokens in insertion order; the oldest are evicted first
// when the capacity is reached and expired tokens are dropped lazily.
type tokenDeduper struct {
	mu      sync.Mutex
	order   *list.List
	index   map[string]*list.Element
	maxSize int
	window  time.Duration
	now     func() time.Time
}

// NewTokenDeduper creates a deduper. Defaults: 10000 tokens, 24h window.
func NewTokenDeduper(opts ...Option) Deduper {
	d := &tokenDeduper{
		order:   list.New(),
		index:   make(map[string]*list.Element),
		maxSize: 10000,
		window:  24 * time.Hour,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *tokenDeduper) SeenAndRecord(_ context.Context, token string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.expire(now)

	if _, ok := d.index[token]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.removeElement(d.order.Front())
	}
	d.index[token] = d.order.PushBack(entry{token: token, at: now})
	return false
}

func (d *tokenDeduper) Unrecord(_ context.Context, token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.index[token]; ok {
		d.removeElement(el)
	}
}

func (d *tokenDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}

// expire drops tokens older than the window. Caller holds d.mu.
func (d *tokenDeduper) expire(now time.Time) {
	if d.window <= 0 {
		return
	}
	for el := d.order.Front(); el != nil; el = d.order.Front() {
		if now.Sub(el.Value.(entry).at) < d.window {
			return
		}
		d.removeElement(el)
	}
}

func (d *tokenDeduper) removeElement(el *list.Element) {
	if el == nil {
		return
	}
	delete(d.index, el.Value.(entry).token)
	d.order.Remove(el)
}
