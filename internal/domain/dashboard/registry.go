package dashboard

import (
	"sync"
	"time"
)

type registered struct {
	board   *Board
	expires time.Time
}

// Registry keeps one Board per admin session. A session that simply lapses
// never signs out, so boards past their session's expiry are swept.
type Registry struct {
	store Store
	opts  []Option
	now   func() time.Time

	mu     sync.Mutex
	boards map[string]registered
}

// NewRegistry creates boards over store with opts. The registry uses the
// boards' clock for expiry.
func NewRegistry(store Store, opts ...Option) *Registry {
	return &Registry{
		store:  store,
		opts:   opts,
		now:    NewBoard(store, opts...).now,
		boards: make(map[string]registered),
	}
}

// Board returns the board of session, creating it on first use. expires is
// when the session lapses; zero means never. Expired boards of other
// sessions are signed out on the way.
func (r *Registry) Board(session string, expires time.Time) *Board {
	r.mu.Lock()
	expired := r.sweepLocked()
	e, ok := r.boards[session]
	if !ok {
		e.board = NewBoard(r.store, r.opts...)
	}
	if expires.After(e.expires) || expires.IsZero() {
		e.expires = expires
	}
	r.boards[session] = e
	r.mu.Unlock()

	signOut(expired)
	return e.board
}

// Drop signs out and forgets the board of session.
func (r *Registry) Drop(session string) {
	r.mu.Lock()
	e, ok := r.boards[session]
	delete(r.boards, session)
	r.mu.Unlock()
	if ok {
		e.board.SignOut()
	}
}

// Sweep signs out and forgets every board whose session has expired. It
// returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	expired := r.sweepLocked()
	r.mu.Unlock()
	signOut(expired)
	return len(expired)
}

func (r *Registry) sweepLocked() []*Board {
	now := r.now()
	var expired []*Board
	for id, e := range r.boards {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			expired = append(expired, e.board)
			delete(r.boards, id)
		}
	}
	return expired
}

func signOut(boards []*Board) {
	for _, b := range boards {
		b.SignOut()
	}
}

// Len returns the number of live boards.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}
