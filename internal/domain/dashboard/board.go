// Package dashboard implements the lead dashboard of a signed-in admin.
//
// A Board moves Unauthenticated -> Authenticating -> Authenticated and, while
// authenticated, between Loading and Loaded. Every fetch and every successful
// delete takes a new sequence number; a fetch that resolves after a newer
// sequence was issued is discarded so an old snapshot never overwrites a newer
// list or resurrects a deleted lead.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/okian/delhihouse/internal/domain/lead"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/pkg/logger"
)

// Store is the lead collection the board reads and deletes from.
type Store interface {
	List(ctx context.Context) ([]model.Lead, error)
	Delete(ctx context.Context, id string) error
}

// State of a board.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Authenticated reports whether the state belongs to a signed-in admin.
func (s State) Authenticated() bool { return s == Loading || s == Loaded }

// View is an immutable snapshot for rendering.
type View struct {
	State    State        `json:"-"`
	User     string       `json:"user,omitempty"`
	Leads    []model.Lead `json:"leads"`
	Selected *model.Lead  `json:"selected,omitempty"`
	Deleting string       `json:"deleting,omitempty"`
	// FetchFailed distinguishes a failed fetch from an empty collection.
	FetchFailed bool       `json:"fetch_failed"`
	Stats       lead.Stats `json:"stats"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// Board is one admin's dashboard.
type Board struct {
	store  Store
	logger logger.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       State
	user        string
	leads       []model.Lead
	selected    string
	deleting    string
	fetchFailed bool
	fetchedAt   time.Time
	seq         uint64
	lastFetch   uint64
}

// NewBoard creates an unauthenticated board over store.
func NewBoard(store Store, opts ...Option) *Board {
	b := &Board{
		store:  store,
		logger: logger.GetOr(logger.Nop()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BeginAuth marks a sign-in attempt in flight.
func (b *Board) BeginAuth() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Unauthenticated {
		b.state = Authenticating
	}
}

// FailAuth returns an in-flight sign-in to Unauthenticated.
func (b *Board) FailAuth() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Authenticating {
		b.state = Unauthenticated
	}
}

// Authenticate attaches the signed-in user and loads the leads.
func (b *Board) Authenticate(ctx context.Context, user string) error {
	b.mu.Lock()
	b.user = user
	if !b.state.Authenticated() {
		b.state = Loading
	}
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// SignOut drops the user and all cached leads.
func (b *Board) SignOut() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Unauthenticated
	b.user = ""
	b.leads = nil
	b.selected = ""
	b.deleting = ""
	b.fetchFailed = false
	b.seq++
}

// Refresh fetches the whole collection and replaces the cached list. When a
// newer fetch or a delete completed meanwhile, the result is dropped and
// ErrSuperseded returned. A failed fetch leaves an empty list.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if !b.state.Authenticated() {
		b.mu.Unlock()
		return ErrNotAuthenticated
	}
	b.seq++
	seq := b.seq
	b.lastFetch = seq
	b.state = Loading
	b.mu.Unlock()

	leads, err := b.store.List(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq {
		if seq == b.lastFetch && b.state == Loading {
			// Only a delete happened since; the cached list is current.
			b.state = Loaded
		}
		b.logger.Debug(ctx, "discarding superseded fetch", logger.Int64("seq", int64(seq)))
		return ErrSuperseded
	}
	b.state = Loaded
	b.fetchedAt = b.now()
	if err != nil {
		b.logger.Error(ctx, "failed to fetch leads", logger.Error(err))
		b.leads = nil
		b.selected = ""
		b.fetchFailed = true
		return &FetchError{Err: err}
	}
	lead.SortNewestFirst(leads)
	b.leads = leads
	b.fetchFailed = false
	if _, ok := lead.Find(leads, b.selected); !ok {
		b.selected = ""
	}
	return nil
}

// Select opens the detail view of lead id.
func (b *Board) Select(id string) (model.Lead, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.state.Authenticated() {
		return model.Lead{}, ErrNotAuthenticated
	}
	l, ok := lead.Find(b.leads, id)
	if !ok {
		return model.Lead{}, ErrUnknownLead
	}
	b.selected = id
	return l, nil
}

// CloseDetail closes the detail view.
func (b *Board) CloseDetail() {
	b.mu.Lock()
	b.selected = ""
	b.mu.Unlock()
}

// Delete removes lead id from the store once confirmed. On success the lead
// is removed from the cached list and its detail view closed; on failure the
// list is left untouched and a DeleteError returned. There is no retry.
func (b *Board) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	b.mu.Lock()
	if !b.state.Authenticated() {
		b.mu.Unlock()
		return ErrNotAuthenticated
	}
	if b.deleting != "" {
		b.mu.Unlock()
		return ErrDeleteInFlight
	}
	b.deleting = id
	b.mu.Unlock()

	err := b.store.Delete(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleting = ""
	if err != nil {
		b.logger.Error(ctx, "failed to delete lead", logger.String("id", id), logger.Error(err))
		return &DeleteError{ID: id, Err: err}
	}
	b.seq++
	b.leads = lead.Without(b.leads, id)
	if b.selected == id {
		b.selected = ""
	}
	return nil
}

// Stats recomputes the counters from the cached list.
func (b *Board) Stats(now time.Time) lead.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return lead.ComputeStats(b.leads, now)
}

// State returns the current state.
func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// View returns a snapshot of the board.
func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := View{
		State:       b.state,
		User:        b.user,
		Leads:       make([]model.Lead, len(b.leads)),
		Deleting:    b.deleting,
		FetchFailed: b.fetchFailed,
		Stats:       lead.ComputeStats(b.leads, b.now()),
		FetchedAt:   b.fetchedAt,
	}
	copy(v.Leads, b.leads)
	if l, ok := lead.Find(b.leads, b.selected); ok {
		v.Selected = &l
	}
	return v
}
