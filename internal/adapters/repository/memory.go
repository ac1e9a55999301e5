package repository

import (
	"context"
	"sync"

	"github.com/okian/delhihouse/internal/domain/lead"
	"github.com/okian/delhihouse/internal/domain/model"
)

// MemoryStore is an in-process Store, BookingStore and UserStore.
type MemoryStore struct {
	cfg settings

	mu       sync.RWMutex
	leads    map[string]model.Lead
	bookings []model.BookingRequest
	users    map[string]User
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{
		cfg:   cfg,
		leads: make(map[string]model.Lead),
		users: make(map[string]User),
	}
}

func (m *MemoryStore) Create(_ context.Context, l model.Lead) (model.Lead, error) {
	l.ID = m.cfg.ids()
	if l.Timestamp != nil {
		ts := *l.Timestamp
		l.Timestamp = &ts
	}
	m.mu.Lock()
	m.leads[l.ID] = l
	m.mu.Unlock()
	return l, nil
}

func (m *MemoryStore) List(_ context.Context) ([]model.Lead, error) {
	m.mu.RLock()
	out := make([]model.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		out = append(out, l)
	}
	m.mu.RUnlock()
	lead.SortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (model.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.leads[id]
	if !ok {
		return model.Lead{}, ErrNotFound
	}
	return l, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[id]; !ok {
		return ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.leads), nil
}

func (m *MemoryStore) CreateBooking(_ context.Context, b model.BookingRequest) (model.BookingRequest, error) {
	b.ID = m.cfg.ids()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = m.cfg.now()
	}
	m.mu.Lock()
	m.bookings = append(m.bookings, b)
	m.mu.Unlock()
	return b, nil
}

func (m *MemoryStore) ListBookings(_ context.Context) ([]model.BookingRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.BookingRequest, len(m.bookings))
	for i, b := range m.bookings {
		out[len(out)-1-i] = b
	}
	return out, nil
}

func (m *MemoryStore) User(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[normalizeEmail(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) PutUser(_ context.Context, u User) error {
	u.Email = normalizeEmail(u.Email)
	m.mu.Lock()
	m.users[u.Email] = u
	m.mu.Unlock()
	return nil
}
