// Package repository persists leads, booking requests and admin users.
package repository

import (
	"context"

	"github.com/okian/delhihouse/internal/domain/model"
)

// Store is the lead collection. It is the sole owner of durable lead state.
type Store interface {
	// Create assigns an id and persists l.
	Create(ctx context.Context, l model.Lead) (model.Lead, error)
	// List returns every lead, newest first; leads without a timestamp last.
	List(ctx context.Context) ([]model.Lead, error)
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (model.Lead, error)
	// Delete returns ErrNotFound for unknown ids.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// BookingStore keeps reservation requests.
type BookingStore interface {
	CreateBooking(ctx context.Context, b model.BookingRequest) (model.BookingRequest, error)
	ListBookings(ctx context.Context) ([]model.BookingRequest, error)
}

// User is an admin account.
type User struct {
	Email        string
	PasswordHash []byte
}

// UserStore keeps admin accounts.
type UserStore interface {
	// User returns ErrNotFound for unknown e-mails.
	User(ctx context.Context, email string) (User, error)
	PutUser(ctx context.Context, u User) error
}

// Storage is everything the site persists, as implemented by SQLiteStore and MemoryStore.
type Storage interface {
	Store
	BookingStore
	UserStore
}
