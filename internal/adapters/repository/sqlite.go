package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/pkg/logger"
	"github.com/okian/delhihouse/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS form (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	email     TEXT NOT NULL,
	phone     TEXT NOT NULL,
	message   TEXT NOT NULL,
	timestamp INTEGER
);
CREATE INDEX IF NOT EXISTS form_timestamp ON form (timestamp DESC);

CREATE TABLE IF NOT EXISTS booking_requests (
	id           TEXT PRIMARY KEY,
	confirmation TEXT NOT NULL,
	venue        TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL,
	date         TEXT NOT NULL,
	time         TEXT NOT NULL,
	party_size   INTEGER NOT NULL,
	notes        TEXT NOT NULL DEFAULT '',
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	email         TEXT PRIMARY KEY,
	password_hash BLOB NOT NULL,
	updated_at    INTEGER NOT NULL
);
`

// SQLiteStore implements Store, BookingStore and UserStore on one SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	cfg settings

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Use MemoryPath for tests.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.mkdirAll && path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir: %w", ErrOpen, err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: schema: %w", ErrOpen, err)
	}

	s := &SQLiteStore{db: db, cfg: cfg, stopChan: make(chan struct{})}
	if cfg.metricsUpdateInterval > 0 {
		s.startMetricsUpdater(ctx)
	}
	return s, nil
}

func dsn(path string, cfg settings) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.busyTimeout.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if path != MemoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	return path + "?" + q.Encode()
}

// Close stops background work and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Create(ctx context.Context, l model.Lead) (model.Lead, error) {
	l.ID = s.cfg.ids()
	var ts sql.NullInt64
	if l.Timestamp != nil {
		ts = sql.NullInt64{Int64: l.Timestamp.UnixMilli(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO form (id, name, email, phone, message, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Email, l.Phone, l.Message, ts)
	if err != nil {
		return model.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return l, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, phone, message, timestamp FROM form
		 ORDER BY timestamp IS NULL, timestamp DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]model.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, message, timestamp FROM form WHERE id = ?`, id)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lead{}, ErrNotFound
	}
	if err != nil {
		return model.Lead{}, fmt.Errorf("get lead %s: %w", id, err)
	}
	return l, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete lead %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lead %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM form`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) CreateBooking(ctx context.Context, b model.BookingRequest) (model.BookingRequest, error) {
	b.ID = s.cfg.ids()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.cfg.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO booking_requests (id, confirmation, venue, name, email, phone, date, time, party_size, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Confirmation, b.Venue, b.Name, b.Email, b.Phone, b.Date, b.Time, b.PartySize, b.Notes, b.CreatedAt.UnixMilli())
	if err != nil {
		return model.BookingRequest{}, fmt.Errorf("insert booking: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) ListBookings(ctx context.Context) ([]model.BookingRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, confirmation, venue, name, email, phone, date, time, party_size, notes, created_at
		 FROM booking_requests ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := make([]model.BookingRequest, 0)
	for rows.Next() {
		var b model.BookingRequest
		var created int64
		if err := rows.Scan(&b.ID, &b.Confirmation, &b.Venue, &b.Name, &b.Email, &b.Phone, &b.Date, &b.Time, &b.PartySize, &b.Notes, &created); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) User(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT email, password_hash FROM users WHERE email = ?`, normalizeEmail(email)).
		Scan(&u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) PutUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET password_hash = excluded.password_hash, updated_at = excluded.updated_at`,
		normalizeEmail(u.Email), u.PasswordHash, s.cfg.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(row scanner) (model.Lead, error) {
	var l model.Lead
	var ts sql.NullInt64
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &ts); err != nil {
		return model.Lead{}, err
	}
	if ts.Valid {
		t := time.UnixMilli(ts.Int64).UTC()
		l.Timestamp = &t
	}
	return l, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// startMetricsUpdater refreshes the stored-leads gauge in the background.
func (s *SQLiteStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *SQLiteStore) updateMetrics(ctx context.Context) {
	n, err := s.Count(ctx)
	if err != nil {
		logger.GetOr(logger.Nop()).Warn(ctx, "failed to count leads for metrics", logger.Error(err))
		return
	}
	metrics.UpdateLeadsStored(n)
}
