// Package auth signs admins in and out and gates the dashboard routes.
//
// Sessions are HS256 JWTs kept in an HttpOnly cookie. Sign-out revokes the
// session id until the token would have expired anyway.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/delhihouse/internal/adapters/repository"
	"github.com/okian/delhihouse/pkg/logger"
	"github.com/okian/delhihouse/pkg/metrics"
)

const minSecretLen = 32

// StateFunc observes sign-in and sign-out. signedIn is false on sign-out.
type StateFunc func(s Session, signedIn bool)

// Authenticator checks credentials against the user store and issues sessions.
type Authenticator struct {
	users   repository.UserStore
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	logger  logger.Logger
	limiter *attemptLimiter

	mu        sync.Mutex
	revoked   map[string]time.Time
	listeners map[int]StateFunc
	nextID    int
}

// New creates an authenticator. secret must be at least 32 bytes.
func New(users repository.UserStore, secret []byte, opts ...Option) (*Authenticator, error) {
	if len(secret) < minSecretLen {
		return nil, ErrWeakSecret
	}
	a := &Authenticator{
		users:     users,
		secret:    secret,
		ttl:       24 * time.Hour,
		now:       time.Now,
		logger:    logger.GetOr(logger.Nop()),
		limiter:   newAttemptLimiter(5, 5),
		revoked:   make(map[string]time.Time),
		listeners: make(map[int]StateFunc),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// SignIn verifies email and password and returns a new session.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return a.fail(ctx, email, &AuthError{Code: CodeInvalidCredential})
	}
	if !a.limiter.allow(email, a.now()) {
		return a.fail(ctx, email, &AuthError{Code: CodeTooManyRequests})
	}

	u, err := a.users.User(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return a.fail(ctx, email, &AuthError{Code: CodeUserNotFound})
	}
	if err != nil {
		return a.fail(ctx, email, &AuthError{Code: CodeOther, Err: err})
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return a.fail(ctx, email, &AuthError{Code: CodeWrongPassword})
		}
		return a.fail(ctx, email, &AuthError{Code: CodeInvalidCredential, Err: err})
	}

	s, err := a.issue(u.Email)
	if err != nil {
		return a.fail(ctx, email, &AuthError{Code: CodeOther, Err: err})
	}
	a.limiter.reset(email)
	metrics.RecordLogin("success")
	a.logger.Info(ctx, "admin signed in", logger.String("email", email), logger.String("session", s.ID))
	a.notify(s, true)
	return s, nil
}

func (a *Authenticator) fail(ctx context.Context, email string, err *AuthError) (Session, error) {
	metrics.RecordLogin(string(err.Code))
	a.logger.Warn(ctx, "sign-in failed", logger.String("email", email), logger.String("code", string(err.Code)))
	return Session{}, err
}

func (a *Authenticator) issue(email string) (Session, error) {
	now := a.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Email: email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{ID: claims.ID, Email: email, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify parses token and checks it was not revoked.
func (a *Authenticator) Verify(_ context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	a.mu.Lock()
	_, revoked := a.revoked[claims.ID]
	a.mu.Unlock()
	if revoked {
		return Session{}, ErrRevoked
	}
	return Session{ID: claims.ID, Email: claims.Email, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// SignOut revokes s until its expiry.
func (a *Authenticator) SignOut(ctx context.Context, s Session) {
	now := a.now()
	a.mu.Lock()
	for id, exp := range a.revoked {
		if now.After(exp) {
			delete(a.revoked, id)
		}
	}
	a.revoked[s.ID] = s.ExpiresAt
	a.mu.Unlock()
	a.logger.Info(ctx, "admin signed out", logger.String("session", s.ID))
	a.notify(s, false)
}

// OnAuthStateChanged registers fn for sign-in and sign-out events.
func (a *Authenticator) OnAuthStateChanged(fn StateFunc) (cancel func()) {
	a.mu.Lock()
	a.nextID++
	id := a.nextID
	a.listeners[id] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *Authenticator) notify(s Session, signedIn bool) {
	a.mu.Lock()
	fns := make([]StateFunc, 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(s, signedIn)
	}
}

// TTL returns the session lifetime.
func (a *Authenticator) TTL() time.Duration { return a.ttl }

// HashPassword hashes password for storage.
func HashPassword(password string) ([]byte, error) {
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CreateUser stores or replaces the admin account email.
func CreateUser(ctx context.Context, users repository.UserStore, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("email is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return users.PutUser(ctx, repository.User{Email: email, PasswordHash: hash})
}
