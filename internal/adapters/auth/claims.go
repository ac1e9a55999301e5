package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by a session token. RegisteredClaims.ID is the session id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Session is a signed-in admin.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
