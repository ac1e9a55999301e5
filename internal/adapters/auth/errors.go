package auth

import (
	"errors"
	"fmt"
)

// Code classifies a failed sign-in.
type Code string

const (
	CodeInvalidCredential Code = "invalid-credential"
	CodeUserNotFound      Code = "user-not-found"
	CodeWrongPassword     Code = "wrong-password"
	CodeTooManyRequests   Code = "too-many-requests"
	CodeOther             Code = "other"
)

// AuthError is a failed sign-in. It is never fatal; the form stays usable.
type AuthError struct {
	Code Code
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth/%s: %v", e.Code, e.Err)
	}
	return "auth/" + string(e.Code)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Session errors.
var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")
	ErrRevoked        = errors.New("session revoked")
	ErrWeakSecret     = errors.New("session secret must be at least 32 bytes")
)

var messages = map[Code]string{
	CodeInvalidCredential: "Invalid email or password. Please try again.",
	CodeUserNotFound:      "No account found with this email.",
	CodeWrongPassword:     "Incorrect password. Please try again.",
	CodeTooManyRequests:   "Too many failed attempts. Please try again later.",
}

// FallbackMessage is shown for failures without a specific message.
const FallbackMessage = "Failed to login. Please try again."

// Message maps a sign-in error to the copy shown on the login form.
func Message(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		if msg, ok := messages[ae.Code]; ok {
			return msg
		}
	}
	return FallbackMessage
}

// CodeOf returns the code of err, or CodeOther.
func CodeOf(err error) Code {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeOther
}
