package api

import (
	"net/http"
	"time"

	"github.com/okian/delhihouse/internal/adapters/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin signs in and sets the session cookie. The token is returned
// too, for API clients using bearer auth.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	sess, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		code := auth.CodeOf(err)
		switch code {
		case auth.CodeTooManyRequests:
			status = http.StatusTooManyRequests
		case auth.CodeOther:
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorResponse{Code: string(code), Message: auth.Message(err)})
		return
	}
	auth.SetCookie(w, sess, s.secureCookies)
	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, Email: sess.Email, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.SessionFrom(r.Context()); ok {
		s.auth.SignOut(r.Context(), sess)
	}
	auth.ClearCookie(w, s.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}
