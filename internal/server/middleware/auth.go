// Package middleware holds the HTTP middleware: session authentication, role gating, CORS, security
// headers, metrics, request logging and route auditing.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"staffhub/backend/internal/server/respond"
	"staffhub/backend/internal/session"
)

var (
	// ErrNoSession means the request carried no session cookie.
	ErrNoSession = errors.New("no session cookie")
)

// SessionVerifier verifies a session token.
type SessionVerifier interface {
	Verify(token string) (*session.Principal, error)
}

// Authenticator attaches the session principal to requests.
type Authenticator struct {
	sessions SessionVerifier
}

func NewAuthenticator(sessions SessionVerifier) *Authenticator {
	return &Authenticator{sessions: sessions}
}

// Handler requires a valid session cookie: absent → 401, invalid → 403.
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(session.CookieName)
		if err != nil || c.Value == "" {
			RecordAuthAttempt("session", false)
			respond.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		p, err := a.sessions.Verify(c.Value)
		if err != nil {
			RecordAuthAttempt("session", false)
			respond.Error(w, http.StatusForbidden, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithPrincipal(r.Context(), p)))
	})
}

// SocketPrincipal authenticates a websocket handshake from its raw Cookie header. It returns the HTTP
// status to refuse the upgrade with on failure: 401 when no session is present, 403 when it does not verify.
func (a *Authenticator) SocketPrincipal(r *http.Request) (*session.Principal, int, error) {
	token := SessionFromCookieHeader(r.Header.Get("Cookie"))
	if token == "" {
		return nil, http.StatusUnauthorized, ErrNoSession
	}
	p, err := a.sessions.Verify(token)
	if err != nil {
		return nil, http.StatusForbidden, err
	}
	return p, http.StatusOK, nil
}

// SessionFromCookieHeader finds the session= segment of a raw Cookie header and returns its value with
// internal spaces removed. Returns "" when absent.
func SessionFromCookieHeader(header string) string {
	prefix := session.CookieName + "="
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, prefix); ok {
			return strings.ReplaceAll(v, " ", "")
		}
	}
	return ""
}
