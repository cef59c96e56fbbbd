// Package session mints session tokens for resolved identities and verifies them on the way back in.
// Sessions are stateless: the token is the only record and logout only clears the client cookie.
package session

import (
	"errors"
	"net/http"
	"time"

	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/security"
)

// CookieName is the cookie carrying the session token, for HTTP requests and socket handshakes.
const CookieName = "session"

const (
	defaultTokenTTL     = 4 * time.Hour
	defaultCookieMaxAge = 24 * time.Hour
)

// ErrInvalidSession is returned by Verify for any token that does not yield a valid principal.
var ErrInvalidSession = errors.New("invalid session")

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UID     string
	Role    identitydomain.Role
	Channel identitydomain.Channel
	// Value is the phone number or email the session was issued for.
	Value string
}

// Session is a freshly issued token and the cookie that carries it.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Cookie    *http.Cookie
}

// Options configures an Issuer. Zero durations use 4h and 24h.
type Options struct {
	TokenTTL     time.Duration
	CookieMaxAge time.Duration
	Secure       bool
}

// Issuer issues and verifies session tokens.
type Issuer struct {
	codec *security.TokenCodec
	opts  Options
}

// NewIssuer returns an Issuer signing with codec.
func NewIssuer(codec *security.TokenCodec, opts Options) *Issuer {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.CookieMaxAge <= 0 {
		opts.CookieMaxAge = defaultCookieMaxAge
	}
	return &Issuer{codec: codec, opts: opts}
}

// IssueSession signs {channel value, uid, role} for ident and wraps it in the session cookie.
// The cookie may outlive the token; Verify rejects the token once it expires.
func (i *Issuer) IssueSession(ident *identitydomain.AuthIdentity, channel identitydomain.Channel) (*Session, error) {
	claims := security.Claims{UID: ident.ID, Role: string(ident.Role), Purpose: security.PurposeSession}
	switch channel {
	case identitydomain.ChannelPhone:
		claims.Phone = ident.Phone
	case identitydomain.ChannelEmail:
		claims.Email = ident.Email
	default:
		return nil, errors.New("session: unknown channel")
	}
	token, exp, err := i.codec.Sign(claims, i.opts.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: exp,
		Cookie: &http.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(i.opts.CookieMaxAge / time.Second),
			HttpOnly: true,
			Secure:   i.opts.Secure,
			SameSite: http.SameSiteLaxMode,
		},
	}, nil
}

// ClearCookie returns a cookie that removes the session cookie on the client.
func (i *Issuer) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   i.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Verify validates token and returns its principal. Unknown roles are rejected.
func (i *Issuer) Verify(token string) (*Principal, error) {
	claims, err := i.codec.Verify(token, security.PurposeSession)
	if err != nil {
		return nil, err
	}
	role, err := identitydomain.ParseRole(claims.Role)
	if err != nil {
		return nil, ErrInvalidSession
	}
	p := &Principal{UID: claims.UID, Role: role}
	switch {
	case claims.Phone != "":
		p.Channel, p.Value = identitydomain.ChannelPhone, claims.Phone
	case claims.Email != "":
		p.Channel, p.Value = identitydomain.ChannelEmail, claims.Email
	default:
		return nil, ErrInvalidSession
	}
	return p, nil
}
