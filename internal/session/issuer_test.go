package session

import (
	"errors"
	"net/http"
	"testing"
	"time"

	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/security"
)

func TestIssueSession_PhoneCookie(t *testing.T) {
	iss := NewIssuer(security.NewTestTokenCodec(), Options{})
	ident := &identitydomain.AuthIdentity{ID: "u1", Phone: "+15550001", Role: identitydomain.RoleOwner}
	s, err := iss.IssueSession(ident, identitydomain.ChannelPhone)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	c := s.Cookie
	if c.Name != "session" || c.Value != s.Token {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteLaxMode || c.Secure {
		t.Errorf("cookie attributes = %+v", c)
	}
	if c.MaxAge != 86400 {
		t.Errorf("MaxAge = %d, want 86400", c.MaxAge)
	}
	if until := time.Until(s.ExpiresAt); until > 4*time.Hour || until < 3*time.Hour {
		t.Errorf("token expires in %v, want about 4h", until)
	}

	p, err := iss.Verify(s.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	want := Principal{UID: "u1", Role: identitydomain.RoleOwner, Channel: identitydomain.ChannelPhone, Value: "+15550001"}
	if *p != want {
		t.Errorf("principal = %+v, want %+v", *p, want)
	}
}

func TestIssueSession_EmailSecure(t *testing.T) {
	iss := NewIssuer(security.NewTestTokenCodec(), Options{Secure: true, TokenTTL: time.Hour, CookieMaxAge: 2 * time.Hour})
	ident := &identitydomain.AuthIdentity{ID: "u2", Email: "a@x.com", Phone: "+1", Role: identitydomain.RoleEmployee}
	s, err := iss.IssueSession(ident, identitydomain.ChannelEmail)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Cookie.Secure || s.Cookie.MaxAge != 7200 {
		t.Errorf("cookie = %+v", s.Cookie)
	}
	p, err := iss.Verify(s.Token)
	if err != nil {
		t.Fatal(err)
	}
	if p.Channel != identitydomain.ChannelEmail || p.Value != "a@x.com" {
		t.Errorf("principal = %+v, want email channel", p)
	}
}

func TestIssueSession_UnknownChannel(t *testing.T) {
	iss := NewIssuer(security.NewTestTokenCodec(), Options{})
	if _, err := iss.IssueSession(&identitydomain.AuthIdentity{ID: "u"}, "fax"); err == nil {
		t.Error("unknown channel should fail")
	}
}

func TestVerify_ExpiredTokenWithLiveCookie(t *testing.T) {
	codec := security.NewTestTokenCodec()
	iss := NewIssuer(codec, Options{})
	s, _ := iss.IssueSession(&identitydomain.AuthIdentity{ID: "u1", Phone: "+1", Role: identitydomain.RoleOwner}, identitydomain.ChannelPhone)
	codec.SetClock(func() time.Time { return time.Now().Add(5 * time.Hour) })
	if _, err := iss.Verify(s.Token); !errors.Is(err, security.ErrTokenExpired) {
		t.Errorf("got = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_RejectsUnknownRoleAndInvitations(t *testing.T) {
	codec := security.NewTestTokenCodec()
	iss := NewIssuer(codec, Options{})
	tok, _, _ := codec.Sign(security.Claims{UID: "u1", Role: "admin", Phone: "+1", Purpose: security.PurposeSession}, time.Hour)
	if _, err := iss.Verify(tok); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("unknown role = %v, want ErrInvalidSession", err)
	}
	tok, _, _ = codec.Sign(security.Claims{UID: "u1", Role: "owner", Purpose: security.PurposeSession}, time.Hour)
	if _, err := iss.Verify(tok); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("no channel value = %v, want ErrInvalidSession", err)
	}
	tok, _, _ = codec.Sign(security.Claims{UID: "u1", Role: "employee", Email: "a@x.com", Purpose: security.PurposeInvitation}, time.Hour)
	if _, err := iss.Verify(tok); !errors.Is(err, security.ErrInvalidToken) {
		t.Errorf("invitation token = %v, want ErrInvalidToken", err)
	}
}

func TestClearCookie(t *testing.T) {
	c := NewIssuer(security.NewTestTokenCodec(), Options{}).ClearCookie()
	if c.Name != CookieName || c.Value != "" || c.MaxAge >= 0 {
		t.Errorf("clear cookie = %+v", c)
	}
}
