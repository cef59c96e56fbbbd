package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestResendMailer_Send(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Method != http.MethodPost {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m, err := NewResendMailer("re_key", "hub@x.com", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Send(context.Background(), InvitationMessage("ann@x.com", "Ann", "http://app/verify?token=abc")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if auth != "Bearer re_key" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.From != "hub@x.com" || len(got.To) != 1 || got.To[0] != "ann@x.com" || got.Subject != "Verify your account" {
		t.Errorf("request = %+v", got)
	}
	if !strings.Contains(got.HTML, "http://app/verify?token=abc") || !strings.Contains(got.HTML, "Hello Ann") {
		t.Errorf("html = %q", got.HTML)
	}
}

func TestResendMailer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()
	m, _ := NewResendMailer("k", "f@x.com", srv.URL)
	if err := m.Send(context.Background(), CodeMessage("a@x.com", "123456")); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("got = %v, want status error", err)
	}
}

func TestNewResendMailer_RequiresKey(t *testing.T) {
	if _, err := NewResendMailer("", "f@x.com", ""); err == nil {
		t.Error("empty key should fail")
	}
}

func TestMessages_EscapeInput(t *testing.T) {
	m := InvitationMessage("a@x.com", "<script>", "http://x")
	if strings.Contains(m.HTML, "<script>") {
		t.Error("name should be escaped")
	}
	if !strings.Contains(InvitationMessage("a@x.com", "", "l").HTML, "Hello employee") {
		t.Error("empty name should default to employee")
	}
	if !strings.Contains(CodeMessage("a@x.com", "654321").HTML, "654321") {
		t.Error("code missing from mail")
	}
}

func TestLogMailer(t *testing.T) {
	var buf strings.Builder
	m := NewLogMailer(zerolog.New(&buf))
	if err := m.Send(context.Background(), CodeMessage("a@x.com", "123456")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "a@x.com") || strings.Contains(buf.String(), "123456") {
		t.Errorf("log = %q; want recipient, no code", buf.String())
	}
}
