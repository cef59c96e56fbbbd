package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	chatdomain "staffhub/backend/internal/chat/domain"
	chatservice "staffhub/backend/internal/chat/service"
	"staffhub/backend/internal/session"
)

type memChat struct {
	members []chatdomain.Member
}

func (m *memChat) Members(ctx context.Context) ([]chatdomain.Member, error) {
	return m.members, nil
}

func (m *memChat) History(ctx context.Context, userID, peerID string) ([]*chatdomain.Message, error) {
	if peerID != "peer" {
		return nil, chatservice.ErrMemberNotFound
	}
	return []*chatdomain.Message{{ID: "m1", RoomID: chatdomain.RoomID(userID, peerID), SenderID: userID, Message: "hi"}}, nil
}

type stubSocketAuth struct {
	p    *session.Principal
	code int
}

func (s stubSocketAuth) SocketPrincipal(r *http.Request) (*session.Principal, int, error) {
	if s.p == nil {
		return nil, s.code, errors.New("refused")
	}
	return s.p, http.StatusOK, nil
}

type recordingSocket struct {
	served *session.Principal
}

func (s *recordingSocket) Serve(w http.ResponseWriter, r *http.Request, p *session.Principal) {
	s.served = p
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func TestChatHandler_History(t *testing.T) {
	h := NewChatHandler(&memChat{}, stubSocketAuth{}, &recordingSocket{})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(session.WithPrincipal(req.Context(), ownerPrincipal)))
		})
	})
	r.Get("/rooms/{peerId}/messages", h.History)

	rec := do(t, r, http.MethodGet, "/rooms/peer/messages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	msgs, _ := decodeBody(t, rec)["messages"].([]any)
	if len(msgs) != 1 || msgs[0].(map[string]any)["room_id"] != "o1_peer" {
		t.Errorf("messages = %v", msgs)
	}

	rec = do(t, r, http.MethodGet, "/rooms/ghost/messages", "")
	if rec.Code != http.StatusNotFound || decodeBody(t, rec)["message"] != "Not Found User" {
		t.Errorf("unknown peer: %d %s", rec.Code, rec.Body.String())
	}
}

func TestChatHandler_Members(t *testing.T) {
	h := NewChatHandler(&memChat{members: []chatdomain.Member{{UID: "u1"}, {UID: "u2"}}}, stubSocketAuth{}, &recordingSocket{})
	rec := httptest.NewRecorder()
	h.Members(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	members, _ := decodeBody(t, rec)["members"].([]any)
	if len(members) != 2 {
		t.Errorf("members = %v", members)
	}
}

func TestChatHandler_SocketRefusesHandshake(t *testing.T) {
	tests := []struct {
		code int
		msg  string
	}{
		{http.StatusUnauthorized, "Unauthorized"},
		{http.StatusForbidden, "Invalid token"},
	}
	for _, tt := range tests {
		sock := &recordingSocket{}
		h := NewChatHandler(&memChat{}, stubSocketAuth{code: tt.code}, sock)
		rec := httptest.NewRecorder()
		h.Socket(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
		if rec.Code != tt.code {
			t.Errorf("code = %d, want %d", rec.Code, tt.code)
		}
		if got := decodeBody(t, rec)["message"]; got != tt.msg {
			t.Errorf("message = %v, want %v", got, tt.msg)
		}
		if sock.served != nil {
			t.Error("socket served despite refusal")
		}
	}
}

func TestChatHandler_SocketServesPrincipal(t *testing.T) {
	sock := &recordingSocket{}
	h := NewChatHandler(&memChat{}, stubSocketAuth{p: employeePrincipal}, sock)
	h.Socket(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))
	if sock.served != employeePrincipal {
		t.Errorf("served = %+v", sock.served)
	}
}
