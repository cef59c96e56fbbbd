package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatdomain "staffhub/backend/internal/chat/domain"
	"staffhub/backend/internal/server/respond"
	"staffhub/backend/internal/session"
)

// ChatReader serves the chat read paths.
type ChatReader interface {
	Members(ctx context.Context) ([]chatdomain.Member, error)
	History(ctx context.Context, userID, peerID string) ([]*chatdomain.Message, error)
}

// SocketAuthenticator authenticates a websocket handshake.
type SocketAuthenticator interface {
	SocketPrincipal(r *http.Request) (*session.Principal, int, error)
}

// SocketServer upgrades and serves an authenticated connection.
type SocketServer interface {
	Serve(w http.ResponseWriter, r *http.Request, p *session.Principal)
}

// ChatHandler serves /api/chat and the /ws upgrade.
type ChatHandler struct {
	chat   ChatReader
	auth   SocketAuthenticator
	socket SocketServer
}

func NewChatHandler(chat ChatReader, auth SocketAuthenticator, socket SocketServer) *ChatHandler {
	return &ChatHandler{chat: chat, auth: auth, socket: socket}
}

func (h *ChatHandler) Members(w http.ResponseWriter, r *http.Request) {
	ms, err := h.chat.Members(r.Context())
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, "", map[string]any{"members": ms})
}

// History returns the caller's room with peerId, oldest first.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := session.PrincipalFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	msgs, err := h.chat.History(r.Context(), p.UID, chi.URLParam(r, "peerId"))
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, "", map[string]any{"messages": msgs})
}

// Socket refuses the upgrade with 401/403 unless the handshake carries a valid session.
func (h *ChatHandler) Socket(w http.ResponseWriter, r *http.Request) {
	p, code, err := h.auth.SocketPrincipal(r)
	if err != nil {
		msg := "Unauthorized"
		if code == http.StatusForbidden {
			msg = msgInvalidToken
		}
		respond.Error(w, code, msg)
		return
	}
	h.socket.Serve(w, r, p)
}
