// Package gateway is the chat socket: authenticated websocket connections grouped by user,
// relaying send_message frames to the pair's room as receive_message.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"staffhub/backend/internal/chat/domain"
	"staffhub/backend/internal/session"
)

// Event names on the wire.
const (
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventError          = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 32
)

// Frame is the envelope for every socket message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the send_message body and the receive_message body relayed to the room.
type SendMessagePayload struct {
	Message  string `json:"message"`
	SenderID string `json:"senderId"`
	ToID     string `json:"toId"`
}

// MessageSender persists a chat line.
type MessageSender interface {
	SendMessage(ctx context.Context, senderID, toID, text string) (*domain.Message, error)
}

// Hub tracks live connections per user id.
type Hub struct {
	chat     MessageSender
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	closed  bool
}

// NewHub returns a Hub. checkOrigin nil accepts same-origin requests only.
func NewHub(chat MessageSender, checkOrigin func(*http.Request) bool, log zerolog.Logger) *Hub {
	return &Hub{
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		log:     log.With().Str("component", "chat_gateway").Logger(),
		clients: make(map[string]map[*client]struct{}),
	}
}

// Serve upgrades the request for p and blocks until the connection ends.
// p must come from a verified session; the handshake is refused before this point otherwise.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, p *session.Principal) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{hub: h, conn: conn, uid: p.UID, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.log.Debug().Str("uid", c.uid).Msg("socket connected")
	go c.writeLoop()
	c.readLoop(r.Context())
	h.log.Debug().Str("uid", c.uid).Msg("socket disconnected")
}

// Connections returns the number of live connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.Unlock()
	for _, c := range all {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeWait))
		_ = c.conn.Close()
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set := h.clients[c.uid]
	if set == nil {
		set = make(map[*client]struct{})
		h.clients[c.uid] = set
	}
	set[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.uid]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.uid)
	}
	c.stop()
}

// relay persists the message and delivers receive_message to every connection in the room except from.
func (h *Hub) relay(ctx context.Context, from *client, in SendMessagePayload) {
	if in.SenderID != "" && in.SenderID != from.uid {
		h.log.Warn().Str("uid", from.uid).Str("claimed_sender", in.SenderID).Msg("send_message sender mismatch; using session uid")
	}
	in.SenderID = from.uid
	if _, err := h.chat.SendMessage(ctx, in.SenderID, in.ToID, in.Message); err != nil {
		h.log.Warn().Err(err).Str("uid", from.uid).Msg("send_message rejected")
		from.sendFrame(EventError, map[string]string{"message": "Message not sent"})
		return
	}
	frame, err := encodeFrame(EventReceiveMessage, in)
	if err != nil {
		return
	}
	h.mu.RLock()
	var targets []*client
	for _, uid := range []string{in.SenderID, in.ToID} {
		for c := range h.clients[uid] {
			if c != from {
				targets = append(targets, c)
			}
		}
		if in.ToID == in.SenderID {
			break
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.enqueue(frame)
	}
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}
