package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamMessage is the envelope of every websocket text message.
type streamMessage struct {
	Type    string         `json:"type"`
	Payload *RenderPayload `json:"payload,omitempty"`
	Session *SessionInfo   `json:"session,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// WebSocketSink writes each payload to a websocket connection as a JSON
// "frame" message.
type WebSocketSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocketSink wraps conn. The caller keeps ownership of conn.
func NewWebSocketSink(conn *websocket.Conn) *WebSocketSink {
	return &WebSocketSink{conn: conn}
}

// Render implements Sink.
func (s *WebSocketSink) Render(ctx context.Context, p RenderPayload) error {
	return s.write(ctx, streamMessage{Type: "frame", Payload: &p})
}

// Finish sends a final "done" message carrying the session summary.
func (s *WebSocketSink) Finish(ctx context.Context, info SessionInfo) error {
	return s.write(ctx, streamMessage{Type: "done", Session: &info})
}

// Fail sends an "error" message.
func (s *WebSocketSink) Fail(ctx context.Context, err error) error {
	return s.write(ctx, streamMessage{Type: "error", Error: err.Error()})
}

func (s *WebSocketSink) write(ctx context.Context, msg streamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(wsWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetWriteDeadline(deadline)
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
