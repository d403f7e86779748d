package speech

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests to websocket sessions.
type Server struct {
	handler  *Handler
	upgrader websocket.Upgrader
}

// NewServer creates a websocket endpoint. origins lists the allowed Origin
// headers; "*" allows any.
func NewServer(handler *Handler, origins []string) *Server {
	return &Server{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
			},
		},
	}
}

type wsEmitter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (e *wsEmitter) Emit(event string, data any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.conn.WriteJSON(Outbound{Event: event, Data: data})
}

// ServeHTTP runs one connection. Events are processed in arrival order.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := s.handler.Connect()
	defer s.handler.Disconnect(id)

	emit := &wsEmitter{conn: conn}
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("Websocket read ended", "session", id, "error", err)
			}
			return
		}

		switch kind {
		case websocket.BinaryMessage:
			samples, err := DecodeFloat32LE(msg)
			if err != nil {
				slog.Warn("Invalid audio frame", "session", id, "bytes", len(msg))
				continue
			}
			s.handler.AudioChunk(id, samples)

		case websocket.TextMessage:
			var in Inbound
			if err := json.Unmarshal(msg, &in); err != nil {
				slog.Warn("Invalid event", "session", id, "error", err)
				continue
			}
			if err := s.handler.Dispatch(ctx, id, in, emit); err != nil {
				slog.Error("Failed to send event", "session", id, "error", err)
				return
			}
		}
	}
}
