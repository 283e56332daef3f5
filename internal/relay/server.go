package relay

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Server upgrades HTTP connections to WebSocket sessions and runs the
// registration-then-relay protocol: the first message declares the peer's
// role, every later message is routed by the hub.
type Server struct {
	hub *Hub
	log *slog.Logger
}

// NewServer creates a relay server over the given hub.
func NewServer(hub *Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{hub: hub, log: log}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn("websocket accept", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	s.handle(r.Context(), conn)
	conn.Close(websocket.StatusNormalClosure, "")
}

type wsSession struct {
	conn *websocket.Conn
}

func (s *wsSession) send(ctx context.Context, v any) error {
	return wsjson.Write(ctx, s.conn, v)
}

// handle runs one connection lifecycle.
func (s *Server) handle(ctx context.Context, conn *websocket.Conn) {
	sess := &wsSession{conn: conn}

	var first map[string]any
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		return
	}

	switch first["type"] {
	case "register_client":
		id, _ := first["client_id"].(string)
		if id == "" {
			_ = sess.send(ctx, map[string]any{"type": "error", "message": "client_id required"})
			return
		}
		s.hub.RegisterClient(ctx, id, sess)
		defer s.hub.UnregisterClient(ctx, id, sess)
		_ = sess.send(ctx, map[string]any{"type": "registered", "client_id": id})
		s.clientLoop(ctx, conn, id)

	case "register_controller":
		s.hub.RegisterController(ctx, sess)
		defer s.hub.UnregisterController(sess)
		_ = sess.send(ctx, map[string]any{"type": "registered", "role": "controller"})
		s.controllerLoop(ctx, conn, sess)

	default:
		_ = sess.send(ctx, map[string]any{"type": "error", "message": "first message must be registration"})
	}
}

// clientLoop forwards agent responses to all controllers, stamping them
// with the source client ID.
func (s *Server) clientLoop(ctx context.Context, conn *websocket.Conn, id string) {
	for {
		var msg map[string]any
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		msg["client_id"] = id
		msg["timestamp"] = timestamp()
		s.hub.BroadcastToControllers(ctx, msg)
	}
}

// controllerLoop forwards controller commands to the addressed agent.
func (s *Server) controllerLoop(ctx context.Context, conn *websocket.Conn, sess *wsSession) {
	for {
		var msg map[string]any
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}

		id, _ := msg["client_id"].(string)
		if id == "" {
			_ = sess.send(ctx, map[string]any{
				"type":      "error",
				"message":   "no client_id specified",
				"timestamp": timestamp(),
			})
			continue
		}

		if err := s.hub.ForwardToClient(ctx, id, msg); err != nil {
			_ = sess.send(ctx, map[string]any{
				"type":      "error",
				"message":   err.Error(),
				"timestamp": timestamp(),
			})
		}
	}
}
