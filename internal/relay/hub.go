// Package relay forwards commands from controllers to agents and responses
// back. Both sides dial in, so neither needs a reachable address; the relay
// is the only fixed point in the deployment.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// session is one connected peer. Abstracted from the websocket connection
// so the hub logic is testable without network plumbing.
type session interface {
	send(ctx context.Context, v any) error
}

// Hub tracks connected agents (by client ID) and controllers, and routes
// messages between them.
type Hub struct {
	log *slog.Logger

	mu          sync.Mutex
	clients     map[string]session
	controllers map[session]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:         log,
		clients:     make(map[string]session),
		controllers: make(map[session]struct{}),
	}
}

// RegisterClient adds an agent under its client ID, replacing any previous
// connection with that ID, and notifies controllers.
func (h *Hub) RegisterClient(ctx context.Context, id string, s session) {
	h.mu.Lock()
	h.clients[id] = s
	h.mu.Unlock()

	h.log.Info("client registered", "client_id", id)
	h.BroadcastToControllers(ctx, map[string]any{
		"type":      "client_connected",
		"client_id": id,
		"timestamp": timestamp(),
	})
}

// UnregisterClient removes an agent if the given session still owns its ID,
// and notifies controllers.
func (h *Hub) UnregisterClient(ctx context.Context, id string, s session) {
	h.mu.Lock()
	current, ok := h.clients[id]
	if ok && current == s {
		delete(h.clients, id)
	} else {
		ok = false
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	h.log.Info("client unregistered", "client_id", id)
	h.BroadcastToControllers(ctx, map[string]any{
		"type":      "client_disconnected",
		"client_id": id,
		"timestamp": timestamp(),
	})
}

// RegisterController adds a controller and sends it the current client list.
func (h *Hub) RegisterController(ctx context.Context, s session) {
	h.mu.Lock()
	h.controllers[s] = struct{}{}
	h.mu.Unlock()

	h.log.Info("controller registered")
	if err := s.send(ctx, map[string]any{
		"type":      "client_list",
		"clients":   h.ClientIDs(),
		"timestamp": timestamp(),
	}); err != nil {
		h.log.Warn("send client list", "error", err)
	}
}

// UnregisterController removes a controller.
func (h *Hub) UnregisterController(s session) {
	h.mu.Lock()
	delete(h.controllers, s)
	h.mu.Unlock()
	h.log.Info("controller unregistered")
}

// ClientIDs returns the IDs of all connected agents.
func (h *Hub) ClientIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// ForwardToClient delivers a controller message to the target agent.
func (h *Hub) ForwardToClient(ctx context.Context, id string, msg map[string]any) error {
	h.mu.Lock()
	s, ok := h.clients[id]
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("client %s not connected", id)
	}
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("send to client %s: %w", id, err)
	}
	return nil
}

// BroadcastToControllers delivers a message to every connected controller.
// Send failures are logged and skipped; a dead controller is cleaned up by
// its own connection handler.
func (h *Hub) BroadcastToControllers(ctx context.Context, msg map[string]any) {
	h.mu.Lock()
	targets := make([]session, 0, len(h.controllers))
	for s := range h.controllers {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		if err := s.send(ctx, msg); err != nil {
			h.log.Warn("broadcast to controller", "error", err)
		}
	}
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}
