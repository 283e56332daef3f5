package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	reconnectBaseDelay = 2 * time.Second
	reconnectMaxDelay  = 60 * time.Second
)

// Client maintains the agent's outbound connection to the relay. It
// registers under a client ID, then executes incoming commands and sends
// their responses back. The connection direction means the agent works from
// behind NAT without any inbound port.
type Client struct {
	serverURL string
	clientID  string
	exec      *Executor
	log       *slog.Logger
}

// NewClient creates a relay client for the given executor.
func NewClient(serverURL, clientID string, exec *Executor, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{serverURL: serverURL, clientID: clientID, exec: exec, log: log}
}

// Run connects to the relay and serves commands until the context is
// canceled, reconnecting with exponential backoff on connection loss.
func (c *Client) Run(ctx context.Context) error {
	delay := reconnectBaseDelay
	for {
		started := time.Now()
		err := c.serve(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(started) > reconnectMaxDelay {
			// The connection held for a while; start backing off from scratch.
			delay = reconnectBaseDelay
		}
		c.log.Warn("relay connection lost", "error", err, "retry_in", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

// serve runs one connection lifecycle: dial, register, command loop.
func (c *Client) serve(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	if err := c.register(ctx, conn); err != nil {
		return err
	}
	c.log.Info("registered with relay", "server", c.serverURL, "client_id", c.clientID)

	for {
		var cmd Command
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		resp := c.exec.Execute(cmd)
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

func (c *Client) register(ctx context.Context, conn *websocket.Conn) error {
	reg := map[string]string{
		"type":      "register_client",
		"client_id": c.clientID,
	}
	if err := wsjson.Write(ctx, conn, reg); err != nil {
		return fmt.Errorf("send registration: %w", err)
	}

	var ack struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := wsjson.Read(ctx, conn, &ack); err != nil {
		return fmt.Errorf("read registration ack: %w", err)
	}
	if ack.Type != "registered" {
		return fmt.Errorf("registration rejected: %s", ack.Message)
	}
	return nil
}
