// Command controller sends one command to a remote agent through the relay
// and prints the response. It is the scripting counterpart of the agent:
// connect, register as controller, issue the command, wait for the answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func main() {
	server := flag.String("server", "ws://localhost:8123", "WebSocket relay URL")
	clientID := flag.String("client", "", "Target agent client ID")
	action := flag.String("action", "click_element", "Command action")
	element := flag.String("element", "", "Template name for click_element")
	index := flag.Int("index", 0, "Occurrence index for click_element")
	button := flag.String("button", "", "Mouse button (left, right, middle)")
	x := flag.Int("x", 0, "X coordinate or delta")
	y := flag.Int("y", 0, "Y coordinate or delta")
	offsetX := flag.Float64("offset-x", 0, "Click offset x (whole = pixels, fractional = screen %)")
	offsetY := flag.Float64("offset-y", 0, "Click offset y")
	screenshots := flag.Bool("screenshots", false, "Request before/after screenshot evidence")
	list := flag.Bool("list", false, "Only print the connected agents and exit")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall timeout")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !*list && *clientID == "" {
		fmt.Println("Usage: controller -client <id> [-action a] [-element name] ... | controller -list")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *server, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to relay: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, conn, map[string]any{"type": "register_controller"}); err != nil {
		fmt.Fprintf(os.Stderr, "Registration failed: %v\n", err)
		os.Exit(1)
	}

	cmd := map[string]any{
		"client_id": *clientID,
		"action":    *action,
	}
	if *element != "" {
		cmd["element"] = *element
	}
	if *index != 0 {
		cmd["index"] = *index
	}
	if *button != "" {
		cmd["button"] = *button
	}
	if set["x"] {
		cmd["x"] = *x
	}
	if set["y"] {
		cmd["y"] = *y
	}
	if set["offset-x"] || set["offset-y"] {
		cmd["offset"] = map[string]float64{"x": *offsetX, "y": *offsetY}
	}
	if *action == "click_element" {
		cmd["screenshot"] = *screenshots
	}

	sent := false
	for {
		var msg map[string]any
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			fmt.Fprintf(os.Stderr, "Connection lost: %v\n", err)
			os.Exit(1)
		}

		switch msg["type"] {
		case "registered":
			// client_list follows

		case "client_list":
			fmt.Printf("Connected agents: %v\n", msg["clients"])
			if *list {
				return
			}
			if err := wsjson.Write(ctx, conn, cmd); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to send command: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Sent %s to %s\n", *action, *clientID)
			sent = true

		case "response":
			if !sent {
				continue
			}
			fmt.Printf("\n[%s] %v: %v\n", msg["client_id"], msg["status"], msg["message"])
			if data, ok := msg["data"].(map[string]any); ok {
				if at, ok := data["clicked_at"].(map[string]any); ok {
					fmt.Printf("  clicked_at: (%v, %v)\n", at["x"], at["y"])
				}
				for _, key := range []string{"before_screenshot", "after_screenshot"} {
					if s, ok := data[key].(string); ok {
						fmt.Printf("  %s: %d base64 bytes\n", key, len(s))
					}
				}
			}
			if msg["status"] != "success" {
				os.Exit(2)
			}
			return

		case "error":
			fmt.Fprintf(os.Stderr, "Relay error: %v\n", msg["message"])
			os.Exit(1)

		case "client_connected", "client_disconnected":
			// agent churn while waiting; not our response
		}
	}
}
