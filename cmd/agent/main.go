// Command agent runs the remote hands client: it connects to the relay,
// waits for commands, locates UI elements on the live screen, and clicks
// them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"remotehands/internal/agent"
	"remotehands/internal/capture"
	"remotehands/internal/config"
	"remotehands/internal/locate"
	"remotehands/internal/template"
)

func main() {
	configPath := flag.String("config", "remotehands.json", "Path to JSON config file")
	server := flag.String("server", "", "WebSocket relay URL (overrides config)")
	clientID := flag.String("id", "", "Client ID (overrides config; default hostname)")
	templates := flag.String("templates", "", "Template image directory (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.ServerURL = *server
	}
	if *clientID != "" {
		cfg.ClientID = *clientID
	}
	if *templates != "" {
		cfg.TemplateDir = *templates
	}
	if *debug {
		cfg.Debug = true
	}
	cfg.Validate()

	log := newLogger(cfg.Debug)
	log.Info("starting agent",
		"server", cfg.ServerURL, "client_id", cfg.ClientID, "templates", cfg.TemplateDir)

	store := template.NewStore(cfg.TemplateDir, cfg.UpscaleBelow)
	defer store.Close()

	locator := locate.NewLocator(store, cfg.Locate, log)
	exec := agent.NewExecutor(locator, capture.ScreenCapturer{}, capture.SystemPointer{}, log)
	client := agent.NewClient(cfg.ServerURL, cfg.ClientID, exec, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("agent stopped", "error", err)
		os.Exit(1)
	}
	log.Info("agent shut down")
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
