// Command relay runs the WebSocket relay server that routes commands from
// controllers to agents and responses back.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"remotehands/internal/relay"
)

func main() {
	addr := flag.String("addr", ":8123", "Listen address")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	hub := relay.NewHub(log)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           relay.NewServer(hub, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("relay listening", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}
