package main

import (
	"net/http"

	"github.com/PixelNoob/executionbackup/internal/handler"
	"github.com/PixelNoob/executionbackup/internal/metrics"
)

// setupRouter mounts the ops endpoints under /executionbackup/ and hands
// everything else to the relay. The relay path must stay a catch-all so
// arbitrary JSON-RPC routes reach the nodes untouched.
func setupRouter(relay *handler.RelayHandler, ops *handler.OpsHandler, collector *metrics.Collector, policy string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/executionbackup/status", ops.Status)
	mux.HandleFunc("/executionbackup/version", ops.Version)
	mux.HandleFunc("/executionbackup/recheck", ops.Recheck)
	mux.HandleFunc("/executionbackup/metrics", collector.Handler(policy))
	mux.Handle("/", relay)

	return mux
}
