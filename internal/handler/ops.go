package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/PixelNoob/executionbackup/internal/backend"
	"github.com/PixelNoob/executionbackup/internal/circuitbreaker"
	"github.com/PixelNoob/executionbackup/internal/healthcheck"
)

// Version is the relay release version reported by the version endpoint.
const Version = "1.2.0"

// OpsHandler serves the operational endpoints next to the relay path.
type OpsHandler struct {
	logger   *slog.Logger
	backends []*backend.Backend
	checker  *healthcheck.Checker
	breakers *circuitbreaker.Registry
}

// NewOpsHandler creates an OpsHandler. checker and breakers may be nil.
func NewOpsHandler(
	logger *slog.Logger,
	backends []*backend.Backend,
	checker *healthcheck.Checker,
	breakers *circuitbreaker.Registry,
) *OpsHandler {
	return &OpsHandler{
		logger:   logger,
		backends: backends,
		checker:  checker,
		breakers: breakers,
	}
}

type statusReport struct {
	Status   int               `json:"status"`
	Online   int               `json:"online"`
	Syncing  int               `json:"syncing"`
	Offline  int               `json:"offline"`
	Nodes    map[string]string `json:"nodes"`
	Breakers map[string]string `json:"breakers,omitempty"`
}

// Status reports node health counts. 200 while at least one node is online,
// 503 otherwise.
func (h *OpsHandler) Status(w http.ResponseWriter, r *http.Request) {
	report := statusReport{
		Nodes: make(map[string]string, len(h.backends)),
	}

	for _, b := range h.backends {
		state := b.State()
		report.Nodes[b.Label()] = state.String()

		switch state {
		case backend.StateOnline:
			report.Online++
		case backend.StateSyncing:
			report.Syncing++
		case backend.StateOffline:
			report.Offline++
		}
	}

	if h.breakers != nil {
		report.Breakers = h.breakers.States()
	}

	report.Status = http.StatusOK
	if report.Online == 0 {
		report.Status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(report.Status)
	json.NewEncoder(w).Encode(report)
}

// Recheck forces an immediate health probe round.
func (h *OpsHandler) Recheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.checker == nil {
		http.Error(w, "health checking disabled", http.StatusNotImplemented)
		return
	}

	h.logger.Info("Forced health recheck requested", slog.String("from", r.RemoteAddr))
	h.checker.CheckNow(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Version reports the relay build and runtime.
func (h *OpsHandler) Version(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "executionbackup-%s/%s-%s/%s", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
