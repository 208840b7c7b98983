package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/PixelNoob/executionbackup/internal/backend"
	"github.com/PixelNoob/executionbackup/internal/fanout"
	"github.com/PixelNoob/executionbackup/internal/headers"
	"github.com/PixelNoob/executionbackup/internal/metrics"
	"github.com/PixelNoob/executionbackup/internal/selector"
)

// RelayHandler is the relay entry point for all proxied traffic.
type RelayHandler struct {
	logger      *slog.Logger
	coordinator *fanout.Coordinator
	policy      selector.Policy
	backends    []*backend.Backend
	timeout     time.Duration
	collector   *metrics.Collector
}

func NewRelayHandler(
	logger *slog.Logger,
	coordinator *fanout.Coordinator,
	policy selector.Policy,
	backends []*backend.Backend,
	timeout time.Duration,
	collector *metrics.Collector,
) *RelayHandler {
	return &RelayHandler{
		logger:      logger,
		coordinator: coordinator,
		policy:      policy,
		backends:    backends,
		timeout:     timeout,
		collector:   collector,
	}
}

func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := h.logger.With(slog.String("request_id", requestID))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Internal fault while relaying request", slog.Any("panic", rec))
			http.Error(w, "internal relay fault", http.StatusInternalServerError)
		}
	}()

	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Warn("Failed to read request body", slog.Any("err", err))
		http.Error(w, "unreadable request body", http.StatusBadRequest)
		return
	}

	log.Info("Received request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("from", r.RemoteAddr),
		slog.Int("body_bytes", len(body)))

	h.emitEvent(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Timestamp: time.Now(),
	})

	req := &backend.Request{
		Method:  r.Method,
		Path:    r.URL.RequestURI(),
		Headers: headers.FromWire(r.Header),
		Body:    body,
	}

	results, err := h.coordinator.Dispatch(r.Context(), h.backends, req, h.timeout)
	if err != nil {
		if errors.Is(err, fanout.ErrNoBackends) {
			log.Error("No backends configured")
			http.Error(w, "no backends configured", http.StatusServiceUnavailable)
			return
		}
		log.Error("Dispatch failed", slog.Any("err", err))
		http.Error(w, "internal relay fault", http.StatusInternalServerError)
		return
	}

	for _, res := range results {
		h.emitEvent(metrics.MetricEvent{
			Type:       metrics.EventBackendOutcome,
			Timestamp:  time.Now(),
			Backend:    res.Backend.Label(),
			Duration:   res.Outcome.Latency,
			StatusCode: res.Outcome.Status,
			Reason:     failureReason(res.Outcome),
		})
	}

	decision := h.policy.Select(results)

	if decision.Backend != nil {
		log.Info("Forwarding backend response",
			slog.String("backend", decision.Backend.Label()),
			slog.Int("status", decision.Response.Status),
			slog.Duration("elapsed", time.Since(start)))

		h.emitEvent(metrics.MetricEvent{
			Type:      metrics.EventBackendSelected,
			Timestamp: time.Now(),
			Backend:   decision.Backend.Label(),
		})
	} else {
		log.Warn("No backend response usable",
			slog.Int("status", decision.Response.Status),
			slog.Duration("elapsed", time.Since(start)))
	}

	h.writeResponse(w, decision)
}

func (h *RelayHandler) writeResponse(w http.ResponseWriter, decision selector.Decision) {
	// Content-Length is recomputed by net/http for the body we actually
	// write, a stale backend value must not survive translation.
	wire := headers.ToWire(decision.Response.Headers.Del("Content-Length"))
	for key, values := range wire {
		w.Header()[key] = values
	}

	if decision.Backend != nil {
		w.Header().Set("X-Relay-Backend", decision.Backend.Label())
	}

	w.WriteHeader(decision.Response.Status)
	w.Write(decision.Response.Body)
}

func (h *RelayHandler) emitEvent(event metrics.MetricEvent) {
	if h.collector == nil {
		return
	}

	h.collector.Emit(event)
}

func failureReason(out backend.Outcome) string {
	if out.Succeeded() {
		return ""
	}
	return out.Reason.String()
}
