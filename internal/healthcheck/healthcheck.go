package healthcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/PixelNoob/executionbackup/internal/backend"
	"github.com/PixelNoob/executionbackup/internal/headers"
	"github.com/PixelNoob/executionbackup/internal/metrics"
)

const syncingProbe = `{"jsonrpc":"2.0","method":"eth_syncing","params":[],"id":1}`

// Checker runs periodic health probes against all configured nodes.
type Checker struct {
	logger    *slog.Logger
	client    *backend.Client
	backends  []*backend.Backend
	interval  time.Duration
	timeout   time.Duration
	collector *metrics.Collector
}

// NewChecker creates a Checker. collector may be nil.
func NewChecker(
	logger *slog.Logger,
	client *backend.Client,
	backends []*backend.Backend,
	interval time.Duration,
	timeout time.Duration,
	collector *metrics.Collector,
) *Checker {
	return &Checker{
		logger:    logger,
		client:    client,
		backends:  backends,
		interval:  interval,
		timeout:   timeout,
		collector: collector,
	}
}

// Start launches the probe loop. An immediate round runs before the first
// tick so the status endpoint is meaningful right after startup.
func (c *Checker) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Checker) run(ctx context.Context) {
	c.CheckNow(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Health checker stopped")
			return
		case <-ticker.C:
			c.CheckNow(ctx)
		}
	}
}

// CheckNow probes every node concurrently and waits for all probes to
// resolve.
func (c *Checker) CheckNow(ctx context.Context) {
	var wg sync.WaitGroup

	for _, b := range c.backends {
		wg.Add(1)

		go func(b *backend.Backend) {
			defer wg.Done()
			c.probe(ctx, b)
		}(b)
	}

	wg.Wait()
}

func (c *Checker) probe(ctx context.Context, b *backend.Backend) {
	var h headers.HeaderMap
	h.Add("Content-Type", "application/json")

	req := &backend.Request{
		Method:  http.MethodPost,
		Path:    "/",
		Headers: h,
		Body:    []byte(syncingProbe),
	}

	out := c.client.Send(ctx, b, req, c.timeout)

	state := classify(out)

	changed := b.SetState(state)
	if changed {
		switch state {
		case backend.StateOnline:
			c.logger.Info("Node is online",
				slog.String("node", b.Label()))
		case backend.StateSyncing:
			c.logger.Info("Node is alive but currently syncing",
				slog.String("node", b.Label()))
		case backend.StateOffline:
			c.logger.Warn("Node is offline",
				slog.String("node", b.Label()),
				slog.Any("err", out.Err))
		}

		if c.collector != nil {
			c.collector.Emit(metrics.MetricEvent{
				Type:      metrics.EventHealthChanged,
				Timestamp: time.Now(),
				Backend:   b.Label(),
				Health:    state.String(),
			})
		}
	}
}

// classify maps a probe outcome to a node state. eth_syncing answers false
// when the node is at head and a progress object while it catches up; an
// unreadable answer counts as offline.
func classify(out backend.Outcome) backend.State {
	if !out.Succeeded() || out.Status != http.StatusOK {
		return backend.StateOffline
	}

	var rpc struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(out.Body, &rpc); err != nil || len(rpc.Result) == 0 {
		return backend.StateOffline
	}

	var syncing bool
	if err := json.Unmarshal(rpc.Result, &syncing); err == nil {
		if !syncing {
			return backend.StateOnline
		}
		// `true` is not a valid eth_syncing answer, treat as syncing
		return backend.StateSyncing
	}

	var progress map[string]any
	if err := json.Unmarshal(rpc.Result, &progress); err == nil {
		return backend.StateSyncing
	}

	return backend.StateOffline
}
