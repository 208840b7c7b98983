package fanout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/PixelNoob/executionbackup/internal/backend"
	"github.com/PixelNoob/executionbackup/internal/circuitbreaker"
)

// ErrNoBackends is returned by Dispatch when the configured backend list is
// empty. This is a configuration error, not a runtime fault.
var ErrNoBackends = errors.New("no backends configured")

var errCircuitOpen = errors.New("circuit breaker open")

// Result pairs one backend with the outcome of its call.
type Result struct {
	Backend *backend.Backend
	Outcome backend.Outcome
}

// AggregatedResult holds exactly one Result per configured backend, in
// configured order.
type AggregatedResult []Result

// Successes returns the entries that received an HTTP response, preserving
// configured order.
func (a AggregatedResult) Successes() []Result {
	out := make([]Result, 0, len(a))
	for _, r := range a {
		if r.Outcome.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Failures returns the entries that did not receive an HTTP response,
// preserving configured order.
func (a AggregatedResult) Failures() []Result {
	out := make([]Result, 0, len(a))
	for _, r := range a {
		if !r.Outcome.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Coordinator fans one request out to all backends and joins the outcomes.
type Coordinator struct {
	logger   *slog.Logger
	client   *backend.Client
	breakers *circuitbreaker.Registry
}

// NewCoordinator creates a Coordinator. breakers may be nil to disable
// circuit breaking.
func NewCoordinator(logger *slog.Logger, client *backend.Client, breakers *circuitbreaker.Registry) *Coordinator {
	return &Coordinator{
		logger:   logger,
		client:   client,
		breakers: breakers,
	}
}

// Dispatch concurrently sends req to every backend and waits for all calls
// to resolve. The per-backend timeout bounds each call individually, so one
// unresponsive node cannot stall its siblings; the overall call completes
// when the slowest backend resolves. The returned result has one entry per
// backend in its input order, whatever the completion order was.
func (c *Coordinator) Dispatch(ctx context.Context, backends []*backend.Backend, req *backend.Request, timeout time.Duration) (AggregatedResult, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	results := make(AggregatedResult, len(backends))

	var wg sync.WaitGroup

	for i, b := range backends {
		wg.Add(1)

		go func(idx int, b *backend.Backend) {
			defer wg.Done()

			results[idx] = Result{
				Backend: b,
				Outcome: c.send(ctx, b, req, timeout),
			}
		}(i, b)
	}

	wg.Wait()

	return results, nil
}

func (c *Coordinator) send(ctx context.Context, b *backend.Backend, req *backend.Request, timeout time.Duration) backend.Outcome {
	var br *circuitbreaker.Breaker
	if c.breakers != nil {
		br = c.breakers.Get(b.URL().String())
		if !br.Allow() {
			c.logger.Debug("Skipping backend, circuit open",
				slog.String("backend", b.Label()))
			return backend.Failure(backend.ReasonConnectionError, errCircuitOpen, 0)
		}
	}

	out := c.client.Send(ctx, b, req, timeout)

	if br != nil {
		switch out.Reason {
		case backend.ReasonTimeout, backend.ReasonConnectionError:
			br.RecordFailure()
		default:
			br.RecordSuccess()
		}
	}

	if !out.Succeeded() {
		c.logger.Debug("Backend call failed",
			slog.String("backend", b.Label()),
			slog.String("reason", out.Reason.String()),
			slog.Any("err", out.Err))
	}

	return out
}
