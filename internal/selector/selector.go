package selector

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"

	"github.com/PixelNoob/executionbackup/internal/backend"
	"github.com/PixelNoob/executionbackup/internal/fanout"
	"github.com/PixelNoob/executionbackup/internal/headers"
)

// Response is the single value the relay returns to the caller.
type Response struct {
	Status  int
	Headers headers.HeaderMap
	Body    []byte
}

// Decision is a policy's choice. Backend is nil when the policy synthesized
// the response itself rather than forwarding a backend's.
type Decision struct {
	Response Response
	Backend  *backend.Backend
}

// Policy reduces a non-empty aggregated result to one decision.
type Policy interface {
	Select(results fanout.AggregatedResult) Decision
}

// healthy reports whether a status is in the healthy class.
func healthy(status int) bool {
	return status >= 200 && status < 300
}

// forward copies a success's status, headers and body verbatim. Header
// translation to the wire form happens at the relay entry point, not here.
func forward(r fanout.Result) Decision {
	return Decision{
		Response: Response{
			Status:  r.Outcome.Status,
			Headers: r.Outcome.Headers,
			Body:    r.Outcome.Body,
		},
		Backend: r.Backend,
	}
}

// synthesize builds a relay-generated plain text response.
func synthesize(status int, body string) Decision {
	var h headers.HeaderMap
	h.Add("Content-Type", "text/plain; charset=utf-8")

	return Decision{
		Response: Response{
			Status:  status,
			Headers: h,
			Body:    []byte(body),
		},
	}
}

// unavailable is the shared total-failure response: a 502 whose body names
// every backend and its failure reason.
func unavailable(results fanout.AggregatedResult) Decision {
	var errs *multierror.Error
	for _, r := range results.Failures() {
		if r.Outcome.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s: %v", r.Backend.Label(), r.Outcome.Reason, r.Outcome.Err))
			continue
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %s", r.Backend.Label(), r.Outcome.Reason))
	}

	return synthesize(http.StatusBadGateway, fmt.Sprintf("all backends failed\n%s", errs.Error()))
}

// fastestSuccess picks the lowest-latency entry among candidates, breaking
// ties by configured order: only a strictly lower latency displaces an
// earlier entry, so the choice is deterministic under timing jitter.
func fastestSuccess(candidates []fanout.Result) (fanout.Result, bool) {
	var best fanout.Result
	found := false

	for _, r := range candidates {
		if !found || r.Outcome.Latency < best.Outcome.Latency {
			best = r
			found = true
		}
	}

	return best, found
}

// onlyHealthy filters candidates down to healthy-class statuses, preserving
// order.
func onlyHealthy(candidates []fanout.Result) []fanout.Result {
	out := make([]fanout.Result, 0, len(candidates))
	for _, r := range candidates {
		if healthy(r.Outcome.Status) {
			out = append(out, r)
		}
	}
	return out
}
