// Package metrics provides real-time metrics collection for the relay.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Relayed request counts
//   - Per-backend outcome counts and failure reasons
//   - Per-backend latencies with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution per backend
//   - Backend health state tracking
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the request path. Events are sent via buffered channels with
// non-blocking semantics so a saturated collector degrades to dropped
// samples, never to added latency.
package metrics
