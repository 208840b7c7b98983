// Package handler implements the relay's HTTP boundary. RelayHandler turns
// one inbound request into a concurrent fan-out over all configured nodes
// and writes back the response chosen by the selection policy; OpsHandler
// serves the status, version and recheck endpoints. A fault in the
// coordination path is contained to its own request: it becomes a 500, never
// a crash.
package handler
