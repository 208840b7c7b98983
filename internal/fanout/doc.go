// Package fanout dispatches one relay request to every configured backend
// concurrently and joins all outcomes before returning. The join is
// all-or-nothing by design: downstream selection policies (quorum, fastest
// healthy) need the complete outcome set, so the coordinator never races for
// a first response. Failed backends produce failure entries, never absent
// ones, and entry order always matches the configured backend order
// regardless of completion order.
package fanout
