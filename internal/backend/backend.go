package backend

import (
	"net/url"
	"sync"
	"time"
)

// State describes a node's last observed health.
type State int

const (
	StateOffline State = iota
	StateSyncing       // reachable but not caught up to head
	StateOnline
)

func (s State) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateSyncing:
		return "syncing"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Backend is one configured execution node. Identity fields are immutable;
// health state and latency tracking are guarded by the mutex.
type Backend struct {
	url   *url.URL
	label string

	mutex       sync.Mutex
	state       State
	ewmaLatency time.Duration
	hasEWMA     bool
}

const ewmaAlpha = 0.2

// New creates a Backend for the given URL. If label is empty the URL's host
// is used. The backend starts offline until a health probe reports otherwise.
func New(u *url.URL, label string) *Backend {
	if label == "" {
		label = u.Host
	}
	return &Backend{
		url:   u,
		label: label,
	}
}

// URL returns the node's base URL.
func (b *Backend) URL() *url.URL {
	return b.url
}

// Label returns the configured label, falling back to the URL host.
func (b *Backend) Label() string {
	return b.label
}

// State returns the last observed health state.
func (b *Backend) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// SetState updates the health state.
// Returns true if the state changed, false if it was already in that state.
func (b *Backend) SetState(state State) (changed bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.state == state {
		return false
	}

	b.state = state
	return true
}

// RecordLatency updates the exponentially weighted moving average (EWMA)
// latency using the latest observed round trip.
func (b *Backend) RecordLatency(duration time.Duration) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.hasEWMA {
		b.ewmaLatency = duration
		b.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	b.ewmaLatency = time.Duration((1-ewmaAlpha)*float64(b.ewmaLatency) + ewmaAlpha*float64(duration))
}

// EWMALatency returns the exponentially weighted moving average latency.
// Returns 0 if no round trips have been recorded yet.
func (b *Backend) EWMALatency() time.Duration {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.hasEWMA {
		return 0
	}

	return b.ewmaLatency
}
