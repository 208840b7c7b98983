package circuitbreaker

import (
	"sync"
	"time"
)

// Registry holds one Breaker per backend node, keyed by node URL.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*Breaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

// Get returns the breaker for the given node URL, creating it on first use.
func (r *Registry) Get(nodeURL string) *Breaker {
	r.mutex.RLock()
	cb, exists := r.breakers[nodeURL]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[nodeURL]; exists {
		return cb
	}

	cb = New(r.threshold, r.timeout)
	r.breakers[nodeURL] = cb
	return cb
}

// States returns the current state of every known breaker, for the status
// endpoint.
func (r *Registry) States() map[string]string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[string]string, len(r.breakers))
	for nodeURL, cb := range r.breakers {
		states[nodeURL] = cb.State().String()
	}
	return states
}
