package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex        sync.RWMutex
	requests     int64
	outcomes     map[string]int64
	failures     map[string]map[string]int64
	latencies    map[string][]time.Duration
	statusCodes  map[string]map[int]int64
	selections   map[string]int64
	healthStates map[string]string
	startTime    time.Time
}

type Snapshot struct {
	TotalRequests int64                     `json:"total_requests"`
	Uptime        time.Duration             `json:"uptime"`
	Backends      map[string]BackendMetrics `json:"backends"`
	Policy        string                    `json:"policy"`
}

type BackendMetrics struct {
	Outcomes    int64            `json:"outcomes"`
	Selections  int64            `json:"selections"`
	Failures    map[string]int64 `json:"failures"`
	Health      string           `json:"health"`
	AvgLatency  time.Duration    `json:"avg_latency"`
	P50Latency  time.Duration    `json:"p50_latency"`
	P95Latency  time.Duration    `json:"p95_latency"`
	P99Latency  time.Duration    `json:"p99_latency"`
	StatusCodes map[int]int64    `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		outcomes:     make(map[string]int64),
		failures:     make(map[string]map[string]int64),
		latencies:    make(map[string][]time.Duration),
		statusCodes:  make(map[string]map[int]int64),
		selections:   make(map[string]int64),
		healthStates: make(map[string]string),
		startTime:    time.Now(),
	}
}

func (m *Metrics) IncrementRequests() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests++
}

func (m *Metrics) RecordSelection(backend string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.selections[backend]++
}

func (m *Metrics) RecordOutcome(backend string, reason string, statusCode int, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.outcomes[backend]++

	if reason != "" {
		if m.failures[backend] == nil {
			m.failures[backend] = make(map[string]int64)
		}
		m.failures[backend][reason]++
		return
	}

	m.latencies[backend] = append(m.latencies[backend], latency)
	if len(m.latencies[backend]) > 1000 {
		m.latencies[backend] = m.latencies[backend][1:]
	}

	if m.statusCodes[backend] == nil {
		m.statusCodes[backend] = make(map[int]int64)
	}
	m.statusCodes[backend][statusCode]++
}

func (m *Metrics) UpdateHealthState(backend string, state string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStates[backend] = state
}

func (m *Metrics) Snapshot(policy string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalRequests: m.requests,
		Uptime:        time.Since(m.startTime),
		Backends:      make(map[string]BackendMetrics),
		Policy:        policy,
	}

	// Collect all unique backend labels
	allBackends := make(map[string]bool)
	for backend := range m.outcomes {
		allBackends[backend] = true
	}
	for backend := range m.selections {
		allBackends[backend] = true
	}
	for backend := range m.healthStates {
		allBackends[backend] = true
	}

	for backend := range allBackends {
		bm := BackendMetrics{
			Outcomes:    m.outcomes[backend],
			Selections:  m.selections[backend],
			Failures:    m.failures[backend],
			Health:      m.healthStates[backend],
			StatusCodes: m.statusCodes[backend],
		}

		durations := m.latencies[backend]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			bm.AvgLatency = average(sorted)
			bm.P50Latency = percentile(sorted, 0.50)
			bm.P95Latency = percentile(sorted, 0.95)
			bm.P99Latency = percentile(sorted, 0.99)
		}

		snap.Backends[backend] = bm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
