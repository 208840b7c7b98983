package metrics_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/PixelNoob/executionbackup/internal/metrics"
)

func TestMetrics(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Metrics Suite")
}

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	It("should count relayed requests", func() {
		m.IncrementRequests()
		m.IncrementRequests()

		snap := m.Snapshot("fastest")

		Expect(snap.TotalRequests).To(Equal(int64(2)))
		Expect(snap.Policy).To(Equal("fastest"))
	})

	It("should track successful outcomes with latency percentiles", func() {
		for i := 1; i <= 100; i++ {
			m.RecordOutcome("geth-1", "", 200, time.Duration(i)*time.Millisecond)
		}

		snap := m.Snapshot("fastest")
		bm := snap.Backends["geth-1"]

		Expect(bm.Outcomes).To(Equal(int64(100)))
		Expect(bm.P50Latency).To(BeNumerically("~", 50*time.Millisecond, 5*time.Millisecond))
		Expect(bm.P95Latency).To(BeNumerically("~", 95*time.Millisecond, 5*time.Millisecond))
		Expect(bm.StatusCodes[200]).To(Equal(int64(100)))
	})

	It("should count failures by reason", func() {
		m.RecordOutcome("geth-1", "timeout", 0, time.Second)
		m.RecordOutcome("geth-1", "timeout", 0, time.Second)
		m.RecordOutcome("geth-1", "connection_error", 0, 0)

		bm := m.Snapshot("fastest").Backends["geth-1"]

		Expect(bm.Failures["timeout"]).To(Equal(int64(2)))
		Expect(bm.Failures["connection_error"]).To(Equal(int64(1)))
	})

	It("should track selections and health per backend", func() {
		m.RecordSelection("geth-1")
		m.UpdateHealthState("geth-1", "online")
		m.UpdateHealthState("geth-2", "offline")

		snap := m.Snapshot("fastest")

		Expect(snap.Backends["geth-1"].Selections).To(Equal(int64(1)))
		Expect(snap.Backends["geth-1"].Health).To(Equal("online"))
		Expect(snap.Backends["geth-2"].Health).To(Equal("offline"))
	})
})

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log := slog.New(slog.NewTextHandler(os.Stdout, nil))
		collector = metrics.NewCollector(64, log)
		ctx, cancel = context.WithCancel(context.Background())
		collector.Start(ctx)
	})

	AfterEach(func() {
		cancel()
	})

	It("should process emitted events asynchronously", func() {
		collector.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Timestamp: time.Now()})
		collector.Emit(metrics.MetricEvent{
			Type:       metrics.EventBackendOutcome,
			Backend:    "geth-1",
			StatusCode: 200,
			Duration:   10 * time.Millisecond,
		})

		Eventually(func() int64 {
			return collector.Snapshot("fastest").TotalRequests
		}).Should(Equal(int64(1)))
		Eventually(func() int64 {
			return collector.Snapshot("fastest").Backends["geth-1"].Outcomes
		}).Should(Equal(int64(1)))
	})

	It("should never block the caller when the buffer is full", func() {
		small := metrics.NewCollector(1, slog.Default())
		// not started: nothing drains the channel
		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			for i := 0; i < 100; i++ {
				small.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived})
			}
			close(done)
		}()

		Eventually(done).Should(BeClosed())
	})

	It("should serve a JSON snapshot over HTTP", func() {
		collector.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived})
		Eventually(func() int64 {
			return collector.Snapshot("quorum").TotalRequests
		}).Should(Equal(int64(1)))

		w := httptest.NewRecorder()
		collector.Handler("quorum")(w, httptest.NewRequest("GET", "/executionbackup/metrics", nil))

		Expect(w.Code).To(Equal(200))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))

		var snap metrics.Snapshot
		Expect(json.Unmarshal(w.Body.Bytes(), &snap)).To(Succeed())
		Expect(snap.Policy).To(Equal("quorum"))
	})
})
