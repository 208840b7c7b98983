package backend_test

import (
	"net/url"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/PixelNoob/executionbackup/internal/backend"
)

func TestBackend(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Backend Suite")
}

func mustParseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}

var _ = Describe("Backend", func() {
	Describe("New", func() {
		It("should start offline", func() {
			b := backend.New(mustParseURL("http://localhost:8545"), "geth-1")
			Expect(b.State()).To(Equal(backend.StateOffline))
		})

		It("should fall back to the URL host as label", func() {
			b := backend.New(mustParseURL("http://localhost:8545"), "")
			Expect(b.Label()).To(Equal("localhost:8545"))
		})

		It("should keep the configured label", func() {
			b := backend.New(mustParseURL("http://localhost:8545"), "geth-1")
			Expect(b.Label()).To(Equal("geth-1"))
		})
	})

	Describe("SetState", func() {
		It("should report a change", func() {
			b := backend.New(mustParseURL("http://localhost:8545"), "")

			Expect(b.SetState(backend.StateOnline)).To(BeTrue())
			Expect(b.State()).To(Equal(backend.StateOnline))
		})

		It("should report no change when the state is unchanged", func() {
			b := backend.New(mustParseURL("http://localhost:8545"), "")
			b.SetState(backend.StateSyncing)

			Expect(b.SetState(backend.StateSyncing)).To(BeFalse())
		})
	})

	Describe("RecordLatency", func() {
		It("should seed the EWMA with the first observation", func() {
			b := backend.New(mustParseURL("http://localhost:8545"), "")
			b.RecordLatency(100 * time.Millisecond)

			Expect(b.EWMALatency()).To(Equal(100 * time.Millisecond))
		})

		It("should smooth further observations", func() {
			b := backend.New(mustParseURL("http://localhost:8545"), "")
			b.RecordLatency(100 * time.Millisecond)
			b.RecordLatency(200 * time.Millisecond)

			ewma := b.EWMALatency()
			Expect(ewma).To(BeNumerically(">", 100*time.Millisecond))
			Expect(ewma).To(BeNumerically("<", 200*time.Millisecond))
		})

		It("should return 0 before any observation", func() {
			b := backend.New(mustParseURL("http://localhost:8545"), "")
			Expect(b.EWMALatency()).To(BeZero())
		})
	})

	Describe("State", func() {
		DescribeTable("String",
			func(state backend.State, expected string) {
				Expect(state.String()).To(Equal(expected))
			},
			Entry("online", backend.StateOnline, "online"),
			Entry("syncing", backend.StateSyncing, "syncing"),
			Entry("offline", backend.StateOffline, "offline"),
		)
	})
})
