package healthcheck_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/PixelNoob/executionbackup/internal/backend"
	"github.com/PixelNoob/executionbackup/internal/healthcheck"
)

func TestHealthcheck(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Healthcheck Suite")
}

func mustParseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}

func rpcNode(result string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
}

var _ = Describe("Checker", func() {
	var log *slog.Logger

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
	})

	newChecker := func(backends ...*backend.Backend) *healthcheck.Checker {
		return healthcheck.NewChecker(log, backend.NewClient(nil), backends, time.Minute, time.Second, nil)
	}

	Describe("CheckNow", func() {
		It("should mark a node answering false as online", func() {
			node := rpcNode("false")
			defer node.Close()

			b := backend.New(mustParseURL(node.URL), "")
			newChecker(b).CheckNow(context.Background())

			Expect(b.State()).To(Equal(backend.StateOnline))
		})

		It("should mark a node reporting sync progress as syncing", func() {
			node := rpcNode(`{"startingBlock":"0x0","currentBlock":"0x10","highestBlock":"0x20"}`)
			defer node.Close()

			b := backend.New(mustParseURL(node.URL), "")
			newChecker(b).CheckNow(context.Background())

			Expect(b.State()).To(Equal(backend.StateSyncing))
		})

		It("should mark an unreachable node as offline", func() {
			node := rpcNode("false")
			b := backend.New(mustParseURL(node.URL), "")

			newChecker(b).CheckNow(context.Background())
			Expect(b.State()).To(Equal(backend.StateOnline))

			node.Close()
			newChecker(b).CheckNow(context.Background())

			Expect(b.State()).To(Equal(backend.StateOffline))
		})

		It("should mark a node returning garbage as offline", func() {
			node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			}))
			defer node.Close()

			b := backend.New(mustParseURL(node.URL), "")
			newChecker(b).CheckNow(context.Background())

			Expect(b.State()).To(Equal(backend.StateOffline))
		})

		It("should probe every node in one round", func() {
			online := rpcNode("false")
			syncing := rpcNode(`{"currentBlock":"0x10"}`)
			defer online.Close()
			defer syncing.Close()

			b1 := backend.New(mustParseURL(online.URL), "online")
			b2 := backend.New(mustParseURL(syncing.URL), "syncing")
			b3 := backend.New(mustParseURL("http://127.0.0.1:1"), "dead")

			newChecker(b1, b2, b3).CheckNow(context.Background())

			Expect(b1.State()).To(Equal(backend.StateOnline))
			Expect(b2.State()).To(Equal(backend.StateSyncing))
			Expect(b3.State()).To(Equal(backend.StateOffline))
		})
	})

	Describe("Start", func() {
		It("should run an immediate round and stop with the context", func() {
			node := rpcNode("false")
			defer node.Close()

			b := backend.New(mustParseURL(node.URL), "")
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			newChecker(b).Start(ctx)

			Eventually(b.State, "2s", "50ms").Should(Equal(backend.StateOnline))
		})
	})
})
