package handler_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/PixelNoob/executionbackup/internal/backend"
	"github.com/PixelNoob/executionbackup/internal/handler"
)

var _ = Describe("OpsHandler", func() {
	var log *slog.Logger

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
	})

	Describe("Status", func() {
		It("should report per-node states and answer 200 while a node is online", func() {
			online := backend.New(mustParseURL("http://localhost:8545"), "a")
			online.SetState(backend.StateOnline)
			syncing := backend.New(mustParseURL("http://localhost:8546"), "b")
			syncing.SetState(backend.StateSyncing)
			offline := backend.New(mustParseURL("http://localhost:8547"), "c")

			h := handler.NewOpsHandler(log, []*backend.Backend{online, syncing, offline}, nil, nil)

			w := httptest.NewRecorder()
			h.Status(w, httptest.NewRequest(http.MethodGet, "/executionbackup/status", nil))

			Expect(w.Code).To(Equal(http.StatusOK))

			var report map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &report)).To(Succeed())
			Expect(report["online"]).To(BeEquivalentTo(1))
			Expect(report["syncing"]).To(BeEquivalentTo(1))
			Expect(report["offline"]).To(BeEquivalentTo(1))
			Expect(report["nodes"]).To(HaveKeyWithValue("a", "online"))
		})

		It("should answer 503 with no online nodes", func() {
			offline := backend.New(mustParseURL("http://localhost:8545"), "a")
			h := handler.NewOpsHandler(log, []*backend.Backend{offline}, nil, nil)

			w := httptest.NewRecorder()
			h.Status(w, httptest.NewRequest(http.MethodGet, "/executionbackup/status", nil))

			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("Recheck", func() {
		It("should reject non-POST requests", func() {
			h := handler.NewOpsHandler(log, nil, nil, nil)

			w := httptest.NewRecorder()
			h.Recheck(w, httptest.NewRequest(http.MethodGet, "/executionbackup/recheck", nil))

			Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
		})

		It("should answer 501 when health checking is disabled", func() {
			h := handler.NewOpsHandler(log, nil, nil, nil)

			w := httptest.NewRecorder()
			h.Recheck(w, httptest.NewRequest(http.MethodPost, "/executionbackup/recheck", nil))

			Expect(w.Code).To(Equal(http.StatusNotImplemented))
		})
	})

	Describe("Version", func() {
		It("should report the relay version", func() {
			h := handler.NewOpsHandler(log, nil, nil, nil)

			w := httptest.NewRecorder()
			h.Version(w, httptest.NewRequest(http.MethodGet, "/executionbackup/version", nil))

			Expect(w.Body.String()).To(HavePrefix("executionbackup-" + handler.Version))
		})
	})
})
