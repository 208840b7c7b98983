package backend_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/PixelNoob/executionbackup/internal/backend"
	"github.com/PixelNoob/executionbackup/internal/headers"
)

var _ = Describe("Client", func() {
	var (
		client *backend.Client
		req    *backend.Request
	)

	BeforeEach(func() {
		client = backend.NewClient(nil)

		var h headers.HeaderMap
		h.Add("Content-Type", "application/json")
		req = &backend.Request{
			Method:  http.MethodPost,
			Path:    "/",
			Headers: h,
			Body:    []byte(`{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`),
		}
	})

	Describe("Send", func() {
		Context("against a responding node", func() {
			var (
				node           *httptest.Server
				receivedMethod string
				receivedHeader http.Header
				body           []byte
			)

			BeforeEach(func() {
				node = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					receivedMethod = r.Method
					receivedHeader = r.Header.Clone()
					body, _ = io.ReadAll(r.Body)

					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Vary", "Origin")
					w.WriteHeader(http.StatusOK)
					w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
				}))
			})

			AfterEach(func() {
				node.Close()
			})

			It("should return the status, headers and body", func() {
				b := backend.New(mustParseURL(node.URL), "")

				out := client.Send(context.Background(), b, req, time.Second)

				Expect(out.Succeeded()).To(BeTrue())
				Expect(out.Status).To(Equal(http.StatusOK))
				Expect(out.Body).To(Equal([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`)))
				Expect(out.Headers.Get("Vary")).To(Equal("Origin"))
			})

			It("should forward method, body and headers", func() {
				b := backend.New(mustParseURL(node.URL), "")

				client.Send(context.Background(), b, req, time.Second)

				Expect(receivedMethod).To(Equal(http.MethodPost))
				Expect(receivedHeader.Get("Content-Type")).To(Equal("application/json"))
				Expect(body).To(Equal(req.Body))
			})

			It("should force identity encoding on the way out", func() {
				b := backend.New(mustParseURL(node.URL), "")
				req.Headers.Add("Accept-Encoding", "gzip, br")

				client.Send(context.Background(), b, req, time.Second)

				Expect(receivedHeader.Values("Accept-Encoding")).To(Equal([]string{"identity"}))
			})

			It("should record a positive latency", func() {
				b := backend.New(mustParseURL(node.URL), "")

				out := client.Send(context.Background(), b, req, time.Second)

				Expect(out.Latency).To(BeNumerically(">", 0))
				Expect(b.EWMALatency()).To(BeNumerically(">", 0))
			})
		})

		Context("against a slow node", func() {
			It("should resolve to a timeout failure near the deadline", func() {
				node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					time.Sleep(2 * time.Second)
				}))
				defer node.Close()

				b := backend.New(mustParseURL(node.URL), "")

				start := time.Now()
				out := client.Send(context.Background(), b, req, 100*time.Millisecond)

				Expect(out.Succeeded()).To(BeFalse())
				Expect(out.Reason).To(Equal(backend.ReasonTimeout))
				Expect(out.Err).To(HaveOccurred())
				Expect(time.Since(start)).To(BeNumerically("<", time.Second))
			})
		})

		Context("against a refused connection", func() {
			It("should resolve to a connection failure", func() {
				// reserved port with nothing listening
				b := backend.New(mustParseURL("http://127.0.0.1:1"), "")

				out := client.Send(context.Background(), b, req, time.Second)

				Expect(out.Succeeded()).To(BeFalse())
				Expect(out.Reason).To(Equal(backend.ReasonConnectionError))
			})
		})

		Context("with a JWT secret configured", func() {
			It("should attach a bearer token", func() {
				var auth string
				node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					auth = r.Header.Get("Authorization")
				}))
				defer node.Close()

				authed := backend.NewClient([]byte("0123456789abcdef0123456789abcdef"))
				b := backend.New(mustParseURL(node.URL), "")

				authed.Send(context.Background(), b, req, time.Second)

				Expect(auth).To(HavePrefix("Bearer "))
			})
		})
	})
})
