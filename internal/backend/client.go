package backend

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/PixelNoob/executionbackup/internal/headers"
)

// Client issues outbound calls to execution nodes. A single Client is shared
// across all backends and requests; every Send is independent.
type Client struct {
	httpClient *http.Client
	jwtSecret  []byte
}

// NewClient creates a Client. jwtSecret may be nil when the nodes do not
// require engine-API authentication.
func NewClient(jwtSecret []byte) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DisableCompression:  true,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
		jwtSecret: jwtSecret,
	}
}

// Send performs exactly one outbound HTTP call to the given backend and
// resolves it to an Outcome. The timeout bounds the whole call; once it
// fires, the in-flight request is abandoned and a timeout failure is
// recorded. Send never returns an error: transport faults are folded into
// the Outcome so concurrent sibling calls are unaffected.
func (c *Client) Send(ctx context.Context, b *Backend, req *Request, timeout time.Duration) Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	target := strings.TrimSuffix(b.URL().String(), "/") + req.Path

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(req.Body))
	if err != nil {
		return Failure(ReasonConnectionError, err, time.Since(start))
	}

	// Nodes may compress responses we would then forward with stale
	// content headers, so always ask for identity.
	httpReq.Header = headers.ToWire(req.Headers.Del("Accept-Encoding"))
	httpReq.Header.Set("Accept-Encoding", "identity")

	if c.jwtSecret != nil {
		token, err := c.authToken()
		if err != nil {
			return Failure(ReasonConnectionError, fmt.Errorf("signing auth token: %w", err), time.Since(start))
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Failure(classify(err), err, time.Since(start))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	latency := time.Since(start)
	if err != nil {
		if isTimeout(err) {
			return Failure(ReasonTimeout, err, latency)
		}
		return Failure(ReasonInvalidResponse, err, latency)
	}

	b.RecordLatency(latency)

	return Outcome{
		Status:  resp.StatusCode,
		Headers: headers.FromWire(resp.Header),
		Body:    body,
		Latency: latency,
	}
}

// authToken signs a short-lived engine-API token. The engine spec only
// requires an iat claim signed with the shared secret.
func (c *Client) authToken() (string, error) {
	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.jwtSecret)
}

func classify(err error) FailureReason {
	if isTimeout(err) {
		return ReasonTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonConnectionError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ReasonConnectionError
	}

	// The connection worked but the byte stream was not a well-formed
	// HTTP response.
	return ReasonInvalidResponse
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// LoadJWTSecret reads a hex-encoded engine-API secret from disk.
func LoadJWTSecret(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading jwt secret: %w", err)
	}

	encoded := strings.TrimSpace(string(raw))
	encoded = strings.TrimPrefix(encoded, "0x")

	secret, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding jwt secret: %w", err)
	}

	return secret, nil
}
