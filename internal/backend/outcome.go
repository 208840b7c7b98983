package backend

import (
	"time"

	"github.com/PixelNoob/executionbackup/internal/headers"
)

// FailureReason classifies why a backend call produced no usable response.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonTimeout
	ReasonConnectionError
	ReasonInvalidResponse
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTimeout:
		return "timeout"
	case ReasonConnectionError:
		return "connection_error"
	case ReasonInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Request is the relay-internal form of one inbound HTTP request. It is
// immutable after construction and shared read-only across concurrent
// backend dispatches.
type Request struct {
	Method  string
	Path    string
	Headers headers.HeaderMap
	Body    []byte
}

// Outcome is the result of one backend call. Either a response arrived
// (Reason == ReasonNone, Status/Headers/Body populated) or the call failed
// (Reason set, Err holding the underlying error). Latency covers dispatch to
// resolution in both cases. An Outcome is never mutated after creation.
type Outcome struct {
	Status  int
	Headers headers.HeaderMap
	Body    []byte
	Latency time.Duration
	Reason  FailureReason
	Err     error
}

// Succeeded reports whether an HTTP response was received, regardless of its
// status code.
func (o Outcome) Succeeded() bool {
	return o.Reason == ReasonNone
}

// Failure builds a failed Outcome.
func Failure(reason FailureReason, err error, latency time.Duration) Outcome {
	return Outcome{
		Reason:  reason,
		Err:     err,
		Latency: latency,
	}
}
