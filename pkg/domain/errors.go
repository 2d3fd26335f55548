package domain

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// ErrorKind classifies AI provider failures
type ErrorKind int

const (
	// KindTransport covers unreachable networks and timeouts
	KindTransport ErrorKind = iota
	// KindUpstream covers non-success statuses returned by the provider
	KindUpstream
	// KindMalformed covers responses missing an expected field
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUpstream:
		return "upstream"
	case KindMalformed:
		return "malformed response"
	default:
		return "unknown"
	}
}

// AIError is the single error type returned by LLM and ImageGenerator implementations
type AIError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int // set for KindUpstream when known
	Err        error
}

func (e *AIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *AIError) Unwrap() error { return e.Err }

// NewTransportError wraps a network failure
func NewTransportError(provider string, err error) *AIError {
	return &AIError{Kind: KindTransport, Provider: provider, Err: err}
}

// NewUpstreamError wraps a non-success status
func NewUpstreamError(provider string, status int, err error) *AIError {
	return &AIError{Kind: KindUpstream, Provider: provider, StatusCode: status, Err: err}
}

// NewMalformedError reports a response missing what the caller expected
func NewMalformedError(provider, format string, args ...any) *AIError {
	return &AIError{Kind: KindMalformed, Provider: provider, Err: errors.Errorf(format, args...)}
}

// ClassifyError converts an error without a provider-specific status into an
// AIError. Already classified errors pass through unchanged.
func ClassifyError(provider string, err error) *AIError {
	if err == nil {
		return nil
	}
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr
	}
	if IsTransportError(err) {
		return NewTransportError(provider, err)
	}
	return NewUpstreamError(provider, 0, err)
}

// IsTransportError reports whether err came from the network layer or a deadline
func IsTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
