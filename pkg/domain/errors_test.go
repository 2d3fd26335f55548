package domain

import (
	"context"
	"net"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	assert.Nil(t, ClassifyError("openai", nil))

	dnsErr := &net.DNSError{Err: "no such host", Name: "api.example.com"}
	got := ClassifyError("openai", errors.Wrap(dnsErr, "post"))
	assert.Equal(t, KindTransport, got.Kind)
	assert.Equal(t, "openai", got.Provider)

	got = ClassifyError("gemini", context.DeadlineExceeded)
	assert.Equal(t, KindTransport, got.Kind)

	got = ClassifyError("ollama", errors.New("weird"))
	assert.Equal(t, KindUpstream, got.Kind)

	original := NewMalformedError("anthropic", "no %s", "content")
	assert.Same(t, original, ClassifyError("openai", errors.Wrap(original, "wrapped")))
}

func TestAIError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("Incorrect API key provided")
	err := NewUpstreamError("openai", 401, cause)

	assert.Equal(t, "openai upstream error (status 401): Incorrect API key provided", err.Error())
	assert.ErrorIs(t, err, cause)

	var aiErr *AIError
	require.ErrorAs(t, errors.Wrap(err, "complete"), &aiErr)
	assert.Equal(t, 401, aiErr.StatusCode)

	assert.Equal(t, "gemini malformed response error: empty", NewMalformedError("gemini", "empty").Error())
	assert.Equal(t, "transport", KindTransport.String())
}

