package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderErrorFormatting(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewProviderError("openai", ErrorTypeRateLimit, 429, "too many requests", cause)

	msg := err.Error()
	assert.Contains(t, msg, "openai error")
	assert.Contains(t, msg, "HTTP 429")
	assert.Contains(t, msg, "rate_limit")
	assert.Contains(t, msg, "too many requests")
	assert.Contains(t, msg, "connection reset")

	assert.ErrorIs(t, err, cause)
}

func TestClassifyHTTPError(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "anthropic"}

	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{429, ErrorTypeRateLimit},
		{400, ErrorTypeBadRequest},
		{404, ErrorTypeNotFound},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeBadRequest},
		{599, ErrorTypeServerError},
		{0, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		got := classifier.ClassifyHTTPError(tt.status, "message", nil)
		require.NotNil(t, got)
		assert.Equal(t, tt.want, got.Type, "status %d", tt.status)
		assert.Equal(t, "anthropic", got.Provider)
		assert.Equal(t, tt.status, got.StatusCode)
	}
}

func TestClassifyContextError(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "google"}

	deadline := classifier.ClassifyContextError(context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeNetwork, deadline.Type)
	assert.ErrorIs(t, deadline, context.DeadlineExceeded)

	canceled := classifier.ClassifyContextError(context.Canceled)
	assert.Equal(t, ErrorTypeNetwork, canceled.Type)

	other := classifier.ClassifyContextError(errors.New("mystery"))
	assert.Equal(t, ErrorTypeUnknown, other.Type)
}
