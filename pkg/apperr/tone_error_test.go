package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsAppError(t *testing.T) {
	cause := errors.New("boom")

	wrapped := fmt.Errorf("handler: %w", LLMUnavailable(cause))
	got := AsAppError(wrapped)
	assert.Equal(t, CodeLLMUnavailable, got.Code)
	assert.Equal(t, http.StatusServiceUnavailable, got.Status)
	assert.ErrorIs(t, wrapped, cause)

	plain := AsAppError(cause)
	assert.Equal(t, CodeInternalError, plain.Code)
	assert.Same(t, cause, plain.Err)
}

func TestRateLimited_Details(t *testing.T) {
	err := RateLimited(1500 * time.Millisecond)
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.Equal(t, int64(1500), err.Details["retry_after_ms"])
	assert.Equal(t, "RATE_LIMITED: too many requests", err.Error())
}
