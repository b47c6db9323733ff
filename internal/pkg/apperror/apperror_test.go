package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	custom := ErrNotFound.WithMessage("embedding %s not found", "abc")
	wrapped := fmt.Errorf("search: %w", custom)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrBadRequest))
	assert.Equal(t, "embedding abc not found", From(wrapped).Message)
	// The sentinel itself is untouched.
	assert.Equal(t, "not found", ErrNotFound.Message)
}

func TestWithInternalUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrIndexUnavailable.WithInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable())
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	plain := From(errors.New("boom"))
	assert.Equal(t, KindInternal, plain.Kind)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.False(t, plain.Retryable())

	assert.Equal(t, KindUnknownLabel, From(ErrUnknownLabel).Kind)
}
