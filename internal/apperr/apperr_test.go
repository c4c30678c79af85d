package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsSetStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Validation("bad_input", "nope").Status)
	assert.Equal(t, http.StatusInternalServerError, Upstream("dep_down", "nope", nil).Status)
	assert.Equal(t, http.StatusTooManyRequests, Retryable("try_again", "nope", nil).Status)

	assert.Equal(t, 422, Provider("rejected", "nope", 422, nil).Status)
	// statusless provider failures answer as server errors
	assert.Equal(t, http.StatusInternalServerError, Provider("rejected", "nope", 0, nil).Status)
}

func TestStatusOfUnclassified(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
	assert.Equal(t, "internal", CodeOf(errors.New("boom")))
}

func TestIsRetryableThroughWrapping(t *testing.T) {
	inner := Retryable("contact_already_exists", "raced", nil)
	wrapped := fmt.Errorf("upsert: %w", inner)

	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, "contact_already_exists", CodeOf(wrapped))
	assert.Equal(t, http.StatusTooManyRequests, StatusOf(wrapped))

	assert.False(t, IsRetryable(Validation("bad_input", "nope")))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upstream("dep_down", "dependency unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dep_down")
	assert.Contains(t, err.Error(), "connection reset")
}
