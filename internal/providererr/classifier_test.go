package providererr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/apperr"
	"github.com/smorady/msg-orchestrator/internal/channel"
	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/model"
	"github.com/smorady/msg-orchestrator/internal/transport"
)

func newClassifier() (*Classifier, *metrics.Capture) {
	stats := metrics.NewCapture()
	return NewClassifier(zap.NewNop(), stats), stats
}

func TestUnstructuredErrorPassesThrough(t *testing.T) {
	c, stats := newClassifier()
	plain := errors.New("something unrelated")

	got := c.Classify(plain, channel.SMS, model.LogDetails{})
	assert.ErrorIs(t, got, plain)
	assert.Empty(t, stats.Incrs(""))
}

func TestHTTPFailureRecordedAndReturned(t *testing.T) {
	c, stats := newClassifier()
	details := model.LogDetails{}
	reqErr := &transport.RequestError{
		Status:    400,
		Body:      transport.ErrorBody{Code: 21211, Message: "Invalid 'To' number", Status: 400},
		RequestID: "RQ123",
	}

	got := c.Classify(reqErr, channel.SMS, details)
	assert.ErrorIs(t, got, reqErr)

	assert.Equal(t, 21211, details["provider_error_code"])
	assert.Equal(t, "Invalid 'To' number", details["provider_error_message"])
	assert.Equal(t, "RQ123", details["provider_request_id"])

	calls := stats.Incrs("provider.response")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Tags, "status:400")
	assert.Empty(t, stats.Incrs("provider.rate_limited"))
}

func TestStatuslessErrorIsWrapped(t *testing.T) {
	c, _ := newClassifier()
	reqErr := &transport.RequestError{Cause: errors.New("dial tcp: connection refused")}

	got := c.Classify(reqErr, channel.SMS, model.LogDetails{})
	require.Error(t, got)

	var ae *apperr.Error
	require.ErrorAs(t, got, &ae)
	assert.Equal(t, apperr.KindProvider, ae.Kind)
	assert.Contains(t, ae.Message, "connection refused")
	// the original transport error stays reachable
	var unwrapped *transport.RequestError
	assert.ErrorAs(t, got, &unwrapped)
}

func TestStatuslessErrorKeepsNestedBody(t *testing.T) {
	c, _ := newClassifier()
	reqErr := &transport.RequestError{
		Body: transport.ErrorBody{Code: 30001, Message: "Queue overflow", Status: 500},
	}

	got := c.Classify(reqErr, channel.WhatsApp, model.LogDetails{})
	var ae *apperr.Error
	require.ErrorAs(t, got, &ae)
	assert.Equal(t, "30001", ae.Code)
	assert.Equal(t, "Queue overflow", ae.Message)
	assert.Equal(t, 500, ae.Status)
}

func TestRateLimitByStatus(t *testing.T) {
	c, stats := newClassifier()
	reqErr := &transport.RequestError{Status: 429, Body: transport.ErrorBody{Status: 429}}

	_ = c.Classify(reqErr, channel.SMS, model.LogDetails{})
	require.Len(t, stats.Incrs("provider.rate_limited"), 1)
}

func TestRateLimitByProviderCode(t *testing.T) {
	c, stats := newClassifier()
	reqErr := &transport.RequestError{
		Status: 400,
		Body:   transport.ErrorBody{Code: DefaultRateLimitCode, Message: "Too many requests"},
	}

	_ = c.Classify(reqErr, channel.SMS, model.LogDetails{})
	require.Len(t, stats.Incrs("provider.rate_limited"), 1)
}

func TestRateLimitCountedOncePerCall(t *testing.T) {
	c, stats := newClassifier()
	// both signals present, still a single increment
	reqErr := &transport.RequestError{
		Status: 429,
		Body:   transport.ErrorBody{Code: DefaultRateLimitCode, Status: 429},
	}

	_ = c.Classify(reqErr, channel.SMS, model.LogDetails{})
	assert.Len(t, stats.Incrs("provider.rate_limited"), 1)
}
