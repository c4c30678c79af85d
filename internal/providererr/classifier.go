package providererr

import (
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/apperr"
	"github.com/smorady/msg-orchestrator/internal/channel"
	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/model"
	"github.com/smorady/msg-orchestrator/internal/transport"
)

// DefaultRateLimitCode is the provider's documented too-many-requests
// error code.
const DefaultRateLimitCode = 20429

// Classifier normalizes transport/provider failures into the uniform error
// taxonomy and emits the diagnostic side effects the host expects. It
// changes no control flow itself; retry decisions stay with the host.
type Classifier struct {
	Log           *zap.Logger
	Stats         metrics.Client
	RateLimitCode int
}

func NewClassifier(log *zap.Logger, stats metrics.Client) *Classifier {
	return &Classifier{Log: log, Stats: stats, RateLimitCode: DefaultRateLimitCode}
}

// Classify inspects err and returns the error the caller should propagate.
// Errors that are not structured transport failures pass through unchanged;
// structured failures are recorded into details, counted, and — when the
// error never resolved to an HTTP response — substituted with a generic
// provider error the host can classify by status.
func (c *Classifier) Classify(err error, ch channel.Channel, details model.LogDetails) error {
	var reqErr *transport.RequestError
	if !errors.As(err, &reqErr) {
		return err
	}

	status := reqErr.Status
	if status == 0 {
		status = reqErr.Body.Status
	}

	details.Set("provider_error_code", reqErr.Body.Code)
	details.Set("provider_error_message", reqErr.Body.Message)
	details.Set("provider_error_status", reqErr.Body.Status)
	details.Set("http_status", reqErr.Status)
	if reqErr.RequestID != "" {
		details.Set("provider_request_id", reqErr.RequestID)
	}

	c.Stats.Incr("provider.response", 1, []string{
		"channel:" + ch.Name,
		"status:" + strconv.Itoa(status),
	})

	rateLimitCode := c.RateLimitCode
	if rateLimitCode == 0 {
		rateLimitCode = DefaultRateLimitCode
	}
	if reqErr.Body.Code == rateLimitCode || status == 429 {
		c.Stats.Incr("provider.rate_limited", 1, []string{"channel:" + ch.Name})
	}

	c.Log.Error("provider request failed",
		zap.String("channel", ch.Name),
		zap.Int("status", status),
		zap.Int("provider_code", reqErr.Body.Code),
	)

	// A failure that never resolved to an HTTP response is wrapped so the
	// host can still classify it by status.
	if reqErr.Status == 0 {
		message := reqErr.Body.Message
		if message == "" && reqErr.Cause != nil {
			message = reqErr.Cause.Error()
		}
		if message == "" {
			message = "Provider Request Error"
		}
		code := "provider_request_error"
		if reqErr.Body.Code != 0 {
			code = strconv.Itoa(reqErr.Body.Code)
		}
		return apperr.Provider(code, message, status, err)
	}

	return err
}
