package http

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/smorady/msg-orchestrator/internal/apperr"
	"github.com/smorady/msg-orchestrator/internal/channel"
	"github.com/smorady/msg-orchestrator/internal/model"
	"github.com/smorady/msg-orchestrator/internal/orchestrator"
	"github.com/smorady/msg-orchestrator/internal/transport"
)

func sendMessageHandler(orch *orchestrator.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ch, ok := channel.ByName(c.Param("channel"))
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown channel"})
		}

		var payload model.MessagePayload
		if err := c.Bind(&payload); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		out, err := orch.Send(c.Request().Context(), payload, ch)
		if err != nil {
			return errorResponse(c, err)
		}

		return c.JSON(http.StatusAccepted, map[string]any{
			"dispatch_id":  out.DispatchID,
			"decision":     string(out.Decision.Status),
			"provider_sid": out.ProviderSID,
		})
	}
}

// errorResponse maps pipeline failures onto the wire: normalized errors
// carry their own status and code, raw provider failures pass their status
// through.
func errorResponse(c echo.Context, err error) error {
	var reqErr *transport.RequestError
	if errors.As(err, &reqErr) && reqErr.Status > 0 {
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			return c.JSON(reqErr.Status, map[string]any{
				"error":   reqErr.Body.Message,
				"code":    reqErr.Body.Code,
				"request": reqErr.RequestID,
			})
		}
	}

	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("send failed: %v", err)
	}
	return c.JSON(status, map[string]any{
		"error":     publicMessage(err),
		"code":      apperr.CodeOf(err),
		"retryable": apperr.IsRetryable(err),
	})
}

func publicMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
