package http

import (
	"net/http"
	"strings"
	"time"

	echo "github.com/labstack/echo/v4"

	"github.com/smorady/msg-orchestrator/internal/channel"
	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/model"
	"github.com/smorady/msg-orchestrator/internal/repository"
)

// statusCallbackHandler receives provider delivery callbacks on the URL the
// builder produced: updates the dispatch row and appends a reporting event.
func statusCallbackHandler(
	dispatches repository.DispatchesRepository,
	deliveries repository.DeliveriesRepository,
	stats metrics.Client,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		sid := c.FormValue("MessageSid")
		if sid == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing MessageSid"})
		}
		providerStatus := strings.ToLower(c.FormValue("MessageStatus"))
		errorCode := c.FormValue("ErrorCode")

		ch := channel.SMS
		if strings.HasPrefix(c.FormValue("To"), channel.WhatsApp.AddressPrefix) {
			ch = channel.WhatsApp
		}

		status := dispatchStatus(providerStatus)
		if status.Valid() {
			if status == model.DispatchDelivered {
				if d, err := dispatches.GetByProviderSID(c.Request().Context(), sid); err == nil {
					stats.Histogram("delivery.confirm_latency",
						time.Since(d.CreatedAt).Seconds(),
						[]string{"channel:" + ch.Name},
					)
				}
			}
			if err := dispatches.UpdateStatusBySID(c.Request().Context(), sid, status, errorCode); err != nil {
				c.Logger().Errorf("dispatch status update failed: %v", err)
			}
		}

		ev := model.DeliveryEvent{
			ProviderSID: sid,
			Channel:     ch.Name,
			Status:      providerStatus,
			ErrorCode:   errorCode,
			OccurredAt:  time.Now().UTC(),
		}
		if err := deliveries.Insert(c.Request().Context(), ev); err != nil {
			c.Logger().Errorf("delivery event insert failed: %v", err)
		}

		stats.Incr("callback.received", 1, []string{
			"channel:" + ch.Name,
			"status:" + safeTag(providerStatus),
		})

		return c.NoContent(http.StatusNoContent)
	}
}

// dispatchStatus maps provider callback statuses onto dispatch states.
// Intermediate statuses (queued, sending) keep the row as sent.
func dispatchStatus(providerStatus string) model.DispatchStatus {
	switch providerStatus {
	case "delivered", "read":
		return model.DispatchDelivered
	case "failed", "undelivered":
		return model.DispatchFailed
	case "queued", "accepted", "sending", "sent":
		return model.DispatchSent
	}
	return ""
}

func safeTag(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
