package http

import (
	"net/http"
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v4"

	"github.com/smorady/msg-orchestrator/internal/channel"
	"github.com/smorady/msg-orchestrator/internal/repository"
)

func listDeliveriesHandler(deliveries repository.DeliveriesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		chName := ""
		if raw := strings.TrimSpace(c.QueryParam("channel")); raw != "" {
			ch, ok := channel.ByName(raw)
			if !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown channel"})
			}
			chName = ch.Name
		}
		status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))

		rows, err := deliveries.List(c.Request().Context(), chName, status, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
