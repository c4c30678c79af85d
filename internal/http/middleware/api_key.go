package middleware

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"

	"github.com/smorady/msg-orchestrator/internal/config"
)

// ClientFromCtx extracts the authenticated client name set by
// APIKeyMiddleware.
func ClientFromCtx(c echo.Context) (string, bool) {
	v := c.Get("client_name")
	name, ok := v.(string)
	return name, ok
}

// APIKeyMiddleware authenticates requests using the X-API-Key header
// against the statically configured key set.
func APIKeyMiddleware(keys []config.APIKeyConfig) echo.MiddlewareFunc {
	byKey := make(map[string]config.APIKeyConfig, len(keys))
	for _, k := range keys {
		byKey[k.Key] = k
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			entry, ok := byKey[key]
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}
			c.Set("client_name", entry.Name)
			if entry.RPS > 0 {
				c.Set("client_rps", entry.RPS)
			}
			return next(c)
		}
	}
}
