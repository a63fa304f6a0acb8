package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Maintenance blocks login and registration while maintenance mode is active.
// Already-authenticated traffic is unaffected so staff can keep working, and
// the gate can be flipped without redeploying when enabled is read from config
// at startup.
func Maintenance(enabled bool, message string) echo.MiddlewareFunc {
	if message == "" {
		message = "The system is under maintenance. Please try again later."
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !enabled {
				return next(c)
			}
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"error":   "maintenance",
				"message": message,
			})
		}
	}
}
