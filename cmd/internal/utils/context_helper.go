package utils

import (
	"github.com/labstack/echo/v4"
)

// RequestID returns the id assigned by the request id middleware, falling
// back to the one sent by the client.
func RequestID(c echo.Context) string {
	id := c.Response().Header().Get(echo.HeaderXRequestID)
	if id == "" {
		id = c.Request().Header.Get(echo.HeaderXRequestID)
	}
	return id
}
