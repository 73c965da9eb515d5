package handler

import (
	"github.com/labstack/echo/v4"

	"storefront-api/internal/dto"
)

// respond wraps every success payload in the uniform response envelope.
// Errors go through the server's HTTPErrorHandler, which produces the same
// shape.
func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, &dto.Envelope{
		StatusCode: status,
		Message:    message,
		Success:    status < 400,
		Data:       data,
	})
}
