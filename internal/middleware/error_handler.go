package middleware

import (
	"log"
	"net/http"

	"github.com/fjellogfjord/booking-service/internal/dto"
	"github.com/labstack/echo/v4"
)

// ErrorHandler turns every uncaught error into a {"message": ...} JSON body.
// Internal errors are logged with detail server-side and surfaced as a
// generic retry-later message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	if code >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
		msg = "Noe gikk galt, prøv igjen senere"
	}

	_ = c.JSON(code, dto.ErrorResponse{Message: msg})
}
