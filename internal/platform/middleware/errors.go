package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorHandler returns a central echo HTTPErrorHandler. Every handler error is
// logged server-side with its request id; clients get a JSON body with a
// generic message. Internal error detail is only included outside production.
func ErrorHandler(logger zerolog.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "internal server error"

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		}

		rid, _ := c.Get("request_id").(string)
		logger.Error().
			Err(err).
			Str("request_id", rid).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", code).
			Msg("request failed")

		if code == http.StatusInternalServerError && production {
			message = "internal server error"
		}

		body := map[string]string{"error": message}
		if !production && code == http.StatusInternalServerError {
			body["detail"] = err.Error()
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}
