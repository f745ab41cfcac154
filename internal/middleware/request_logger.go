package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/contentwriter/api/internal/metrics"
)

// RequestLogger logs each request and records request metrics. debug adds
// the query string to the log line.
func RequestLogger(log zerolog.Logger, debug bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app error handler write the response before we read the status
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		latency := time.Since(start)
		status := c.Response().StatusCode()
		endpoint := c.Route().Path

		metrics.RecordRequest(c.Method(), endpoint, strconv.Itoa(status), latency.Seconds())

		event := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error()
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		}
		event = event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", latency)
		if user := GetUserID(c); user != "" {
			event = event.Str("user", user)
		}
		if debug {
			event = event.Str("query", string(c.Request().URI().QueryString()))
		}
		event.Msg("request")
		return nil
	}
}
