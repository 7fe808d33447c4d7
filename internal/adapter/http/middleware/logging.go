package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/logger"
)

// LoggerConfig tunes the request logger.
type LoggerConfig struct {
	// QuietPaths log successful requests at debug level (health checks and scrapes)
	QuietPaths []string

	// SlowThreshold flags requests that took at least this long; zero disables the flag
	SlowThreshold time.Duration
}

// DefaultLoggerConfig keeps health checks and metric scrapes out of info logs and
// flags searches that ran past the default pipeline budget.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		QuietPaths:    []string{"/health", "/metrics"},
		SlowThreshold: 5 * time.Second,
	}
}

// RequestLogger returns middleware that logs every request on completion.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return RequestLoggerWithConfig(log, DefaultLoggerConfig())
}

// RequestLoggerWithConfig returns request logging middleware with custom configuration.
// It also attaches a request-scoped logger to the request context, so the search
// pipeline logs carry the request id.
func RequestLoggerWithConfig(log zerolog.Logger, config LoggerConfig) echo.MiddlewareFunc {
	quiet := make(map[string]bool, len(config.QuietPaths))
	for _, p := range config.QuietPaths {
		quiet[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			reqLog := log.With().Str("request_id", GetRequestID(c)).Logger()
			c.SetRequest(req.WithContext(logger.IntoContext(req.Context(), reqLog)))

			if err := next(c); err != nil {
				// the error handler writes the response so the status below is final
				c.Error(err)
			}

			duration := time.Since(start)
			res := c.Response()
			status := res.Status

			var event *zerolog.Event
			switch {
			case status >= 500:
				event = reqLog.Error()
			case status >= 400:
				event = reqLog.Warn()
			case quiet[req.URL.Path]:
				event = reqLog.Debug()
			default:
				event = reqLog.Info()
			}

			event = event.
				Str("method", req.Method).
				Str("route", c.Path()).
				Str("path", req.URL.Path).
				Str("query", req.URL.RawQuery).
				Int("status", status).
				Int64("duration_ms", duration.Milliseconds()).
				Int64("bytes_out", res.Size).
				Str("client_ip", c.RealIP()).
				Str("user_agent", req.UserAgent())
			if config.SlowThreshold > 0 && duration >= config.SlowThreshold {
				event = event.Bool("slow", true)
			}
			event.Msg("HTTP request")

			return nil
		}
	}
}
