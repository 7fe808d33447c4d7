package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Config groups the tunable middleware settings.
type Config struct {
	Logging  LoggerConfig
	Recovery RecoveryConfig
}

// DefaultConfig returns the middleware settings used by the server.
func DefaultConfig() Config {
	return Config{
		Logging:  DefaultLoggerConfig(),
		Recovery: DefaultRecoveryConfig(),
	}
}

// Setup registers the middleware stack with default settings. Call it before
// registering routes.
//
// RequestID runs first so the logger sees the id. Recover runs innermost so a
// panicking handler still produces a logged 500.
func Setup(e *echo.Echo, log zerolog.Logger) {
	SetupWithConfig(e, log, DefaultConfig())
}

// SetupWithConfig registers the middleware stack with custom settings.
func SetupWithConfig(e *echo.Echo, log zerolog.Logger, config Config) {
	e.Use(Chain(log, config)...)
}

// Chain returns the middleware stack in order, for use on a route group.
func Chain(log zerolog.Logger, config Config) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		RequestID(),
		RequestLoggerWithConfig(log, config.Logging),
		RecoverWithConfig(log, config.Recovery),
	}
}
