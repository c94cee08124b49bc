package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/topichub/internal/topics"
)

// Server exposes the topic registry over HTTP.
type Server struct {
	E           *echo.Echo
	registry    *topics.Registry
	mailboxSize int
	logger      *slog.Logger
}

// New creates a Server with its routes registered.
func New(registry *topics.Registry, mailboxSize int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Validator = NewValidator()

	s := &Server{
		E:           e,
		registry:    registry,
		mailboxSize: mailboxSize,
		logger:      slog.Default().With("component", "server"),
	}
	s.RegisterRoutes()
	return s
}

// requestLogger logs every request through slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("HTTP request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	})
}
