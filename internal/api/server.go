package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Server runs the HTTP API on one listen address.
type Server struct {
	Echo       *echo.Echo
	Controller *Controller
	addr       string
	logger     *zap.Logger
}

// NewServer creates a server for pantry listening on addr. gatherer may be
// nil, in which case /metrics is not served.
func NewServer(addr string, pantry types.Pantry, logger *zap.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(newRequestLogger(logger))

	s := &Server{
		Echo:   e,
		addr:   addr,
		logger: logger,
	}
	s.Controller = New(e, pantry, WithLogger(logger), WithGatherer(gatherer))
	return s
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.Info("http api listening", zap.String("addr", s.addr))
	if err := s.Echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http api on %s: %w", s.addr, err)
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http api: %w", err)
	}
	s.logger.Info("http api stopped")
	return nil
}

func newRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.String("ip", v.RemoteIP),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Debug("request", fields...)
			return nil
		},
	})
}
