// Package server assembles the HTTP server around the chat pipeline.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/scholarstream/scholarstream/internal/persona"
	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/plugin/ai"
	apiv1 "github.com/scholarstream/scholarstream/server/router/api/v1"
	"github.com/scholarstream/scholarstream/store"
)

// Server is the HTTP server hosting the chat API.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiV1      *apiv1.APIV1Service
}

// NewServer assembles the server and its routes.
func NewServer(p *profile.Profile, s *store.Store, provider ai.Provider, personas *persona.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(requestLogger())

	srv := &Server{
		Profile:    p,
		Store:      s,
		echoServer: e,
		apiV1:      apiv1.NewAPIV1Service(p, s, provider, personas),
	}

	e.GET("/healthz", srv.healthz)
	srv.apiV1.Register(e)

	return srv
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started",
		slog.String("address", address),
		slog.String("mode", s.Profile.Mode),
		slog.String("driver", s.Profile.Driver))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// healthz reports whether the backing store is reachable.
func (s *Server) healthz(c echo.Context) error {
	if err := s.Store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request with method, path, status and
// latency.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			slog.Info("http request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()))
			return nil
		},
	})
}
