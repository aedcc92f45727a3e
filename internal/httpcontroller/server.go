// Package httpcontroller wires the Echo server: middleware, the JSON API,
// and lifecycle.
package httpcontroller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/landfiredata/bps-explorer/internal/api"
	"github.com/landfiredata/bps-explorer/internal/conf"
	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/logging"
)

// ShutdownTimeout is how long in-flight requests get to finish on shutdown.
const ShutdownTimeout = 10 * time.Second

// Server encapsulates the Echo server and its dependencies.
type Server struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings
	API      *api.Controller

	webLogger      *slog.Logger
	webLoggerClose func() error
}

// New initializes the HTTP server around the given datastore.
func New(settings *conf.Settings, dataStore datastore.Interface) *Server {
	s := &Server{
		Echo:     echo.New(),
		DS:       dataStore,
		Settings: settings,
	}

	s.Echo.HideBanner = true
	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()

	s.initLogger()
	s.configureMiddleware()

	s.API = api.New(s.Echo, s.DS, s.Settings)

	s.Echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return s
}

// Start begins listening and serving HTTP requests. It blocks until the
// listener stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.Settings.WebServer.Host, s.Settings.WebServer.Port)
	s.webLogger.Info("HTTP server starting", "address", addr)

	err := s.Echo.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and closes the web log file.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	if s.webLoggerClose != nil {
		if closeErr := s.webLoggerClose(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// initLogger sets up the structured web request logger, to file when
// configured, otherwise sharing the service logger.
func (s *Server) initLogger() {
	if s.Settings.Main.Log.Enabled && s.Settings.Main.Log.Path != "" {
		logger, closeFunc, err := logging.NewFileLogger(s.Settings.Main.Log.Path, "web", slog.LevelInfo)
		if err == nil {
			s.webLogger = logger
			s.webLoggerClose = closeFunc
			return
		}
		logging.Warn("failed to initialize web log file, falling back to standard output",
			"path", s.Settings.Main.Log.Path, "error", err)
	}

	logger := logging.ForService("web")
	if logger == nil {
		logger = slog.Default()
	}
	s.webLogger = logger
}

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 6}))
	s.Echo.Use(s.requestLoggerMiddleware())
}

// requestLoggerMiddleware logs each request with latency and status.
func (s *Server) requestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.webLogger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"ip", v.RemoteIP,
			)
			return nil
		},
	})
}
