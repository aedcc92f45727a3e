// Package api implements the JSON API of the BPS explorer: filtered model
// search, per-model detail, filter options, CSV allowlist upload, and the
// bulk export endpoints.
package api

import (
	"crypto/rand"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/landfiredata/bps-explorer/internal/conf"
	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/export"
	"github.com/landfiredata/bps-explorer/internal/logging"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings

	archiver  *export.Archiver
	reportGen *export.ReportGenerator
	apiLogger *slog.Logger
}

// New creates the API controller and registers its routes under /api/v1.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings) *Controller {
	logger := logging.ForService("api")
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		Echo:      e,
		DS:        ds,
		Settings:  settings,
		archiver:  export.NewArchiver(ds, settings.Docs.Path),
		reportGen: export.NewReportGenerator(ds, settings),
		apiLogger: logger,
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.POST("/search", c.HandleSearch)
	c.Group.GET("/models/:id", c.HandleModelDetail)
	c.Group.GET("/options", c.HandleOptions)
	c.Group.POST("/upload", c.HandleUpload)
	c.Group.POST("/export/archive", c.HandleExportArchive)
	c.Group.POST("/export/report", c.HandleExportReport)
}

// ErrorResponse is the JSON body returned for API errors.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a unique identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an appropriate error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}
	c.apiLogger.Error("API Error",
		"correlation_id", errorResp.CorrelationID,
		"message", message,
		"error", errorStr,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, errorResp)
}

// logAPIRequest logs API operations with request context.
func (c *Controller) logAPIRequest(ctx echo.Context, msg string, args ...any) {
	baseAttrs := []any{
		"path", ctx.Request().URL.Path,
		"ip", ctx.RealIP(),
	}
	c.apiLogger.Info(msg, append(baseAttrs, args...)...)
}

// clampLimit applies the configured default and hard cap to a requested
// result limit.
func (c *Controller) clampLimit(limit int) int {
	if limit <= 0 {
		return c.Settings.Search.DefaultLimit
	}
	if limit > c.Settings.Search.MaxLimit {
		return c.Settings.Search.MaxLimit
	}
	return limit
}
