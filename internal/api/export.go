package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/landfiredata/bps-explorer/internal/export"
)

// ArchiveRequest selects the models whose source documents get bundled.
type ArchiveRequest struct {
	ModelIDs []string `json:"model_ids"`
}

// ReportRequest selects the models and sections for the PDF report.
type ReportRequest struct {
	ModelIDs      []string              `json:"model_ids"`
	Toggles       export.SectionToggles `json:"toggles"`
	FilterSummary string                `json:"filter_summary"`
}

// HandleExportArchive streams a zip bundle of source documents for the
// selected models. The manifest travels in a response header; its full
// content is inside the zip.
func (c *Controller) HandleExportArchive(ctx echo.Context) error {
	var req ArchiveRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid archive request", http.StatusBadRequest)
	}

	data, manifest, err := c.archiver.CreateArchive(ctx.Request().Context(), req.ModelIDs)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create document archive", http.StatusBadRequest)
	}

	c.logAPIRequest(ctx, "document archive",
		"bundle_id", manifest.BundleID,
		"documents", len(manifest.Documents),
		"missing", len(manifest.Missing),
	)

	filename := fmt.Sprintf("bps_documents_%s.zip", time.Now().Format("20060102_150405"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Response().Header().Set("X-Bundle-Id", manifest.BundleID)
	return ctx.Blob(http.StatusOK, "application/zip", data)
}

// HandleExportReport streams the generated PDF report for the selected
// models. Section toggles are captured from the request body by value.
func (c *Controller) HandleExportReport(ctx echo.Context) error {
	var req ReportRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid report request", http.StatusBadRequest)
	}

	data, err := c.reportGen.Generate(ctx.Request().Context(), export.ReportRequest{
		ModelIDs:      req.ModelIDs,
		Toggles:       req.Toggles,
		FilterSummary: req.FilterSummary,
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to generate report", http.StatusBadRequest)
	}

	c.logAPIRequest(ctx, "report export", "models", len(req.ModelIDs))

	filename := fmt.Sprintf("bps_report_%s.pdf", time.Now().Format("20060102_150405"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, "application/pdf", data)
}
