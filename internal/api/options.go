package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/landfiredata/bps-explorer/internal/datastore"
)

// OptionsResponse carries the selectable filter values and the store summary
// shown on the landing page.
type OptionsResponse struct {
	VegetationTypes []string                           `json:"vegetationTypes"`
	MapZones        []int                              `json:"mapZones"`
	FireRanges      map[string]datastore.IntervalRange `json:"fireRanges"`
	Severities      []string                           `json:"severities"`
	Stats           *datastore.StoreStats              `json:"stats"`
}

// HandleOptions returns the available filter options. The underlying store
// is immutable, so these are served from cache after the first request.
func (c *Controller) HandleOptions(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	vegTypes, err := c.DS.VegetationTypes(reqCtx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load vegetation types", http.StatusInternalServerError)
	}
	zones, err := c.DS.MapZones(reqCtx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load map zones", http.StatusInternalServerError)
	}
	fireRanges, err := c.DS.FireRanges(reqCtx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load fire ranges", http.StatusInternalServerError)
	}
	stats, err := c.DS.Stats(reqCtx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load store stats", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, OptionsResponse{
		VegetationTypes: vegTypes,
		MapZones:        zones,
		FireRanges:      fireRanges,
		Severities:      datastore.SeverityOrder,
		Stats:           stats,
	})
}
