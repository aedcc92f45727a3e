package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/errors"
)

// IntervalRangeRequest bounds a fire return interval for one severity.
type IntervalRangeRequest struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SearchRequest is the JSON body accepted by the search endpoint. ModelIDs,
// when non-empty, acts as an allowlist that overrides the free-text term.
type SearchRequest struct {
	ModelIDs       []string                        `json:"model_ids"`
	Term           string                          `json:"term"`
	VegetationType string                          `json:"vegetation_type"`
	MapZones       string                          `json:"map_zones"`
	NameContains   string                          `json:"name_contains"`
	FireIntervals  map[string]IntervalRangeRequest `json:"fire_intervals"`
	Limit          int                             `json:"limit"`
}

// SearchResponse wraps the matching models.
type SearchResponse struct {
	Results []datastore.SearchResult `json:"results"`
	Total   int                      `json:"total"`
}

// HandleSearch runs a filtered model search.
func (c *Controller) HandleSearch(ctx echo.Context) error {
	var req SearchRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid search request", http.StatusBadRequest)
	}

	filters := datastore.SearchFilters{
		ModelIDs:       datastore.NormalizeModelIDs(req.ModelIDs),
		Term:           req.Term,
		VegetationType: req.VegetationType,
		MapZones:       datastore.ParseMapZones(req.MapZones),
		NameContains:   req.NameContains,
		Limit:          c.clampLimit(req.Limit),
	}
	if len(req.FireIntervals) > 0 {
		filters.FireIntervals = make(map[string]datastore.IntervalRange, len(req.FireIntervals))
		for severity, r := range req.FireIntervals {
			if r.Min > r.Max {
				return c.HandleError(ctx,
					errors.Newf("min %.1f exceeds max %.1f for severity %q", r.Min, r.Max, severity).
						Component("api").
						Category(errors.CategoryValidation).
						Build(),
					"Invalid fire interval range", http.StatusBadRequest)
			}
			filters.FireIntervals[severity] = datastore.IntervalRange{Min: r.Min, Max: r.Max}
		}
	}

	results, err := c.DS.SearchModels(ctx.Request().Context(), &filters)
	if err != nil {
		return c.HandleError(ctx, err, "Search failed", http.StatusInternalServerError)
	}

	c.logAPIRequest(ctx, "model search", "results", len(results), "limit", filters.Limit)

	return ctx.JSON(http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}
