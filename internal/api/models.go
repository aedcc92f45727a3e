package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/errors"
	"github.com/landfiredata/bps-explorer/internal/highlight"
)

// ReferenceConditionView is the API shape of one reference condition row.
type ReferenceConditionView struct {
	BpsName    string  `json:"bpsName"`
	RefLabel   string  `json:"refLabel"`
	RefPercent float64 `json:"refPercent"`
}

// FireFrequencyView is the API shape of one fire severity row.
type FireFrequencyView struct {
	Severity            string  `json:"severity"`
	ReturnIntervalYears float64 `json:"returnIntervalYears"`
	PercentOfAllFires   float64 `json:"percentOfAllFires"`
}

// SpeciesIndicatorView is the API shape of one indicator species.
type SpeciesIndicatorView struct {
	Symbol         string `json:"symbol"`
	ScientificName string `json:"scientificName"`
	CommonName     string `json:"commonName"`
}

// ModelDetailResponse aggregates everything the detail view shows for one
// model. Narrative text fields carry markdown species highlighting.
type ModelDetailResponse struct {
	BpsModelID                       string `json:"bpsModelId"`
	VegetationType                   string `json:"vegetationType"`
	MapZones                         string `json:"mapZones"`
	GeographicRange                  string `json:"geographicRange"`
	VegetationDescription            string `json:"vegetationDescription"`
	BiophysicalSiteDescription       string `json:"biophysicalSiteDescription"`
	ScaleDescription                 string `json:"scaleDescription"`
	Issues                           string `json:"issues"`
	NativeUncharacteristicConditions string `json:"nativeUncharacteristicConditions"`
	Document                         string `json:"document"`

	ReferenceConditions []ReferenceConditionView   `json:"referenceConditions"`
	FireFrequencies     []FireFrequencyView        `json:"fireFrequencies"`
	Species             []SpeciesIndicatorView     `json:"species"`
	SuccessionClasses   []datastore.SucclassDetail `json:"successionClasses"`
	Modelers            []datastore.ModelerDetail  `json:"modelers"`
}

// HandleModelDetail returns the full detail record for one model.
func (c *Controller) HandleModelDetail(ctx echo.Context) error {
	id := ctx.Param("id")
	reqCtx := ctx.Request().Context()

	model, err := c.DS.GetModel(reqCtx, id)
	if err != nil {
		if errors.Is(err, datastore.ErrModelNotFound) {
			return c.HandleError(ctx, err, "Model not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to load model", http.StatusInternalServerError)
	}

	refCons, err := c.DS.GetReferenceConditions(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load reference conditions", http.StatusInternalServerError)
	}
	fires, err := c.DS.GetFireFrequencies(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load fire frequencies", http.StatusInternalServerError)
	}
	species, err := c.DS.GetSpeciesIndicators(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load species indicators", http.StatusInternalServerError)
	}
	succlasses, err := c.DS.GetSuccessionClasses(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load succession classes", http.StatusInternalServerError)
	}
	modelers, err := c.DS.GetModelers(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load modelers", http.StatusInternalServerError)
	}

	names := make([]string, 0, len(species))
	for _, s := range species {
		names = append(names, s.ScientificName)
	}
	hl := highlight.New(names)
	mark := func(text string) string {
		return hl.Apply(text, highlight.Markdown)
	}

	resp := ModelDetailResponse{
		BpsModelID:                       model.BpsModelID,
		VegetationType:                   model.VegetationType,
		MapZones:                         model.MapZones,
		GeographicRange:                  mark(model.GeographicRange),
		VegetationDescription:            mark(model.VegetationDescription),
		BiophysicalSiteDescription:       mark(model.BiophysicalSiteDescription),
		ScaleDescription:                 mark(model.ScaleDescription),
		Issues:                           mark(model.Issues),
		NativeUncharacteristicConditions: mark(model.NativeUncharacteristicConditions),
		Document:                         model.Document,
		SuccessionClasses:                succlasses,
		Modelers:                         modelers,
	}
	for _, rc := range refCons {
		resp.ReferenceConditions = append(resp.ReferenceConditions, ReferenceConditionView{
			BpsName:    rc.BpsName,
			RefLabel:   rc.RefLabel,
			RefPercent: rc.RefPercent,
		})
	}
	for _, ff := range fires {
		resp.FireFrequencies = append(resp.FireFrequencies, FireFrequencyView{
			Severity:            ff.Severity,
			ReturnIntervalYears: ff.ReturnIntervalYears,
			PercentOfAllFires:   ff.PercentOfAllFires,
		})
	}
	for _, s := range species {
		resp.Species = append(resp.Species, SpeciesIndicatorView{
			Symbol:         s.Symbol,
			ScientificName: s.ScientificName,
			CommonName:     s.CommonName,
		})
	}
	for i, sc := range resp.SuccessionClasses {
		resp.SuccessionClasses[i].Description = mark(sc.Description)
	}

	return ctx.JSON(http.StatusOK, resp)
}
