package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/landfiredata/bps-explorer/internal/conf"
	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/errors"
	"github.com/landfiredata/bps-explorer/internal/highlight"
	"github.com/landfiredata/bps-explorer/internal/logging"
)

// SectionToggles selects which sections appear per model in the report.
// Export handlers must pass this by value so the report reflects the toggle
// state captured when export was requested, not later UI changes.
type SectionToggles struct {
	ModelID                    bool `json:"modelId"`
	BpsName                    bool `json:"bpsName"`
	VegetationDescription      bool `json:"vegetationDescription"`
	GeographicRange            bool `json:"geographicRange"`
	BiophysicalSiteDescription bool `json:"biophysicalSiteDescription"`
	SpeciesTable               bool `json:"speciesTable"`
	SuccessionClasses          bool `json:"successionClasses"`
	FireTable                  bool `json:"fireTable"`
	FireChart                  bool `json:"fireChart"`
}

// ReportRequest is the full input to report generation, captured by value.
type ReportRequest struct {
	ModelIDs      []string
	Toggles       SectionToggles
	FilterSummary string
}

// ReportGenerator produces the paginated export report.
type ReportGenerator struct {
	ds                 datastore.Interface
	appName            string
	paragraphThreshold int
	chartWidth         int
	chartHeight        int
	log                *slog.Logger
}

// NewReportGenerator creates a generator with the configured layout
// settings.
func NewReportGenerator(ds datastore.Interface, settings *conf.Settings) *ReportGenerator {
	logger := logging.ForService("export")
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportGenerator{
		ds:                 ds,
		appName:            settings.Main.Name,
		paragraphThreshold: settings.Export.ParagraphThreshold,
		chartWidth:         settings.Export.ChartWidth,
		chartHeight:        settings.Export.ChartHeight,
		log:                logger,
	}
}

const (
	reportFont   = "Helvetica"
	bodyFontSize = 10.0
	lineHeight   = 5.0
)

// Generate builds the PDF report: a header stating the filters and model
// count, then one page per selected model with exactly the toggled
// sections. A failing model or section degrades to an inline note.
func (g *ReportGenerator) Generate(ctx context.Context, req ReportRequest) ([]byte, error) {
	ids := datastore.NormalizeModelIDs(req.ModelIDs)
	sort.Strings(ids)

	if len(ids) == 0 {
		return nil, errors.Newf("no models selected for report").
			Component("export").
			Category(errors.CategoryValidation).
			Build()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(g.appName+" Report", false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(reportFont, "I", 8)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s - page %d of {nb}", g.appName, pdf.PageNo())),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	g.writeHeader(pdf, tr, req.FilterSummary, len(ids))

	for _, id := range ids {
		pdf.AddPage()
		g.renderModel(ctx, pdf, tr, id, req.Toggles)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.New(err).
			Component("export").
			Category(errors.CategoryExport).
			Context("operation", "pdf_output").
			Build()
	}
	return buf.Bytes(), nil
}

func (g *ReportGenerator) writeHeader(pdf *fpdf.Fpdf, tr func(string) string, filterSummary string, count int) {
	pdf.SetFont(reportFont, "B", 16)
	pdf.CellFormat(0, 10, tr(g.appName+" - Model Report"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(reportFont, "", bodyFontSize)
	if filterSummary == "" {
		filterSummary = "none"
	}
	pdf.MultiCell(0, lineHeight, tr("Filters: "+filterSummary), "", "L", false)
	pdf.MultiCell(0, lineHeight, tr(fmt.Sprintf("Models included: %d", count)), "", "L", false)
	pdf.MultiCell(0, lineHeight, tr("Generated: "+time.Now().UTC().Format(time.RFC1123)), "", "L", false)
}

// renderModel writes one model's page. Sub-query or chart failures for this
// model are reported inline and never abort the remaining models.
func (g *ReportGenerator) renderModel(ctx context.Context, pdf *fpdf.Fpdf, tr func(string) string, id string, toggles SectionToggles) {
	model, err := g.ds.GetModel(ctx, id)
	if err != nil {
		g.log.Warn("model unavailable for report", "bps_model_id", id, "error", err)
		g.writeNote(pdf, tr, fmt.Sprintf("Model %s could not be loaded.", id))
		return
	}

	// The species list drives the scientific-name italicizer for this
	// model's text sections.
	var hl *highlight.Highlighter
	species, err := g.ds.GetSpeciesIndicators(ctx, id)
	if err != nil {
		g.log.Warn("species lookup failed, text renders unhighlighted", "bps_model_id", id, "error", err)
		hl = highlight.New(nil)
	} else {
		names := make([]string, 0, len(species))
		for _, s := range species {
			names = append(names, s.ScientificName)
		}
		hl = highlight.New(names)
	}

	pdf.SetFont(reportFont, "B", 13)
	pdf.CellFormat(0, 8, tr(id), "", 1, "L", false, 0, "")

	if toggles.ModelID {
		g.writeField(pdf, tr, "Model ID", id)
	}

	if toggles.BpsName {
		refCons, err := g.ds.GetReferenceConditions(ctx, id)
		switch {
		case err != nil:
			g.writeNote(pdf, tr, "BPS name unavailable.")
		case len(refCons) > 0:
			g.writeField(pdf, tr, "BPS Name", refCons[0].BpsName)
		}
	}

	if toggles.VegetationDescription {
		g.writeTextSection(pdf, tr, hl, "Vegetation Description", model.VegetationDescription)
	}
	if toggles.GeographicRange {
		g.writeTextSection(pdf, tr, hl, "Geographic Range", model.GeographicRange)
	}
	if toggles.BiophysicalSiteDescription {
		g.writeTextSection(pdf, tr, hl, "Biophysical Site Description", model.BiophysicalSiteDescription)
	}

	if toggles.SpeciesTable {
		g.writeSpeciesTable(pdf, tr, species)
	}

	if toggles.SuccessionClasses {
		g.writeSuccessionClasses(ctx, pdf, tr, hl, id)
	}

	if toggles.FireTable || toggles.FireChart {
		g.writeFireRegime(ctx, pdf, tr, id, toggles)
	}
}

func (g *ReportGenerator) writeField(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont(reportFont, "B", bodyFontSize)
	pdf.CellFormat(0, lineHeight+1, tr(label), "", 1, "L", false, 0, "")
	pdf.SetFont(reportFont, "", bodyFontSize)
	pdf.MultiCell(0, lineHeight, tr(value), "", "L", false)
	pdf.Ln(2)
}

func (g *ReportGenerator) writeNote(pdf *fpdf.Fpdf, tr func(string) string, note string) {
	pdf.SetFont(reportFont, "I", bodyFontSize)
	pdf.SetTextColor(128, 128, 128)
	pdf.MultiCell(0, lineHeight, tr(note), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)
}

// writeTextSection renders a long-text field with scientific names
// italicized. Long passages are split into sub-paragraphs to keep the
// paginator stable.
func (g *ReportGenerator) writeTextSection(pdf *fpdf.Fpdf, tr func(string) string, hl *highlight.Highlighter, label, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	pdf.SetFont(reportFont, "B", bodyFontSize)
	pdf.CellFormat(0, lineHeight+1, tr(label), "", 1, "L", false, 0, "")

	marked := hl.Apply(text, highlight.HTML)
	for _, para := range splitLongText(marked, g.paragraphThreshold) {
		g.writeStyled(pdf, tr, para)
		pdf.Ln(lineHeight)
		pdf.Ln(1)
	}
	pdf.Ln(1)
}

// writeStyled writes text containing <i>...</i> runs, toggling the font
// style across segments.
func (g *ReportGenerator) writeStyled(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont(reportFont, "", bodyFontSize)
	for _, seg := range parseStyledSegments(text) {
		if seg.italic {
			pdf.SetFont(reportFont, "I", bodyFontSize)
		} else {
			pdf.SetFont(reportFont, "", bodyFontSize)
		}
		pdf.Write(lineHeight, tr(seg.text))
	}
}

func (g *ReportGenerator) writeSpeciesTable(pdf *fpdf.Fpdf, tr func(string) string, species []datastore.SpeciesIndicator) {
	if len(species) == 0 {
		g.writeNote(pdf, tr, "No indicator species recorded.")
		return
	}

	pdf.SetFont(reportFont, "B", bodyFontSize)
	pdf.CellFormat(0, lineHeight+1, tr("Indicator Species"), "", 1, "L", false, 0, "")

	pdf.SetFont(reportFont, "B", 9)
	pdf.CellFormat(30, lineHeight, tr("Symbol"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(80, lineHeight, tr("Scientific Name"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(70, lineHeight, tr("Common Name"), "1", 1, "L", false, 0, "")

	for _, s := range species {
		pdf.SetFont(reportFont, "", 9)
		pdf.CellFormat(30, lineHeight, tr(s.Symbol), "1", 0, "L", false, 0, "")
		pdf.SetFont(reportFont, "I", 9)
		pdf.CellFormat(80, lineHeight, tr(s.ScientificName), "1", 0, "L", false, 0, "")
		pdf.SetFont(reportFont, "", 9)
		pdf.CellFormat(70, lineHeight, tr(s.CommonName), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
}

func (g *ReportGenerator) writeSuccessionClasses(ctx context.Context, pdf *fpdf.Fpdf, tr func(string) string, hl *highlight.Highlighter, id string) {
	classes, err := g.ds.GetSuccessionClasses(ctx, id)
	if err != nil {
		g.writeNote(pdf, tr, "Succession class descriptions unavailable.")
		return
	}
	if len(classes) == 0 {
		return
	}

	pdf.SetFont(reportFont, "B", bodyFontSize)
	pdf.CellFormat(0, lineHeight+1, tr("Succession Classes"), "", 1, "L", false, 0, "")

	for _, class := range classes {
		pdf.SetFont(reportFont, "B", 9)
		header := fmt.Sprintf("%s (%s) - %.0f%% of reference landscape", class.StateClassID, class.RefLabel, class.RefPercent)
		pdf.CellFormat(0, lineHeight, tr(header), "", 1, "L", false, 0, "")

		marked := hl.Apply(class.Description, highlight.HTML)
		for _, para := range splitLongText(marked, g.paragraphThreshold) {
			g.writeStyled(pdf, tr, para)
			pdf.Ln(lineHeight)
		}
		pdf.Ln(1)
	}
	pdf.Ln(1)
}

func (g *ReportGenerator) writeFireRegime(ctx context.Context, pdf *fpdf.Fpdf, tr func(string) string, id string, toggles SectionToggles) {
	fires, err := g.ds.GetFireFrequencies(ctx, id)
	if err != nil {
		g.writeNote(pdf, tr, "Fire frequency data unavailable.")
		return
	}
	if len(fires) == 0 {
		g.writeNote(pdf, tr, "No fire frequency data available for this model.")
		return
	}

	pdf.SetFont(reportFont, "B", bodyFontSize)
	pdf.CellFormat(0, lineHeight+1, tr("Fire Regime"), "", 1, "L", false, 0, "")

	if toggles.FireTable {
		pdf.SetFont(reportFont, "B", 9)
		pdf.CellFormat(60, lineHeight, tr("Severity"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, lineHeight, tr("Return Interval (years)"), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, lineHeight, tr("Percent of All Fires"), "1", 1, "R", false, 0, "")

		pdf.SetFont(reportFont, "", 9)
		for _, f := range fires {
			pdf.CellFormat(60, lineHeight, tr(f.Severity), "1", 0, "L", false, 0, "")
			pdf.CellFormat(60, lineHeight, tr(fmt.Sprintf("%.0f", f.ReturnIntervalYears)), "1", 0, "R", false, 0, "")
			pdf.CellFormat(60, lineHeight, tr(fmt.Sprintf("%.1f", f.PercentOfAllFires)), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(2)
	}

	if toggles.FireChart {
		png, err := renderFireChart(fires, g.chartWidth, g.chartHeight)
		if err != nil {
			g.log.Warn("fire chart rendering failed", "bps_model_id", id, "error", err)
			g.writeNote(pdf, tr, "Fire regime chart unavailable.")
			return
		}

		imageName := "fire_chart_" + id
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(png))
		// Width in mm; height scales with the image aspect ratio.
		pdf.ImageOptions(imageName, pdf.GetX(), pdf.GetY(), 160, 0, true, opts, 0, "")
		pdf.Ln(2)
	}
}
