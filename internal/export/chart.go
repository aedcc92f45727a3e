package export

import (
	"bytes"
	"fmt"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/errors"
)

// Chart layout constants, in pixels.
const (
	chartMarginX  = 12
	chartMarginY  = 10
	chartLabelW   = 130
	chartValueW   = 70
	chartBarGap   = 8
	chartMinBarPx = 2
)

// renderFireChart draws a horizontal bar chart of return interval by
// severity and returns it PNG-encoded.
func renderFireChart(rows []datastore.FireFrequency, width, height int) ([]byte, error) {
	if len(rows) == 0 {
		return nil, errors.Newf("no fire frequency rows to chart").
			Component("export").
			Category(errors.CategoryExport).
			Build()
	}

	maxInterval := 0.0
	for _, row := range rows {
		if row.ReturnIntervalYears > maxInterval {
			maxInterval = row.ReturnIntervalYears
		}
	}
	if maxInterval <= 0 {
		maxInterval = 1
	}

	dc := gg.NewContext(width, height)
	dc.SetFontFace(basicfont.Face7x13)

	// Background
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	plotLeft := float64(chartMarginX + chartLabelW)
	plotWidth := float64(width) - plotLeft - float64(chartMarginX+chartValueW)
	barHeight := (float64(height) - 2*chartMarginY - float64((len(rows)-1)*chartBarGap)) / float64(len(rows))

	for i, row := range rows {
		y := float64(chartMarginY) + float64(i)*(barHeight+chartBarGap)

		// Severity label, right-aligned against the plot area.
		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(row.Severity, plotLeft-8, y+barHeight/2, 1, 0.35)

		barLen := plotWidth * (row.ReturnIntervalYears / maxInterval)
		if barLen < chartMinBarPx {
			barLen = chartMinBarPx
		}

		dc.SetRGB(0.75, 0.29, 0.16) // fire brick
		dc.DrawRectangle(plotLeft, y, barLen, barHeight)
		dc.Fill()

		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(fmt.Sprintf("%.0f yr", row.ReturnIntervalYears),
			plotLeft+barLen+6, y+barHeight/2, 0, 0.35)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.New(err).
			Component("export").
			Category(errors.CategoryExport).
			Context("operation", "encode_chart_png").
			Build()
	}
	return buf.Bytes(), nil
}
