package api

import (
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/errors"
)

// idColumnAliases are the header names recognized as the model id column,
// compared case-insensitively.
var idColumnAliases = map[string]struct{}{
	"bps_model_id": {},
	"model_id":     {},
	"bps_id":       {},
	"id":           {},
}

// UploadResponse returns the parsed identifier allowlist.
type UploadResponse struct {
	ModelIDs []string `json:"modelIds"`
	Count    int      `json:"count"`
}

// HandleUpload parses an uploaded CSV of model identifiers into an
// allowlist. A recognized header name selects the id column; otherwise the
// first column is used and the first row is kept as data.
func (c *Controller) HandleUpload(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return c.HandleError(ctx, err, "Missing CSV file", http.StatusBadRequest)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to open uploaded file", http.StatusBadRequest)
	}
	defer src.Close()

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1 // ragged rows tolerated
	records, err := reader.ReadAll()
	if err != nil {
		return c.HandleError(ctx,
			errors.New(err).
				Component("api").
				Category(errors.CategoryFileParsing).
				Context("filename", fileHeader.Filename).
				Build(),
			"Failed to parse CSV", http.StatusBadRequest)
	}
	if len(records) == 0 {
		return c.HandleError(ctx,
			errors.Newf("uploaded CSV %q is empty", fileHeader.Filename).
				Component("api").
				Category(errors.CategoryValidation).
				Build(),
			"Uploaded CSV contains no rows", http.StatusBadRequest)
	}

	col, skipHeader := idColumn(records[0])

	var ids []string
	for i, row := range records {
		if i == 0 && skipHeader {
			continue
		}
		if col >= len(row) {
			continue
		}
		ids = append(ids, row[col])
	}
	ids = datastore.NormalizeModelIDs(ids)

	if len(ids) == 0 {
		return c.HandleError(ctx,
			errors.Newf("uploaded CSV %q yields no model ids", fileHeader.Filename).
				Component("api").
				Category(errors.CategoryValidation).
				Build(),
			"Uploaded CSV contains no model ids", http.StatusBadRequest)
	}

	c.logAPIRequest(ctx, "allowlist upload", "filename", fileHeader.Filename, "ids", len(ids))

	return ctx.JSON(http.StatusOK, UploadResponse{ModelIDs: ids, Count: len(ids)})
}

// idColumn picks the identifier column from the header row. Without a
// recognized header name the first column wins and the header row is
// treated as data.
func idColumn(header []string) (col int, skipHeader bool) {
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := idColumnAliases[key]; ok {
			return i, true
		}
	}
	return 0, false
}
