package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/landfiredata/bps-explorer/internal/conf"
	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/export"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	return &conf.Settings{
		Main: conf.MainSettings{Name: "BPS Explorer"},
		Docs: conf.DocsSettings{Path: t.TempDir()},
		Search: conf.SearchSettings{
			DefaultLimit: 50,
			MaxLimit:     500,
		},
		Export: conf.ExportSettings{
			ParagraphThreshold: 1000,
			ChartWidth:         320,
			ChartHeight:        160,
		},
	}
}

// newTestController wires a controller against a fresh in-memory store.
func newTestController(t *testing.T) (*Controller, *datastore.DataStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, datastore.Migrate(db))

	ds := datastore.NewFromDB(db)
	t.Cleanup(func() { _ = ds.Close() })

	e := echo.New()
	c := New(e, ds, testSettings(t))
	return c, ds
}

func seedOakModel(t *testing.T, ds *datastore.DataStore) {
	t.Helper()

	require.NoError(t, ds.DB.Create(&datastore.BpsModel{
		BpsModelID:            "10080",
		VegetationType:        "Forest and Woodland",
		MapZones:              "1, 7, 12",
		GeographicRange:       "Puget Trough and Willamette Valley",
		VegetationDescription: "Open woodland dominated by Quercus garryana with scattered Pseudotsuga menziesii.",
		Document:              "10080_doc.docx",
	}).Error)
	require.NoError(t, ds.DB.Create(&datastore.ReferenceCondition{
		ModelLabel: "10080_A",
		BpsModelID: "10080",
		BpsName:    "North Pacific Oak Woodland",
		RefLabel:   "A",
		RefPercent: 25,
	}).Error)
	require.NoError(t, ds.DB.Create(&datastore.FireFrequency{
		BpsModelID:          "10080",
		Severity:            datastore.SeverityAllFires,
		ReturnIntervalYears: 12,
		PercentOfAllFires:   100,
	}).Error)
	require.NoError(t, ds.DB.Create(&datastore.SpeciesIndicator{
		BpsModelID:     "10080",
		Symbol:         "QUGA4",
		ScientificName: "Quercus garryana",
		CommonName:     "Oregon white oak",
	}).Error)
	require.NoError(t, ds.DB.Create(&datastore.SuccessionClass{
		BpsModelID:   "10080",
		RefLabel:     "A",
		StateClassID: "A:ALL",
		Description:  "Early seral grassland with Quercus garryana seedlings.",
	}).Error)
	require.NoError(t, ds.DB.Create(&datastore.Modeler{
		ModelerID: 1,
		Name:      "Jane Field",
		Email:     "jane@example.org",
	}).Error)
	require.NoError(t, ds.DB.Create(&datastore.ModelAssignment{
		BpsModelID: "10080",
		ModelerID:  1,
		Reviewers:  "Sam Reviewer",
	}).Error)
}

func doJSON(t *testing.T, c *Controller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleSearchByMapZone(t *testing.T) {
	c, ds := newTestController(t)
	seedOakModel(t, ds)

	rec := doJSON(t, c, http.MethodPost, "/api/v1/search", SearchRequest{MapZones: "7"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "10080", resp.Results[0].BpsModelID)
	assert.Equal(t, "North Pacific Oak Woodland", resp.Results[0].BpsName)
}

func TestHandleSearchRejectsInvertedFireRange(t *testing.T) {
	c, _ := newTestController(t)

	rec := doJSON(t, c, http.MethodPost, "/api/v1/search", SearchRequest{
		FireIntervals: map[string]IntervalRangeRequest{
			datastore.SeverityAllFires: {Min: 100, Max: 10},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.NotEmpty(t, errResp.CorrelationID)
	assert.Equal(t, http.StatusBadRequest, errResp.Code)
}

func TestClampLimit(t *testing.T) {
	c, _ := newTestController(t)

	assert.Equal(t, 50, c.clampLimit(0), "zero gets the default")
	assert.Equal(t, 50, c.clampLimit(-3), "negative gets the default")
	assert.Equal(t, 10, c.clampLimit(10))
	assert.Equal(t, 500, c.clampLimit(9999), "capped at the maximum")
}

func TestHandleModelDetailHighlightsSpecies(t *testing.T) {
	c, ds := newTestController(t)
	seedOakModel(t, ds)

	rec := doJSON(t, c, http.MethodGet, "/api/v1/models/10080", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ModelDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.VegetationDescription, "*Quercus garryana*")
	require.Len(t, resp.Species, 1)
	assert.Equal(t, "Quercus garryana", resp.Species[0].ScientificName)
	require.Len(t, resp.ReferenceConditions, 1)
	assert.InDelta(t, 25, resp.ReferenceConditions[0].RefPercent, 0.001)
	require.Len(t, resp.FireFrequencies, 1)
	assert.Equal(t, datastore.SeverityAllFires, resp.FireFrequencies[0].Severity)
	require.Len(t, resp.SuccessionClasses, 1)
	assert.Contains(t, resp.SuccessionClasses[0].Description, "*Quercus garryana*")
	require.Len(t, resp.Modelers, 1)
	assert.Equal(t, "Jane Field", resp.Modelers[0].Name)
}

func TestHandleModelDetailNotFound(t *testing.T) {
	c, _ := newTestController(t)

	rec := doJSON(t, c, http.MethodGet, "/api/v1/models/99999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.NotEmpty(t, errResp.CorrelationID)
}

func TestHandleOptions(t *testing.T) {
	c, ds := newTestController(t)
	seedOakModel(t, ds)

	rec := doJSON(t, c, http.MethodGet, "/api/v1/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Forest and Woodland"}, resp.VegetationTypes)
	assert.Equal(t, []int{1, 7, 12}, resp.MapZones)
	assert.Equal(t, datastore.SeverityOrder, resp.Severities)
	require.NotNil(t, resp.Stats)
	assert.EqualValues(t, 1, resp.Stats.TotalModels)
	rng, ok := resp.FireRanges[datastore.SeverityAllFires]
	require.True(t, ok)
	assert.InDelta(t, 12, rng.Min, 0.001)
}

func uploadCSV(t *testing.T, c *Controller, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "selection.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleUploadRecognizedHeader(t *testing.T) {
	c, _ := newTestController(t)

	rec := uploadCSV(t, c, "name,BPS_Model_ID\nfirst,10080\nsecond,10081\ndup,10080\n")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"10080", "10081"}, resp.ModelIDs)
	assert.Equal(t, 2, resp.Count)
}

func TestHandleUploadHeaderlessFirstColumn(t *testing.T) {
	c, _ := newTestController(t)

	rec := uploadCSV(t, c, "10080\n10081\n")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"10080", "10081"}, resp.ModelIDs)
}

func TestHandleUploadEmptyCSV(t *testing.T) {
	c, _ := newTestController(t)

	rec := uploadCSV(t, c, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExportArchive(t *testing.T) {
	c, ds := newTestController(t)
	seedOakModel(t, ds)
	require.NoError(t, os.WriteFile(
		filepath.Join(c.Settings.Docs.Path, "10080_doc.docx"), []byte("doc body"), 0o644))

	rec := doJSON(t, c, http.MethodPost, "/api/v1/export/archive",
		ArchiveRequest{ModelIDs: []string{"10080"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "bps_documents_")
	assert.NotEmpty(t, rec.Header().Get("X-Bundle-Id"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "10080_doc.docx")
	assert.Contains(t, names, "manifest.json")
}

func TestHandleExportArchiveEmptySelection(t *testing.T) {
	c, _ := newTestController(t)

	rec := doJSON(t, c, http.MethodPost, "/api/v1/export/archive", ArchiveRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExportReport(t *testing.T) {
	c, ds := newTestController(t)
	seedOakModel(t, ds)

	rec := doJSON(t, c, http.MethodPost, "/api/v1/export/report", ReportRequest{
		ModelIDs: []string{"10080"},
		Toggles: export.SectionToggles{
			ModelID:               true,
			BpsName:               true,
			VegetationDescription: true,
			FireTable:             true,
			FireChart:             true,
		},
		FilterSummary: "map zone 7",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"), "response is a PDF document")
}
