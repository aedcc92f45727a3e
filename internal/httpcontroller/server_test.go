package httpcontroller

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/landfiredata/bps-explorer/internal/conf"
	"github.com/landfiredata/bps-explorer/internal/datastore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dsn := fmt.Sprintf("file:servertest%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, datastore.Migrate(db))

	ds := datastore.NewFromDB(db)
	t.Cleanup(func() { _ = ds.Close() })

	settings := &conf.Settings{
		Main: conf.MainSettings{Name: "BPS Explorer"},
		Docs: conf.DocsSettings{Path: t.TempDir()},
		WebServer: conf.WebServerSettings{
			Host: "127.0.0.1",
			Port: "0",
		},
		Search: conf.SearchSettings{DefaultLimit: 50, MaxLimit: 500},
		Export: conf.ExportSettings{ParagraphThreshold: 1000, ChartWidth: 320, ChartHeight: 160},
	}
	return New(settings, ds)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAPIRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	registered := make(map[string]struct{})
	for _, r := range s.Echo.Routes() {
		registered[r.Method+" "+r.Path] = struct{}{}
	}

	for _, route := range []string{
		"POST /api/v1/search",
		"GET /api/v1/models/:id",
		"GET /api/v1/options",
		"POST /api/v1/upload",
		"POST /api/v1/export/archive",
		"POST /api/v1/export/report",
	} {
		assert.Contains(t, registered, route)
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
