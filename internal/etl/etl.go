// Package etl builds the BPS SQLite store from the raw CSV exports. The
// store is written once here and opened read-only by the application.
package etl

import (
	"context"
	"log/slog"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/landfiredata/bps-explorer/internal/datastore"
	"github.com/landfiredata/bps-explorer/internal/errors"
	"github.com/landfiredata/bps-explorer/internal/logging"
)

const insertBatchSize = 500

// Ingester loads the CSV table exports into a fresh SQLite store.
type Ingester struct {
	tablesDir string
	dbPath    string
	log       *slog.Logger
}

// NewIngester creates an Ingester reading CSVs from tablesDir and writing
// the store to dbPath.
func NewIngester(tablesDir, dbPath string) *Ingester {
	logger := logging.ForService("etl")
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{tablesDir: tablesDir, dbPath: dbPath, log: logger}
}

// Run builds the store: it migrates the schema onto a writable database and
// loads every table. Loading is all-or-nothing per run; a failed table
// aborts the build.
func (ing *Ingester) Run(ctx context.Context) error {
	db, err := gorm.Open(sqlite.Open(ing.dbPath), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		CreateBatchSize:      insertBatchSize,
		DisableAutomaticPing: true,
	})
	if err != nil {
		return errors.New(err).
			Component("etl").
			Category(errors.CategoryDatabase).
			Context("path", ing.dbPath).
			Build()
	}
	store := datastore.NewFromDB(db)
	defer store.Close()

	if err := datastore.Migrate(db); err != nil {
		return errors.New(err).
			Component("etl").
			Category(errors.CategoryDatabase).
			Context("operation", "migrate").
			Build()
	}

	steps := []struct {
		name string
		load func(context.Context, *gorm.DB) (int, error)
	}{
		{"bps_models", ing.loadBpsModels},
		{"ref_con_long", ing.loadReferenceConditions},
		{"fire_frequency", ing.loadFireFrequencies},
		{"bps_indicators", ing.loadSpeciesIndicators},
		{"scls_descriptions", ing.loadSuccessionClasses},
		{"modelers", ing.loadModelers},
	}
	for _, step := range steps {
		n, err := step.load(ctx, db)
		if err != nil {
			return err
		}
		ing.log.Info("table loaded", "table", step.name, "rows", n)
	}

	return nil
}

func (ing *Ingester) tablePath(name string) string {
	return filepath.Join(ing.tablesDir, name+".csv")
}

func (ing *Ingester) loadBpsModels(ctx context.Context, db *gorm.DB) (int, error) {
	t, err := readTable(ing.tablePath("text_df"))
	if err != nil {
		return 0, err
	}
	if err := t.require("bps_model_id"); err != nil {
		return 0, err
	}

	models := make([]datastore.BpsModel, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.get(row, "bps_model_id")
		if id == "" {
			continue
		}
		models = append(models, datastore.BpsModel{
			BpsModelID:                       id,
			VegetationType:                   t.get(row, "vegetation_type"),
			MapZones:                         t.get(row, "map_zones"),
			GeographicRange:                  t.get(row, "geographic_range"),
			VegetationDescription:            t.get(row, "vegetation_description"),
			BiophysicalSiteDescription:       t.get(row, "biophysical_site_description"),
			ScaleDescription:                 t.get(row, "scale_description"),
			Issues:                           t.get(row, "issues"),
			NativeUncharacteristicConditions: t.get(row, "native_uncharacteristic_conditions"),
			Document:                         t.get(row, "document"),
		})
	}
	return len(models), createAll(ctx, db, models, "bps_models")
}

func (ing *Ingester) loadReferenceConditions(ctx context.Context, db *gorm.DB) (int, error) {
	t, err := readTable(ing.tablePath("ref_con_long"))
	if err != nil {
		return 0, err
	}
	if err := t.require("model_label", "bps_model_id"); err != nil {
		return 0, err
	}

	rows := make([]datastore.ReferenceCondition, 0, len(t.rows))
	for _, row := range t.rows {
		label := t.get(row, "model_label")
		if label == "" {
			continue
		}
		rows = append(rows, datastore.ReferenceCondition{
			ModelLabel: label,
			BpsModelID: t.get(row, "bps_model_id"),
			BpsName:    t.get(row, "bps_name"),
			RefLabel:   t.get(row, "ref_label"),
			RefPercent: t.getFloat(row, "ref_percent"),
		})
	}
	return len(rows), createAll(ctx, db, rows, "ref_con_long")
}

func (ing *Ingester) loadFireFrequencies(ctx context.Context, db *gorm.DB) (int, error) {
	t, err := readTable(ing.tablePath("fire_frequency"))
	if err != nil {
		return 0, err
	}
	if err := t.require("bps_model_id", "severity"); err != nil {
		return 0, err
	}

	rows := make([]datastore.FireFrequency, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.get(row, "bps_model_id")
		if id == "" {
			continue
		}
		rows = append(rows, datastore.FireFrequency{
			BpsModelID:          id,
			Severity:            t.get(row, "severity"),
			ReturnIntervalYears: t.getFloat(row, "return_interval_years"),
			PercentOfAllFires:   t.getFloat(row, "percent_of_all_fires"),
		})
	}
	return len(rows), createAll(ctx, db, rows, "fire_frequency")
}

func (ing *Ingester) loadSpeciesIndicators(ctx context.Context, db *gorm.DB) (int, error) {
	t, err := readTable(ing.tablePath("bps_indicators"))
	if err != nil {
		return 0, err
	}
	if err := t.require("bps_model_id", "scientific_name"); err != nil {
		return 0, err
	}

	rows := make([]datastore.SpeciesIndicator, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.get(row, "bps_model_id")
		if id == "" {
			continue
		}
		rows = append(rows, datastore.SpeciesIndicator{
			BpsModelID:     id,
			Symbol:         t.get(row, "symbol"),
			ScientificName: t.get(row, "scientific_name"),
			CommonName:     t.get(row, "common_name"),
		})
	}
	return len(rows), createAll(ctx, db, rows, "bps_indicators")
}

func (ing *Ingester) loadSuccessionClasses(ctx context.Context, db *gorm.DB) (int, error) {
	t, err := readTable(ing.tablePath("scls_descriptions"))
	if err != nil {
		return 0, err
	}
	if err := t.require("bps_model_id", "ref_label"); err != nil {
		return 0, err
	}

	rows := make([]datastore.SuccessionClass, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.get(row, "bps_model_id")
		if id == "" {
			continue
		}
		rows = append(rows, datastore.SuccessionClass{
			BpsModelID:   id,
			RefLabel:     t.get(row, "ref_label"),
			StateClassID: t.get(row, "state_class_id"),
			Description:  t.get(row, "description"),
		})
	}
	return len(rows), createAll(ctx, db, rows, "scls_descriptions")
}

func (ing *Ingester) loadModelers(ctx context.Context, db *gorm.DB) (int, error) {
	t, err := readTable(ing.tablePath("modelers"))
	if err != nil {
		return 0, err
	}
	if err := t.require("bps_model_id"); err != nil {
		return 0, err
	}

	raw := make([]modelerRow, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.get(row, "bps_model_id")
		if id == "" {
			continue
		}
		raw = append(raw, modelerRow{
			BpsModelID:    id,
			Name:          t.get(row, "modelers"),
			Email:         t.get(row, "modeler_email"),
			Reviewers:     t.get(row, "reviewers"),
			ReviewerEmail: t.get(row, "reviewer_email"),
		})
	}

	modelers, assignments, err := splitModelers(raw)
	if err != nil {
		return 0, err
	}
	if err := createAll(ctx, db, modelers, "modelers"); err != nil {
		return 0, err
	}
	return len(assignments), createAll(ctx, db, assignments, "models")
}

// createAll bulk-inserts the rows, tolerating an empty slice.
func createAll[T any](ctx context.Context, db *gorm.DB, rows []T, tableName string) error {
	if len(rows) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return errors.New(err).
			Component("etl").
			Category(errors.CategoryImport).
			Context("table", tableName).
			Build()
	}
	return nil
}
