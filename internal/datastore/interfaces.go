// Package datastore provides read-only access to the pre-built BPS SQLite
// store. The store is written once by the offline ingest and never mutated
// by the interactive application, so concurrent readers are safe by
// construction.
package datastore

import (
	"context"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/landfiredata/bps-explorer/internal/errors"
)

// ErrModelNotFound is returned when a model id does not exist in the store.
var ErrModelNotFound = errors.NewStd("model not found")

// Interface defines the datastore operations used by the API and export
// layers.
type Interface interface {
	Open() error
	Close() error

	SearchModels(ctx context.Context, filters *SearchFilters) ([]SearchResult, error)

	GetModel(ctx context.Context, bpsModelID string) (*BpsModel, error)
	GetReferenceConditions(ctx context.Context, bpsModelID string) ([]ReferenceCondition, error)
	GetFireFrequencies(ctx context.Context, bpsModelID string) ([]FireFrequency, error)
	GetSpeciesIndicators(ctx context.Context, bpsModelID string) ([]SpeciesIndicator, error)
	GetSuccessionClasses(ctx context.Context, bpsModelID string) ([]SucclassDetail, error)
	GetModelers(ctx context.Context, bpsModelID string) ([]ModelerDetail, error)

	VegetationTypes(ctx context.Context) ([]string, error)
	MapZones(ctx context.Context) ([]int, error)
	FireRanges(ctx context.Context) (map[string]IntervalRange, error)
	Stats(ctx context.Context) (*StoreStats, error)
}

// StoreStats carries the landing-page summary numbers.
type StoreStats struct {
	TotalModels     int64 `json:"totalModels"`
	VegetationTypes int   `json:"vegetationTypes"`
	MapZones        int   `json:"mapZones"`
}

// DataStore implements Interface against a GORM database handle. Option
// lists are served through a read-through cache; the cache is never
// invalidated because the store is immutable for the lifetime of the
// process. That immutability is a correctness precondition.
type DataStore struct {
	DB          *gorm.DB
	optionCache *cache.Cache
}

// GetModel fetches a single model record by id.
func (ds *DataStore) GetModel(ctx context.Context, bpsModelID string) (*BpsModel, error) {
	var model BpsModel
	err := ds.DB.WithContext(ctx).
		Where("bps_model_id = ?", bpsModelID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("bps_model_id", bpsModelID).
			Build()
	}
	return &model, nil
}

// GetReferenceConditions returns the reference condition rows for a model,
// ordered by reference label.
func (ds *DataStore) GetReferenceConditions(ctx context.Context, bpsModelID string) ([]ReferenceCondition, error) {
	var rows []ReferenceCondition
	err := ds.DB.WithContext(ctx).
		Where("bps_model_id = ?", bpsModelID).
		Order("ref_label").
		Find(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("bps_model_id", bpsModelID).
			Build()
	}
	return rows, nil
}

// GetFireFrequencies returns a model's fire frequency rows, most frequent
// fire share first.
func (ds *DataStore) GetFireFrequencies(ctx context.Context, bpsModelID string) ([]FireFrequency, error) {
	var rows []FireFrequency
	err := ds.DB.WithContext(ctx).
		Where("bps_model_id = ? AND severity IS NOT NULL", bpsModelID).
		Order("percent_of_all_fires DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("bps_model_id", bpsModelID).
			Build()
	}
	return rows, nil
}

// GetSpeciesIndicators returns a model's indicator species, ordered by
// scientific name.
func (ds *DataStore) GetSpeciesIndicators(ctx context.Context, bpsModelID string) ([]SpeciesIndicator, error) {
	var rows []SpeciesIndicator
	err := ds.DB.WithContext(ctx).
		Where("bps_model_id = ?", bpsModelID).
		Order("scientific_name").
		Find(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("bps_model_id", bpsModelID).
			Build()
	}
	return rows, nil
}

// GetSuccessionClasses returns a model's succession class descriptions with
// their reference percentages joined from ref_con_long.
func (ds *DataStore) GetSuccessionClasses(ctx context.Context, bpsModelID string) ([]SucclassDetail, error) {
	var rows []SucclassDetail
	err := ds.DB.WithContext(ctx).
		Table("scls_descriptions sd").
		Select("sd.ref_label, sd.state_class_id, sd.description, rcl.ref_percent").
		Joins("LEFT JOIN ref_con_long rcl ON rcl.bps_model_id = sd.bps_model_id AND rcl.ref_label = sd.ref_label").
		Where("sd.bps_model_id = ?", bpsModelID).
		Order("sd.ref_label").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("bps_model_id", bpsModelID).
			Build()
	}
	return rows, nil
}

// GetModelers returns the modeler identities assigned to a model together
// with reviewer attributes from the assignment.
func (ds *DataStore) GetModelers(ctx context.Context, bpsModelID string) ([]ModelerDetail, error) {
	var rows []ModelerDetail
	err := ds.DB.WithContext(ctx).
		Table("models ma").
		Select("m.modelers, m.modeler_email, ma.reviewers, ma.reviewer_email").
		Joins("JOIN modelers m ON ma.modeler_id = m.modeler_id").
		Where("ma.bps_model_id = ?", bpsModelID).
		Order("m.modeler_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("bps_model_id", bpsModelID).
			Build()
	}
	return rows, nil
}
