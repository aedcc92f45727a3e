package datastore

import (
	"context"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/landfiredata/bps-explorer/internal/errors"
)

// Cache keys for the filter option lists. The store never changes while the
// process runs, so cached entries never expire and are never invalidated.
const (
	cacheKeyVegetationTypes = "options:vegetation_types"
	cacheKeyMapZones        = "options:map_zones"
	cacheKeyFireRanges      = "options:fire_ranges"
	cacheKeyStats           = "options:stats"
)

// VegetationTypes returns the distinct vegetation types, normalized by
// stripping per-row annotation (anything after a newline or a "Map Zone"
// marker) and deduplicated.
func (ds *DataStore) VegetationTypes(ctx context.Context) ([]string, error) {
	if cached, found := ds.optionCache.Get(cacheKeyVegetationTypes); found {
		return cached.([]string), nil
	}

	var raw []string
	err := ds.DB.WithContext(ctx).
		Model(&BpsModel{}).
		Distinct("vegetation_type").
		Where("vegetation_type IS NOT NULL AND vegetation_type != ''").
		Order("vegetation_type").
		Pluck("vegetation_type", &raw).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "vegetation_types").
			Build()
	}

	cleaned := make(map[string]struct{}, len(raw))
	for _, vt := range raw {
		if c := CleanVegetationType(vt); c != "" {
			cleaned[c] = struct{}{}
		}
	}

	types := make([]string, 0, len(cleaned))
	for vt := range cleaned {
		types = append(types, vt)
	}
	sort.Strings(types)

	ds.optionCache.Set(cacheKeyVegetationTypes, types, cache.NoExpiration)
	return types, nil
}

// CleanVegetationType strips the map-zone annotation some rows embed after
// the canonical vegetation type.
func CleanVegetationType(vt string) string {
	cleaned, _, _ := strings.Cut(vt, "\n")
	cleaned, _, _ = strings.Cut(cleaned, "Map Zone")
	return strings.TrimSpace(cleaned)
}

// MapZones returns the sorted distinct zone numbers appearing anywhere in
// the comma-separated map_zones fields. Non-integer fragments are dropped.
func (ds *DataStore) MapZones(ctx context.Context) ([]int, error) {
	if cached, found := ds.optionCache.Get(cacheKeyMapZones); found {
		return cached.([]int), nil
	}

	var raw []string
	err := ds.DB.WithContext(ctx).
		Model(&BpsModel{}).
		Distinct("map_zones").
		Where("map_zones IS NOT NULL AND map_zones != ''").
		Pluck("map_zones", &raw).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "map_zones").
			Build()
	}

	zoneSet := make(map[int]struct{})
	for _, field := range raw {
		for _, zone := range ParseMapZones(field) {
			zoneSet[zone] = struct{}{}
		}
	}

	zones := make([]int, 0, len(zoneSet))
	for zone := range zoneSet {
		zones = append(zones, zone)
	}
	sort.Ints(zones)

	ds.optionCache.Set(cacheKeyMapZones, zones, cache.NoExpiration)
	return zones, nil
}

// FireRanges returns the observed [min,max] return interval per severity
// category, for building filter bounds.
func (ds *DataStore) FireRanges(ctx context.Context) (map[string]IntervalRange, error) {
	if cached, found := ds.optionCache.Get(cacheKeyFireRanges); found {
		return cached.(map[string]IntervalRange), nil
	}

	var rows []struct {
		Severity string  `gorm:"column:severity"`
		MinVal   float64 `gorm:"column:min_val"`
		MaxVal   float64 `gorm:"column:max_val"`
	}
	err := ds.DB.WithContext(ctx).
		Model(&FireFrequency{}).
		Select("severity, MIN(return_interval_years) as min_val, MAX(return_interval_years) as max_val").
		Where("severity IS NOT NULL").
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "fire_ranges").
			Build()
	}

	ranges := make(map[string]IntervalRange, len(rows))
	for _, row := range rows {
		ranges[row.Severity] = IntervalRange{Min: row.MinVal, Max: row.MaxVal}
	}

	ds.optionCache.Set(cacheKeyFireRanges, ranges, cache.NoExpiration)
	return ranges, nil
}

// Stats returns the landing-page summary numbers.
func (ds *DataStore) Stats(ctx context.Context) (*StoreStats, error) {
	if cached, found := ds.optionCache.Get(cacheKeyStats); found {
		return cached.(*StoreStats), nil
	}

	var total int64
	if err := ds.DB.WithContext(ctx).Model(&BpsModel{}).Count(&total).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "stats").
			Build()
	}

	types, err := ds.VegetationTypes(ctx)
	if err != nil {
		return nil, err
	}
	zones, err := ds.MapZones(ctx)
	if err != nil {
		return nil, err
	}

	stats := &StoreStats{
		TotalModels:     total,
		VegetationTypes: len(types),
		MapZones:        len(zones),
	}

	ds.optionCache.Set(cacheKeyStats, stats, cache.NoExpiration)
	return stats, nil
}
