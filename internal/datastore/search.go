package datastore

import (
	"context"
	"strconv"
	"strings"

	"github.com/landfiredata/bps-explorer/internal/errors"
)

// IntervalRange is an inclusive [Min,Max] fire return interval in years.
type IntervalRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SearchFilters is the set of independently optional predicates a search
// request may carry. Every individual filter narrows the result set; the
// active filters combine with logical AND.
type SearchFilters struct {
	// ModelIDs is the identifier allowlist from a CSV upload. When present
	// it takes precedence over Term.
	ModelIDs []string

	// Term is matched case-insensitively as a substring over model id,
	// vegetation type, geographic range, biophysical site description,
	// vegetation description, and the joined bps_name.
	Term string

	// VegetationType matches on "starts with" because the stored field may
	// carry trailing map-zone annotation after the canonical type.
	VegetationType string

	// MapZones are matched individually against the stored comma-separated
	// zone field; a model matching ANY supplied zone passes this filter.
	MapZones []int

	// NameContains is a substring match on the joined bps_name only.
	NameContains string

	// FireIntervals constrains models per severity category. A model must
	// satisfy every severity constraint simultaneously.
	FireIntervals map[string]IntervalRange

	// Limit caps the number of returned rows.
	Limit int
}

// SearchResult is one row of the search result set.
type SearchResult struct {
	BpsModelID            string `gorm:"column:bps_model_id" json:"bpsModelId"`
	VegetationType        string `gorm:"column:vegetation_type" json:"vegetationType"`
	MapZones              string `gorm:"column:map_zones" json:"mapZones"`
	Document              string `gorm:"column:document" json:"document"`
	VegetationDescription string `gorm:"column:vegetation_description" json:"vegetationDescription"`
	GeographicRange       string `gorm:"column:geographic_range" json:"geographicRange"`
	BpsName               string `gorm:"column:bps_name" json:"bpsName"`
}

// searchColumns are the six free-text search targets; one wildcard pattern is
// reused across all of them.
const searchColumns = `(bm.bps_model_id LIKE ? OR
	bm.vegetation_type LIKE ? OR
	bm.geographic_range LIKE ? OR
	bm.biophysical_site_description LIKE ? OR
	bm.vegetation_description LIKE ? OR
	rcl.bps_name LIKE ?)`

// SearchModels converts the filter set to one parameterized query and
// executes it. All user input travels as bound parameters; the SQL text is
// assembled only from literals. Rows are deduplicated, ordered by model id
// ascending, and capped at the limit.
func (ds *DataStore) SearchModels(ctx context.Context, filters *SearchFilters) ([]SearchResult, error) {
	query := ds.DB.WithContext(ctx).
		Table("bps_models bm").
		Distinct("bm.bps_model_id, bm.vegetation_type, bm.map_zones, bm.document, bm.vegetation_description, bm.geographic_range, rcl.bps_name").
		Joins("LEFT JOIN ref_con_long rcl ON bm.bps_model_id = rcl.bps_model_id")

	// Identifier allowlist takes precedence over free-text search.
	switch {
	case len(filters.ModelIDs) > 0:
		query = query.Where("bm.bps_model_id IN ?", NormalizeModelIDs(filters.ModelIDs))
	case strings.TrimSpace(filters.Term) != "":
		pattern := "%" + strings.TrimSpace(filters.Term) + "%"
		query = query.Where(searchColumns,
			pattern, pattern, pattern, pattern, pattern, pattern)
	}

	if v := strings.TrimSpace(filters.VegetationType); v != "" {
		// Prefix match: the stored field may have trailing annotation after
		// the canonical type.
		query = query.Where("bm.vegetation_type LIKE ?", v+"%")
	}

	if len(filters.MapZones) > 0 {
		sql, args := mapZoneCondition(filters.MapZones)
		query = query.Where(sql, args...)
	}

	if n := strings.TrimSpace(filters.NameContains); n != "" {
		query = query.Where("rcl.bps_name LIKE ?", "%"+n+"%")
	}

	// Fire constraints AND together: one EXISTS sub-check per severity.
	// Iterate in fixed order so the generated SQL is deterministic.
	for _, severity := range SeverityOrder {
		rng, ok := filters.FireIntervals[severity]
		if !ok {
			continue
		}
		query = query.Where(`EXISTS (
			SELECT 1 FROM fire_frequency ff
			WHERE ff.bps_model_id = bm.bps_model_id
			AND ff.severity = ?
			AND ff.return_interval_years >= ?
			AND ff.return_interval_years <= ?)`,
			severity, rng.Min, rng.Max)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	var results []SearchResult
	err := query.Order("bm.bps_model_id ASC").Limit(limit).Scan(&results).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "search_models").
			Build()
	}
	return results, nil
}

// mapZoneCondition builds the boundary-disciplined match for a zone list.
// Spaces are stripped from the stored field first, then each zone must
// appear as the sole entry, at the start, at the end, or in the middle of
// the comma-separated list. "17" never matches zone 7. Zones OR together.
func mapZoneCondition(zones []int) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(zones)*4)

	sb.WriteString("(")
	for i, zone := range zones {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		z := strconv.Itoa(zone)
		sb.WriteString("(replace(bm.map_zones, ' ', '') = ?" +
			" OR replace(bm.map_zones, ' ', '') LIKE ?" +
			" OR replace(bm.map_zones, ' ', '') LIKE ?" +
			" OR replace(bm.map_zones, ' ', '') LIKE ?)")
		args = append(args, z, z+",%", "%,"+z, "%,"+z+",%")
	}
	sb.WriteString(")")

	return sb.String(), args
}

// ParseMapZones parses user-supplied comma-separated zone numbers.
// Non-integer tokens are dropped rather than raising; an entirely
// unparseable input yields no constraint.
func ParseMapZones(input string) []int {
	var zones []int
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		zone, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		zones = append(zones, zone)
	}
	return zones
}

// NormalizeModelIDs trims and deduplicates an identifier allowlist,
// preserving first-seen order.
func NormalizeModelIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
