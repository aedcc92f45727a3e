package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVegetationTypesCleaned(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	seedModel(t, ds, BpsModel{BpsModelID: "a", VegetationType: "Forest and Woodland\nMap Zone 7"}, "")
	seedModel(t, ds, BpsModel{BpsModelID: "b", VegetationType: "Forest and Woodland Map Zone 12"}, "")
	seedModel(t, ds, BpsModel{BpsModelID: "c", VegetationType: "Shrubland"}, "")

	types, err := ds.VegetationTypes(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"Forest and Woodland", "Shrubland"}, types)
}

func TestCleanVegetationType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Forest and Woodland", "Forest and Woodland"},
		{"Forest and Woodland\nextra", "Forest and Woodland"},
		{"Herbaceous Map Zone 3", "Herbaceous"},
		{"  Shrubland  ", "Shrubland"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanVegetationType(tt.in))
	}
}

func TestMapZonesDistinctSorted(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	seedModel(t, ds, BpsModel{BpsModelID: "a", MapZones: "12, 1, 7"}, "")
	seedModel(t, ds, BpsModel{BpsModelID: "b", MapZones: "7,3"}, "")
	seedModel(t, ds, BpsModel{BpsModelID: "c", MapZones: "bogus, 9"}, "")

	zones, err := ds.MapZones(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7, 9, 12}, zones)
}

func TestFireRanges(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	seedModel(t, ds, BpsModel{BpsModelID: "a"}, "",
		FireFrequency{Severity: SeverityReplacement, ReturnIntervalYears: 40},
		FireFrequency{Severity: SeverityAllFires, ReturnIntervalYears: 10})
	seedModel(t, ds, BpsModel{BpsModelID: "b"}, "",
		FireFrequency{Severity: SeverityReplacement, ReturnIntervalYears: 200})

	ranges, err := ds.FireRanges(t.Context())
	require.NoError(t, err)

	require.Contains(t, ranges, SeverityReplacement)
	assert.InDelta(t, 40, ranges[SeverityReplacement].Min, 0.001)
	assert.InDelta(t, 200, ranges[SeverityReplacement].Max, 0.001)

	require.Contains(t, ranges, SeverityAllFires)
	assert.InDelta(t, 10, ranges[SeverityAllFires].Min, 0.001)
	assert.InDelta(t, 10, ranges[SeverityAllFires].Max, 0.001)
}

func TestOptionCacheServesSecondRead(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	seedModel(t, ds, BpsModel{BpsModelID: "a", VegetationType: "Shrubland"}, "")

	first, err := ds.VegetationTypes(t.Context())
	require.NoError(t, err)

	// A row added behind the cache's back must not show up: the cache is
	// read-through with no invalidation because the real store is immutable.
	seedModel(t, ds, BpsModel{BpsModelID: "b", VegetationType: "Herbaceous"}, "")

	second, err := ds.VegetationTypes(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStats(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	seedModel(t, ds, BpsModel{BpsModelID: "a", VegetationType: "Shrubland", MapZones: "1,2"}, "")
	seedModel(t, ds, BpsModel{BpsModelID: "b", VegetationType: "Herbaceous", MapZones: "2,3"}, "")

	stats, err := ds.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalModels)
	assert.Equal(t, 2, stats.VegetationTypes)
	assert.Equal(t, 3, stats.MapZones)
}

func TestGetModelNotFound(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	_, err := ds.GetModel(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestGetSuccessionClassesJoinsRefPercent(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	seedModel(t, ds, BpsModel{BpsModelID: "m"}, "Oak Woodland")
	require.NoError(t, ds.DB.Create(&SuccessionClass{
		BpsModelID:   "m",
		RefLabel:     "A",
		StateClassID: "A1",
		Description:  "Early development, post-replacement",
	}).Error)

	classes, err := ds.GetSuccessionClasses(t.Context(), "m")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "A1", classes[0].StateClassID)
	assert.InDelta(t, 30, classes[0].RefPercent, 0.001) // from seeded ref_con row "A"
}

func TestGetModelers(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	seedModel(t, ds, BpsModel{BpsModelID: "m"}, "")
	require.NoError(t, ds.DB.Create(&Modeler{ModelerID: 1, Name: "jane doe", Email: "jane@example.org"}).Error)
	require.NoError(t, ds.DB.Create(&ModelAssignment{
		BpsModelID: "m", ModelerID: 1, Reviewers: "rob roe", ReviewerEmail: "rob@example.org",
	}).Error)

	modelers, err := ds.GetModelers(t.Context(), "m")
	require.NoError(t, err)
	require.Len(t, modelers, 1)
	assert.Equal(t, "jane doe", modelers[0].Name)
	assert.Equal(t, "rob roe", modelers[0].Reviewers)
}
