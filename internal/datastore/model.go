// model.go this code defines the data model for the application
package datastore

// BpsModel is one Biophysical Settings record. The interactive application
// never mutates these rows; they are written once by the offline ingest.
type BpsModel struct {
	BpsModelID                       string `gorm:"column:bps_model_id;primaryKey"`
	VegetationType                   string `gorm:"column:vegetation_type;index:idx_bps_models_veg_type"`
	MapZones                         string `gorm:"column:map_zones"` // comma-separated integers as text
	GeographicRange                  string `gorm:"column:geographic_range"`
	VegetationDescription            string `gorm:"column:vegetation_description"`
	BiophysicalSiteDescription       string `gorm:"column:biophysical_site_description"`
	ScaleDescription                 string `gorm:"column:scale_description"`
	Issues                           string `gorm:"column:issues"`
	NativeUncharacteristicConditions string `gorm:"column:native_uncharacteristic_conditions"`
	Document                         string `gorm:"column:document"` // source document filename, may be empty
}

func (BpsModel) TableName() string {
	return "bps_models"
}

// ReferenceCondition is one named historical vegetation state for a model,
// with its estimated share of the reference landscape.
type ReferenceCondition struct {
	ModelLabel string  `gorm:"column:model_label;primaryKey"`
	BpsModelID string  `gorm:"column:bps_model_id;index:idx_ref_con_model"`
	BpsName    string  `gorm:"column:bps_name"`
	RefLabel   string  `gorm:"column:ref_label"`
	RefPercent float64 `gorm:"column:ref_percent"`
}

func (ReferenceCondition) TableName() string {
	return "ref_con_long"
}

// FireFrequency is one severity row for a model. ReturnIntervalYears >= 0.
type FireFrequency struct {
	ID                  uint    `gorm:"primaryKey"`
	BpsModelID          string  `gorm:"column:bps_model_id;index:idx_fire_freq_model"`
	Severity            string  `gorm:"column:severity"`
	ReturnIntervalYears float64 `gorm:"column:return_interval_years"`
	PercentOfAllFires   float64 `gorm:"column:percent_of_all_fires"`
}

func (FireFrequency) TableName() string {
	return "fire_frequency"
}

// SpeciesIndicator is one indicator species for a model.
type SpeciesIndicator struct {
	ID             uint   `gorm:"primaryKey"`
	BpsModelID     string `gorm:"column:bps_model_id;index:idx_indicators_model"`
	Symbol         string `gorm:"column:symbol"`
	ScientificName string `gorm:"column:scientific_name"`
	CommonName     string `gorm:"column:common_name"`
}

func (SpeciesIndicator) TableName() string {
	return "bps_indicators"
}

// SuccessionClass describes one state-class of a model, keyed by
// (bps_model_id, ref_label). Reference percentages come from the join
// against ref_con_long.
type SuccessionClass struct {
	ID           uint   `gorm:"primaryKey"`
	BpsModelID   string `gorm:"column:bps_model_id;index:idx_scls_model"`
	RefLabel     string `gorm:"column:ref_label"`
	StateClassID string `gorm:"column:state_class_id"`
	Description  string `gorm:"column:description"`
}

func (SuccessionClass) TableName() string {
	return "scls_descriptions"
}

// Modeler is a deduplicated modeler identity.
type Modeler struct {
	ModelerID int    `gorm:"column:modeler_id;primaryKey"`
	Name      string `gorm:"column:modelers"`
	Email     string `gorm:"column:modeler_email"`
}

func (Modeler) TableName() string {
	return "modelers"
}

// ModelAssignment links a model to a modeler, with reviewer attributes on
// the assignment. Present in the storage layer only; not exposed in search.
type ModelAssignment struct {
	BpsModelID    string `gorm:"column:bps_model_id;primaryKey"`
	ModelerID     int    `gorm:"column:modeler_id;primaryKey"`
	Reviewers     string `gorm:"column:reviewers"`
	ReviewerEmail string `gorm:"column:reviewer_email"`
}

func (ModelAssignment) TableName() string {
	return "models"
}

// Fire severity categories, the fixed set stored in fire_frequency.severity.
const (
	SeverityAllFires    = "All Fires"
	SeverityLowSurface  = "Low (Surface)"
	SeverityModerate    = "Moderate (Mixed)"
	SeverityReplacement = "Replacement"
)

// SeverityOrder is the display and predicate-evaluation order for severity
// categories.
var SeverityOrder = []string{
	SeverityAllFires,
	SeverityLowSurface,
	SeverityModerate,
	SeverityReplacement,
}

// SucclassDetail is a succession class description joined with its reference
// percentage from ref_con_long.
type SucclassDetail struct {
	RefLabel     string  `gorm:"column:ref_label" json:"refLabel"`
	StateClassID string  `gorm:"column:state_class_id" json:"stateClassId"`
	Description  string  `gorm:"column:description" json:"description"`
	RefPercent   float64 `gorm:"column:ref_percent" json:"refPercent"`
}

// ModelerDetail is a modeler identity joined with the reviewer attributes of
// its assignment.
type ModelerDetail struct {
	Name          string `gorm:"column:modelers" json:"name"`
	Email         string `gorm:"column:modeler_email" json:"email"`
	Reviewers     string `gorm:"column:reviewers" json:"reviewers"`
	ReviewerEmail string `gorm:"column:reviewer_email" json:"reviewerEmail"`
}
