package datastore

import (
	"fmt"
	"os"

	"github.com/patrickmn/go-cache"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/landfiredata/bps-explorer/internal/conf"
	"github.com/landfiredata/bps-explorer/internal/errors"
)

// SQLiteStore implements Interface for the read-only SQLite store.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// New creates a SQLiteStore for the configured database path.
func New(settings *conf.Settings) *SQLiteStore {
	return &SQLiteStore{Settings: settings}
}

// Open connects to the SQLite database in read-only mode. A missing store
// file is a fatal startup condition.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Database.Path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.Newf("database file not found at %s, make sure the BPS store has been built", path).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	dsn := fmt.Sprintf("file:%s?mode=ro", path)

	logLevel := gormlogger.Silent
	if store.Settings.Debug {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	store.DB = db
	store.optionCache = cache.New(cache.NoExpiration, cache.NoExpiration)
	return nil
}

// NewFromDB wraps an already-open GORM handle. Used by the offline ingest
// and by tests; the interactive path goes through New and Open.
func NewFromDB(db *gorm.DB) *DataStore {
	return &DataStore{
		DB:          db,
		optionCache: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// Open is a no-op when the handle was provided at construction time.
func (ds *DataStore) Open() error {
	return nil
}

// Close releases the underlying database handle.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the store schema on a writable database handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BpsModel{}, &ReferenceCondition{}, &FireFrequency{},
		&SpeciesIndicator{}, &SuccessionClass{}, &Modeler{}, &ModelAssignment{},
	)
}
