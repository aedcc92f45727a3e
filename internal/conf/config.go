// Package conf defines the settings struct for the BPS explorer and the
// functions to load and save them.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MainSettings contains application-wide settings.
type MainSettings struct {
	Name string // instance name shown in report footers
	Log  struct {
		Enabled bool   // true to enable file logging
		Path    string // path to application log file
	}
}

// DatabaseSettings locates the read-only BPS store.
type DatabaseSettings struct {
	Path string // path to the pre-built SQLite database file
}

// DocsSettings locates the per-model source documents.
type DocsSettings struct {
	Path string // directory holding per-model source documents
}

// WebServerSettings configures the HTTP listener.
type WebServerSettings struct {
	Host string
	Port string
}

// SearchSettings bounds the result set.
type SearchSettings struct {
	DefaultLimit int // result cap applied when the request doesn't set one
	MaxLimit     int // hard upper bound for the result cap
}

// ExportSettings tunes report generation.
type ExportSettings struct {
	ParagraphThreshold int // split long-text sections above this many characters
	ChartWidth         int // fire-regime chart width in pixels
	ChartHeight        int // fire-regime chart height in pixels
}

// Settings is the root configuration struct.
type Settings struct {
	Debug bool

	Main      MainSettings
	Database  DatabaseSettings
	Docs      DocsSettings
	WebServer WebServerSettings
	Search    SearchSettings
	Export    ExportSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings struct and stores it as the package-level instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// Setting returns the package-level settings instance, loading it on first
// use.
func Setting() *Settings {
	settingsMutex.RLock()
	if settingsInstance != nil {
		defer settingsMutex.RUnlock()
		return settingsInstance
	}
	settingsMutex.RUnlock()

	if _, err := Load(); err != nil {
		return nil
	}
	return settingsInstance
}

// initViper initializes viper with default values and reads the
// configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file found, write one with the defaults.
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the default configuration to the first default
// config path so the user has a file to edit.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(configPaths[0], 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	settings := viper.AllSettings()
	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the list of directories searched for the
// configuration file, in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	var paths []string

	// Current directory first for development use.
	paths = append(paths, ".")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return paths, nil
	}
	paths = append(paths, filepath.Join(homeDir, ".config", "bps-explorer"))

	return paths, nil
}
