package conf

import (
	"fmt"
)

// ValidateSettings checks the loaded settings for values that would leave the
// application in a broken state. It normalizes recoverable problems and
// returns an error only for unusable configurations.
func ValidateSettings(settings *Settings) error {
	if settings.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if settings.WebServer.Port == "" {
		settings.WebServer.Port = "8080"
	}

	if settings.Search.DefaultLimit <= 0 {
		settings.Search.DefaultLimit = 50
	}
	if settings.Search.MaxLimit <= 0 {
		settings.Search.MaxLimit = 500
	}
	if settings.Search.DefaultLimit > settings.Search.MaxLimit {
		settings.Search.DefaultLimit = settings.Search.MaxLimit
	}

	if settings.Export.ParagraphThreshold <= 0 {
		settings.Export.ParagraphThreshold = 1000
	}
	if settings.Export.ChartWidth <= 0 || settings.Export.ChartHeight <= 0 {
		settings.Export.ChartWidth = 640
		settings.Export.ChartHeight = 240
	}

	return nil
}
