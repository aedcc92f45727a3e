package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSettingsNormalizes(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	s.Database.Path = "bps_database.db"

	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, "8080", s.WebServer.Port)
	assert.Equal(t, 50, s.Search.DefaultLimit)
	assert.Equal(t, 500, s.Search.MaxLimit)
	assert.Equal(t, 1000, s.Export.ParagraphThreshold)
	assert.Equal(t, 640, s.Export.ChartWidth)
}

func TestValidateSettingsRequiresDatabasePath(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsCapsDefaultLimit(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	s.Database.Path = "db"
	s.Search.DefaultLimit = 900
	s.Search.MaxLimit = 100

	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, 100, s.Search.DefaultLimit)
}
