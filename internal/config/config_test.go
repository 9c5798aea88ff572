package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.pappers.fr/v2", cfg.Pappers.BaseURL)
	assert.Equal(t, 400, cfg.Pappers.RequestIntervalMS)
	assert.Equal(t, "https://app.fullenrich.com/api/v2", cfg.Fullenrich.BaseURL)
	assert.Equal(t, 4, cfg.Fullenrich.PollIntervalSecs)
	assert.Equal(t, 40, cfg.Fullenrich.PollMaxAttempts)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Search.MaxResults)
	assert.Equal(t, 10, cfg.Search.MaxEnrichments)
	assert.Equal(t, "resultats", cfg.Search.OutputDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROSPECT_PAPPERS_API_TOKEN", "tok-123")
	t.Setenv("PROSPECT_SERVER_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cfg.Pappers.APIToken)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level"}))
}
