package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegioelo/vagas/internal/domain/models"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PORTAL_INSTITUTION", "COLEGIO")
	t.Setenv("PORTAL_USERNAME", "operator")
	t.Setenv("PORTAL_PASSWORD", "secret")
	t.Setenv("PORTAL_PERIOD", "2026")
}

func emptyEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORTAL_UNITS", "")

	cfg, err := Load(emptyEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultUnits, cfg.Portal.Units)
	assert.Equal(t, DefaultExcludedKeywords, cfg.Extractor.ExcludedKeywords)
	assert.Equal(t, "Total geral", cfg.Extractor.Marker)
	assert.Equal(t, 12, cfg.Extractor.FramePollAttempts)
	assert.Equal(t, 5*time.Second, cfg.Extractor.FramePollInterval)
	assert.Equal(t, 60*time.Second, cfg.Portal.LoginTimeout)
	assert.Equal(t, 30*time.Second, cfg.Portal.ReportTimeout)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.MongoDB.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORTAL_UNITS", "1|Unit One|U1; 2|Unit Two|U2")
	t.Setenv("EXCLUDED_KEYWORDS", "Robótica, xadrez ,")
	t.Setenv("FRAME_POLL_ATTEMPTS", "3")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("PORTAL_SETTLE", "250ms")

	cfg, err := Load(emptyEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, []models.UnitDescriptor{
		{ID: "1", Name: "Unit One", Code: "U1"},
		{ID: "2", Name: "Unit Two", Code: "U2"},
	}, cfg.Portal.Units)
	assert.Equal(t, []string{"Robótica", "xadrez"}, cfg.Extractor.ExcludedKeywords)
	assert.Equal(t, 3, cfg.Extractor.FramePollAttempts)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 250*time.Millisecond, cfg.Portal.Settle)
}

func TestLoadRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		unset string
	}{
		{name: "missing password", unset: "PORTAL_PASSWORD"},
		{name: "missing period", unset: "PORTAL_PERIOD"},
		{name: "malformed unit", env: map[string]string{"PORTAL_UNITS": "1|only-name"}},
		{name: "unit without code", env: map[string]string{"PORTAL_UNITS": "1|Unit|"}},
		{name: "sheets half configured", env: map[string]string{"GOOGLE_SHEET_ID": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("PORTAL_UNITS", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.unset != "" {
				t.Setenv(tt.unset, "")
			}

			_, err := Load(emptyEnvFile(t))
			assert.Error(t, err)
		})
	}
}
