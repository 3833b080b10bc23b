package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	profiles "hourly-profiles/internal/profiles/domain"
)

func clearProfileEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PROFILES_CONFIG", "PROFILES_DEMAND_CSV", "PROFILES_SOLAR_CSV", "PROFILES_WIND_CSV",
		"PROFILES_OUT_CSV", "PROFILES_OUT_XLSX", "PROFILES_OUT_PDF", "PROFILES_METRICS_TEXTFILE",
		"PROFILES_SOLAR_CF", "PROFILES_WIND_CF", "PROFILES_CAPACITY_WINDOW_HOURS", "DATABASE_URL",
		"PROFILES_WEBHOOK_URL", "PROFILES_REPORT_URL",
	} {
		t.Setenv(key, "")
	}
	// t.Setenv restores the variable afterwards; unset it so LookupEnv misses.
	t.Setenv("PROFILES_CUTOVER", "")
	require.NoError(t, os.Unsetenv("PROFILES_CUTOVER"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearProfileEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 3, cfg.Demand.ValueColumn)
	assert.True(t, cfg.Demand.RoundValues)
	assert.Equal(t, 1, cfg.Solar.DateColumn)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	clearProfileEnv(t)
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
demand:
  path: /data/demand.csv
  date_column: 0
  hour_column: 1
  value_column: 2
solar:
  path: /data/solar.csv
  date_column: 1
  hour_column: 2
  value_column: 3
parameters:
  wind_capacity_factor: 0.4
  cutover: "2014010101"
outputs:
  csv: /out/merged.csv
  pdf: /out/report.pdf
  webhook_url: http://hooks.local/yaml
`), 0o600))
	t.Setenv("PROFILES_WIND_CSV", "/env/wind.csv")
	t.Setenv("PROFILES_WEBHOOK_URL", "http://hooks.local/env")
	t.Setenv("PROFILES_SOLAR_CF", "0.2")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/demand.csv", cfg.Demand.Path)
	assert.Equal(t, 2, cfg.Demand.ValueColumn)
	assert.Equal(t, "/env/wind.csv", cfg.Wind.Path)
	assert.Equal(t, 3, cfg.Wind.ValueColumn)
	assert.Equal(t, 0.2, cfg.Parameters.SolarCapacityFactor)
	assert.Equal(t, 0.4, cfg.Parameters.WindCapacityFactor)
	assert.Equal(t, profiles.DatehourKey("2014010101"), cfg.Parameters.Cutover)
	assert.Equal(t, profiles.DefaultAnnualWindowHours, cfg.Parameters.AnnualWindowHours)
	assert.Equal(t, "/out/merged.csv", cfg.Outputs.CSV)
	assert.Equal(t, "/out/report.pdf", cfg.Outputs.PDF)
	assert.Equal(t, "http://hooks.local/env", cfg.Outputs.WebhookURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EmptyCutoverFromEnv(t *testing.T) {
	clearProfileEnv(t)
	t.Setenv("PROFILES_CUTOVER", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, profiles.DatehourKey(""), cfg.Parameters.Cutover)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearProfileEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("demand: [unclosed"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"missing path":     func(c *Config) { c.Solar.Path = "" },
		"negative column":  func(c *Config) { c.Wind.ValueColumn = -1 },
		"overlap":          func(c *Config) { c.Demand.HourColumn = c.Demand.DateColumn },
		"bad cf":           func(c *Config) { c.Parameters.SolarCapacityFactor = 0 },
		"half over annual": func(c *Config) { c.Parameters.HalfYearHours = c.Parameters.AnnualWindowHours + 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
