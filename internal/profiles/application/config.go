package application

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	profiles "hourly-profiles/internal/profiles/domain"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("pipeline: invalid config")

// InputConfig locates one input CSV and the columns to read from it.
type InputConfig struct {
	Path        string `yaml:"path"`
	DateColumn  int    `yaml:"date_column"`
	HourColumn  int    `yaml:"hour_column"`
	ValueColumn int    `yaml:"value_column"`
	RoundValues bool   `yaml:"round_values"`
}

// OutputConfig lists where a run is written. Empty paths are skipped.
type OutputConfig struct {
	CSV             string `yaml:"csv"`
	XLSX            string `yaml:"xlsx"`
	PDF             string `yaml:"pdf"`
	MetricsTextfile string `yaml:"metrics_textfile"`
	WebhookURL      string `yaml:"webhook_url"`
	ReportURL       string `yaml:"report_url"`
}

// Config is the pipeline configuration.
type Config struct {
	Demand      InputConfig         `yaml:"demand"`
	Solar       InputConfig         `yaml:"solar"`
	Wind        InputConfig         `yaml:"wind"`
	Parameters  profiles.Parameters `yaml:"parameters"`
	Outputs     OutputConfig        `yaml:"outputs"`
	DatabaseURL string              `yaml:"database_url"`
}

// DefaultConfig returns the ISO-NE layout: demand is date,hour,_,value and the generation
// files are _,date,hour,value.
func DefaultConfig() Config {
	return Config{
		Demand:     InputConfig{Path: "demand.csv", DateColumn: 0, HourColumn: 1, ValueColumn: 3, RoundValues: true},
		Solar:      InputConfig{Path: "solar.csv", DateColumn: 1, HourColumn: 2, ValueColumn: 3},
		Wind:       InputConfig{Path: "wind.csv", DateColumn: 1, HourColumn: 2, ValueColumn: 3},
		Parameters: profiles.DefaultParameters(),
		Outputs:    OutputConfig{CSV: "merged.csv"},
	}
}

// LoadConfig reads a .env file if present, then the YAML file at path (or PROFILES_CONFIG),
// then applies env overrides.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("PROFILES_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("pipeline: parse config %s: %w", path, err)
		}
	}

	cfg.Demand.Path = getenvDefault("PROFILES_DEMAND_CSV", cfg.Demand.Path)
	cfg.Solar.Path = getenvDefault("PROFILES_SOLAR_CSV", cfg.Solar.Path)
	cfg.Wind.Path = getenvDefault("PROFILES_WIND_CSV", cfg.Wind.Path)
	cfg.Outputs.CSV = getenvDefault("PROFILES_OUT_CSV", cfg.Outputs.CSV)
	cfg.Outputs.XLSX = getenvDefault("PROFILES_OUT_XLSX", cfg.Outputs.XLSX)
	cfg.Outputs.PDF = getenvDefault("PROFILES_OUT_PDF", cfg.Outputs.PDF)
	cfg.Outputs.MetricsTextfile = getenvDefault("PROFILES_METRICS_TEXTFILE", cfg.Outputs.MetricsTextfile)
	cfg.Outputs.WebhookURL = getenvDefault("PROFILES_WEBHOOK_URL", cfg.Outputs.WebhookURL)
	cfg.Outputs.ReportURL = getenvDefault("PROFILES_REPORT_URL", cfg.Outputs.ReportURL)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", cfg.DatabaseURL)
	if value, ok := os.LookupEnv("PROFILES_CUTOVER"); ok {
		cfg.Parameters.Cutover = profiles.DatehourKey(value)
	}
	cfg.Parameters.SolarCapacityFactor = getenvFloatDefault("PROFILES_SOLAR_CF", cfg.Parameters.SolarCapacityFactor)
	cfg.Parameters.WindCapacityFactor = getenvFloatDefault("PROFILES_WIND_CF", cfg.Parameters.WindCapacityFactor)
	cfg.Parameters.CapacityWindowHours = getenvIntDefault("PROFILES_CAPACITY_WINDOW_HOURS", cfg.Parameters.CapacityWindowHours)

	cfg.Parameters = cfg.Parameters.WithDefaults()
	return cfg, nil
}

// Validate checks inputs and parameters.
func (c Config) Validate() error {
	inputs := []struct {
		name string
		in   InputConfig
	}{
		{profiles.SeriesDemand, c.Demand},
		{profiles.SeriesSolar, c.Solar},
		{profiles.SeriesWind, c.Wind},
	}
	for _, item := range inputs {
		if item.in.Path == "" {
			return fmt.Errorf("%w: %s path required", ErrInvalidConfig, item.name)
		}
		if item.in.DateColumn < 0 || item.in.HourColumn < 0 || item.in.ValueColumn < 0 {
			return fmt.Errorf("%w: %s negative column index", ErrInvalidConfig, item.name)
		}
		if item.in.DateColumn == item.in.HourColumn || item.in.DateColumn == item.in.ValueColumn ||
			item.in.HourColumn == item.in.ValueColumn {
			return fmt.Errorf("%w: %s columns overlap", ErrInvalidConfig, item.name)
		}
	}
	return c.Parameters.Validate()
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
