package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Pranuu07/Power-Predictor/internal/analytics"
	"github.com/Pranuu07/Power-Predictor/internal/tariff"
)

// Config is the full runtime configuration: server, storage, the tariff
// schedule, analytics knobs, and alert thresholds.
type Config struct {
	Port        string
	DBDriver    string
	DBDSN       string
	AutoMigrate bool

	Schedule  tariff.Schedule
	Analytics analytics.Options

	// AlertUsageThreshold is the units-consumed level above which the worker
	// raises webhook/email alerts.
	AlertUsageThreshold float64
	// AlertEmailTo receives high-usage notification emails when set.
	AlertEmailTo string
}

// fileConfig is the YAML shape of the optional config file.
type fileConfig struct {
	Tariff    *tariff.Schedule `yaml:"tariff"`
	Analytics struct {
		GrowthFactor       *float64 `yaml:"growth_factor"`
		DefaultBlendedRate *float64 `yaml:"default_blended_rate"`
		TrendThresholdPct  *float64 `yaml:"trend_threshold_pct"`
	} `yaml:"analytics"`
	Alerts struct {
		UsageThreshold *float64 `yaml:"usage_threshold"`
		EmailTo        string   `yaml:"email_to"`
	} `yaml:"alerts"`
}

// FromEnv builds a Config from environment variables with sane defaults,
// then overlays the YAML file named by POWERTRACKER_CONFIG when present.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:                envOr("PORT", "8000"),
		DBDriver:            envOr("POWERTRACKER_DB_DRIVER", "sqlite"),
		DBDSN:               envOr("POWERTRACKER_DB_DSN", "powertracker.db"),
		AutoMigrate:         boolEnv("POWERTRACKER_AUTO_MIGRATE"),
		Schedule:            tariff.Default(),
		Analytics:           analytics.DefaultOptions(),
		AlertUsageThreshold: 300,
		AlertEmailTo:        os.Getenv("POWERTRACKER_ALERT_EMAIL_TO"),
	}

	if raw := os.Getenv("POWERTRACKER_ALERT_USAGE_THRESHOLD"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, fmt.Errorf("config: bad POWERTRACKER_ALERT_USAGE_THRESHOLD %q: %w", raw, err)
		}
		cfg.AlertUsageThreshold = v
	}

	if path := os.Getenv("POWERTRACKER_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.Schedule.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if fc.Tariff != nil {
		c.Schedule = *fc.Tariff
	}
	if fc.Analytics.GrowthFactor != nil {
		c.Analytics.GrowthFactor = *fc.Analytics.GrowthFactor
	}
	if fc.Analytics.DefaultBlendedRate != nil {
		c.Analytics.DefaultBlendedRate = *fc.Analytics.DefaultBlendedRate
	}
	if fc.Analytics.TrendThresholdPct != nil {
		c.Analytics.TrendThresholdPct = *fc.Analytics.TrendThresholdPct
	}
	if fc.Alerts.UsageThreshold != nil {
		c.AlertUsageThreshold = *fc.Alerts.UsageThreshold
	}
	if fc.Alerts.EmailTo != "" {
		c.AlertEmailTo = fc.Alerts.EmailTo
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "YES":
		return true
	}
	return false
}
