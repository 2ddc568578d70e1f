package pipeline

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds runtime configuration for the report pipeline.
type Config struct {
	// TaxRate is the uniform tax fraction applied to every shift amount.
	TaxRate float64 `envconfig:"LABOR_TAX_RATE" default:"0.077"`

	// DBPath is the SQLite database holding shifts, schedules, and
	// receipts. ":memory:" is valid for throwaway runs.
	DBPath string `envconfig:"LABOR_DB_PATH" default:"labor.db"`

	// Addr is the listen address of the report server.
	Addr string `envconfig:"LABOR_ADDR" default:":8080"`

	LogFormat string `envconfig:"LABOR_LOG_FORMAT" default:"pretty"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return nil, fmt.Errorf("tax rate %v out of range [0, 1)", cfg.TaxRate)
	}
	return &cfg, nil
}

// TaxFraction returns the configured rate as a decimal.
func (c *Config) TaxFraction() decimal.Decimal {
	return decimal.NewFromFloat(c.TaxRate)
}

// NewLogger returns a configured slog.Logger based on configuration.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
