package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all tunable analytics policy (in-memory representation).
// Everything that looks like a magic number in the engine lives here so
// behavior is reproducible and testable. Persistence of user overrides is
// handled by the internal/db package.
type Config struct {
	// CacheTTLMinutes is how long a cached product snapshot stays fresh
	// for "auto" requests. "force" always bypasses.
	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes"`

	// LookbackDays is the default listing window for price tracking,
	// arbitrage, and portfolio valuation.
	LookbackDays int `mapstructure:"lookback_days"`

	// FetchTimeoutSeconds bounds a single listing-store fetch. A slower
	// fetch fails with a data-unavailable error instead of hanging.
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds"`

	// FeePercent estimates marketplace fees (final-value fee) on the sell
	// leg when a listing carries no recorded fee figure.
	FeePercent float64 `mapstructure:"fee_percent"`

	// MinProfitMargin and MaxInvestment are the arbitrage defaults applied
	// when the caller omits them.
	MinProfitMargin float64 `mapstructure:"min_profit_margin"`
	MaxInvestment   float64 `mapstructure:"max_investment"`

	// Horizon multipliers scale the projection window per investment horizon.
	HorizonShort  float64 `mapstructure:"horizon_short"`
	HorizonMedium float64 `mapstructure:"horizon_medium"`
	HorizonLong   float64 `mapstructure:"horizon_long"`

	// Projection checkpoints in days from now.
	TargetDays6M int `mapstructure:"target_days_6m"`
	TargetDays1Y int `mapstructure:"target_days_1y"`

	// Risk bucketing thresholds on volatility percent:
	// vol < RiskLowMaxPct → Low, vol < RiskMediumMaxPct → Medium, else High.
	RiskLowMaxPct    float64 `mapstructure:"risk_low_max_pct"`
	RiskMediumMaxPct float64 `mapstructure:"risk_medium_max_pct"`

	// Scanner limits.
	ScanMaxResults  int `mapstructure:"scan_max_results"`
	ScanConcurrency int `mapstructure:"scan_concurrency"`
}

// Default returns a Config with documented defaults.
func Default() *Config {
	return &Config{
		CacheTTLMinutes:     15,
		LookbackDays:        30,
		FetchTimeoutSeconds: 10,
		FeePercent:          13, // typical marketplace final-value fee
		MinProfitMargin:     10,
		MaxInvestment:       1000,
		HorizonShort:        0.5,
		HorizonMedium:       1.0,
		HorizonLong:         2.0,
		TargetDays6M:        182,
		TargetDays1Y:        365,
		RiskLowMaxPct:       10,
		RiskMediumMaxPct:    25,
		ScanMaxResults:      50,
		ScanConcurrency:     8,
	}
}

// HorizonMultiplier maps an investment horizon to its projection multiplier.
// Unknown horizons return (0, false); the caller rejects them.
func (c *Config) HorizonMultiplier(horizon string) (float64, bool) {
	switch horizon {
	case "short":
		return c.HorizonShort, true
	case "medium":
		return c.HorizonMedium, true
	case "long":
		return c.HorizonLong, true
	}
	return 0, false
}

// Load reads config.yaml from the given directory with environment variable
// overrides (CARDFLIPPER_*). A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("cardflipper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
			return cfg, nil
		}
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
