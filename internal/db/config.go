package db

import (
	"strconv"

	"card-flipper/internal/config"
)

// LoadConfig reads persisted config overrides from SQLite on top of the given
// base (typically the file/env-loaded config). Unknown keys are ignored.
func (d *DB) LoadConfig(base *config.Config) *config.Config {
	cfg := *base

	rows, err := d.sql.Query("SELECT key, value FROM config")
	if err != nil {
		return &cfg
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		rows.Scan(&k, &v)
		m[k] = v
	}
	if len(m) == 0 {
		return &cfg
	}

	if v, ok := m["cache_ttl_minutes"]; ok {
		cfg.CacheTTLMinutes, _ = strconv.Atoi(v)
	}
	if v, ok := m["lookback_days"]; ok {
		cfg.LookbackDays, _ = strconv.Atoi(v)
	}
	if v, ok := m["fee_percent"]; ok {
		cfg.FeePercent, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["min_profit_margin"]; ok {
		cfg.MinProfitMargin, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["max_investment"]; ok {
		cfg.MaxInvestment, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["scan_max_results"]; ok {
		cfg.ScanMaxResults, _ = strconv.Atoi(v)
	}
	return &cfg
}

// SaveConfig persists the user-tunable subset of config as key/value rows.
func (d *DB) SaveConfig(cfg *config.Config) error {
	pairs := map[string]string{
		"cache_ttl_minutes": strconv.Itoa(cfg.CacheTTLMinutes),
		"lookback_days":     strconv.Itoa(cfg.LookbackDays),
		"fee_percent":       strconv.FormatFloat(cfg.FeePercent, 'f', -1, 64),
		"min_profit_margin": strconv.FormatFloat(cfg.MinProfitMargin, 'f', -1, 64),
		"max_investment":    strconv.FormatFloat(cfg.MaxInvestment, 'f', -1, 64),
		"scan_max_results":  strconv.Itoa(cfg.ScanMaxResults),
	}
	for k, v := range pairs {
		if _, err := d.sql.Exec(
			"INSERT INTO config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			k, v); err != nil {
			return err
		}
	}
	return nil
}
