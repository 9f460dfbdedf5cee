package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.CacheTTLMinutes != 15 {
		t.Errorf("CacheTTLMinutes = %d, want 15", cfg.CacheTTLMinutes)
	}
	if cfg.LookbackDays != 30 {
		t.Errorf("LookbackDays = %d, want 30", cfg.LookbackDays)
	}
	if cfg.RiskLowMaxPct >= cfg.RiskMediumMaxPct {
		t.Errorf("risk thresholds out of order: low=%v medium=%v", cfg.RiskLowMaxPct, cfg.RiskMediumMaxPct)
	}
	if cfg.ScanConcurrency <= 0 {
		t.Errorf("ScanConcurrency = %d, want positive", cfg.ScanConcurrency)
	}
}

func TestHorizonMultiplier(t *testing.T) {
	cfg := Default()
	tests := []struct {
		horizon string
		want    float64
		ok      bool
	}{
		{"short", 0.5, true},
		{"medium", 1.0, true},
		{"long", 2.0, true},
		{"decade", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.horizon, func(t *testing.T) {
			got, ok := cfg.HorizonMultiplier(tt.horizon)
			if ok != tt.ok || got != tt.want {
				t.Errorf("HorizonMultiplier(%q) = (%v, %v), want (%v, %v)", tt.horizon, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load with no config file: %v", err)
	}
	if cfg.CacheTTLMinutes != Default().CacheTTLMinutes {
		t.Errorf("missing file should fall back to defaults, got TTL %d", cfg.CacheTTLMinutes)
	}
}
