package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"card-flipper/internal/config"
	"card-flipper/internal/market"
)

// trendSnaps builds a product with a clean 10% sold-price rise across the
// window: day-averages 100 then 110.
func trendSnaps(t *testing.T) *ProductSnapshots {
	t.Helper()
	listings := []market.Listing{
		listing("card-3", market.StatusSold, 100, testNow.AddDate(0, 0, -20)),
		listing("card-3", market.StatusSold, 110, testNow.AddDate(0, 0, -1)),
	}
	snaps, err := BuildProductSnapshots("card-3", listings, market.LastDays(testNow, 30), testNow)
	if err != nil {
		t.Fatalf("BuildProductSnapshots: %v", err)
	}
	return snaps
}

func TestAssessInvestment(t *testing.T) {
	cfg := config.Default()
	snaps := trendSnaps(t)

	a, err := AssessInvestment(snaps, "medium", cfg)
	if err != nil {
		t.Fatalf("AssessInvestment: %v", err)
	}
	if a.CurrentAvgPrice != 105 {
		t.Errorf("CurrentAvgPrice = %v, want 105", a.CurrentAvgPrice)
	}
	if !approx(a.PriceTrendPct, 10) {
		t.Errorf("PriceTrendPct = %v, want 10", a.PriceTrendPct)
	}
	if a.Score < 0 || a.Score > 100 {
		t.Errorf("Score = %v, want within [0,100]", a.Score)
	}

	// Medium horizon compounds the daily rate over the raw target windows.
	dailyRate := 10.0 / 100 / 30
	want6M := 105 * math.Pow(1+dailyRate, float64(cfg.TargetDays6M))
	if !approx(a.TargetPrice6M, want6M) {
		t.Errorf("TargetPrice6M = %v, want %v", a.TargetPrice6M, want6M)
	}
	want1Y := 105 * math.Pow(1+dailyRate, float64(cfg.TargetDays1Y))
	if !approx(a.TargetPrice1Y, want1Y) {
		t.Errorf("TargetPrice1Y = %v, want %v", a.TargetPrice1Y, want1Y)
	}
	wantUpside := (want1Y - 105) / 105 * 100
	if !approx(a.PotentialUpsidePct, wantUpside) {
		t.Errorf("PotentialUpsidePct = %v, want %v", a.PotentialUpsidePct, wantUpside)
	}
}

func TestAssessInvestment_HorizonScalesProjection(t *testing.T) {
	cfg := config.Default()
	snaps := trendSnaps(t)

	short, err := AssessInvestment(snaps, "short", cfg)
	if err != nil {
		t.Fatalf("short: %v", err)
	}
	long, err := AssessInvestment(snaps, "long", cfg)
	if err != nil {
		t.Fatalf("long: %v", err)
	}
	// Rising trend: the long horizon projects further up than the short one.
	if long.TargetPrice1Y <= short.TargetPrice1Y {
		t.Errorf("long 1y target %v should exceed short 1y target %v", long.TargetPrice1Y, short.TargetPrice1Y)
	}
}

func TestAssessInvestment_InvalidHorizon(t *testing.T) {
	for _, horizon := range []string{"", "decade", "LONG"} {
		t.Run("horizon "+horizon, func(t *testing.T) {
			_, err := AssessInvestment(trendSnaps(t), horizon, config.Default())
			var ve *market.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestAssessInvestment_SingleDayHasNoTrend(t *testing.T) {
	listings := []market.Listing{
		listing("card-3", market.StatusSold, 100, testNow.AddDate(0, 0, -1)),
		listing("card-3", market.StatusSold, 105, testNow.AddDate(0, 0, -1)),
	}
	snaps, err := BuildProductSnapshots("card-3", listings, market.LastDays(testNow, 30), testNow)
	if err != nil {
		t.Fatalf("BuildProductSnapshots: %v", err)
	}
	_, err = AssessInvestment(snaps, "medium", config.Default())
	var due *market.DataUnavailableError
	if !errors.As(err, &due) {
		t.Errorf("error = %v, want *DataUnavailableError", err)
	}
}

func TestInvestmentScore_VolatilityMonotonic(t *testing.T) {
	// Holding trend and sample size fixed, rising volatility never raises
	// the score.
	prev := math.Inf(1)
	for _, vol := range []float64{0, 5, 10, 20, 40, 80} {
		score := investmentScore(5, vol, 30)
		if score > prev {
			t.Errorf("score rose from %v to %v at volatility %v", prev, score, vol)
		}
		if score < 0 || score > 100 {
			t.Errorf("score %v outside [0,100] at volatility %v", score, vol)
		}
		prev = score
	}
}

func TestInvestmentScore_TrendMonotonic(t *testing.T) {
	prev := math.Inf(-1)
	for _, trend := range []float64{-30, -10, 0, 5, 10, 30} {
		score := investmentScore(trend, 10, 30)
		if score < prev {
			t.Errorf("score fell from %v to %v at trend %v", prev, score, trend)
		}
		prev = score
	}
}

func TestRiskLevel(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		vol  float64
		want string
	}{
		{0, "Low"},
		{9.9, "Low"},
		{10, "Medium"},
		{24.9, "Medium"},
		{25, "High"},
		{60, "High"},
	}
	for _, tt := range tests {
		if got := riskLevel(tt.vol, cfg); got != tt.want {
			t.Errorf("riskLevel(%v) = %q, want %q", tt.vol, got, tt.want)
		}
	}
}

func TestStrategyTips_Deterministic(t *testing.T) {
	first := strategyTips(100, -5, 25, 60)
	second := strategyTips(100, -5, 25, 60)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("tips differ across calls: %v vs %v", first, second)
	}

	want := []string{
		"Dollar-cost average over 2-3 months",
		"Wait for price dip below $95.00 for better entry",
		"High liquidity expected",
	}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("tips = %v, want %v", first, want)
	}
}
