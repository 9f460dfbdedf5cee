package engine

import (
	"fmt"
	"math"
	"sort"

	"card-flipper/internal/config"
	"card-flipper/internal/market"
)

// InvestmentAssessment is the risk-adjusted projection for holding a product
// over an investment horizon.
type InvestmentAssessment struct {
	ProductID string `json:"product_id"`
	Horizon   string `json:"investment_horizon"`

	Score     float64 `json:"investment_score"` // 0-100
	RiskLevel string  `json:"risk_level"`       // Low | Medium | High

	CurrentAvgPrice float64 `json:"current_avg_price"`
	PriceTrendPct   float64 `json:"price_trend_pct"`
	VolatilityPct   float64 `json:"volatility_pct"`

	TargetPrice6M      float64 `json:"target_price_6m"`
	TargetPrice1Y      float64 `json:"target_price_1y"`
	PotentialUpsidePct float64 `json:"potential_upside_pct"`

	DataPoints     int      `json:"data_points"`
	Recommendation string   `json:"recommendation"`
	StrategyTips   []string `json:"strategy_tips"`
}

// AssessInvestment scores a product's long-term potential from its snapshots.
// The horizon multiplier scales the projection window (policy constants in
// config: short 0.5×, medium 1×, long 2×).
func AssessInvestment(snaps *ProductSnapshots, horizon string, cfg *config.Config) (*InvestmentAssessment, error) {
	mult, ok := cfg.HorizonMultiplier(horizon)
	if !ok {
		return nil, &market.ValidationError{
			Param:  "investment_horizon",
			Reason: fmt.Sprintf("%q is not one of short, medium, long", horizon),
		}
	}

	avg, volatility := currentPriceProfile(snaps)
	if avg <= 0 {
		return nil, &market.DataUnavailableError{
			ProductID: snaps.ProductID,
			Reason:    "no priced listings to project from",
		}
	}

	trendPct, err := priceTrendPct(snaps)
	if err != nil {
		return nil, err
	}

	// Compound the observed window trend forward at a daily rate, scaled by
	// the horizon multiplier.
	dailyRate := trendPct / 100 / float64(snaps.RangeDays)
	project := func(days int) float64 {
		return sanitizeFloat(avg * math.Pow(1+dailyRate, float64(days)*mult))
	}
	target6M := project(cfg.TargetDays6M)
	target1Y := project(cfg.TargetDays1Y)

	score := investmentScore(trendPct, volatility, snaps.DataPoints)

	a := &InvestmentAssessment{
		ProductID:          snaps.ProductID,
		Horizon:            horizon,
		Score:              score,
		RiskLevel:          riskLevel(volatility, cfg),
		CurrentAvgPrice:    avg,
		PriceTrendPct:      trendPct,
		VolatilityPct:      volatility,
		TargetPrice6M:      target6M,
		TargetPrice1Y:      target1Y,
		PotentialUpsidePct: sanitizeFloat((target1Y - avg) / avg * 100),
		DataPoints:         snaps.DataPoints,
		Recommendation:     recommendation(score),
		StrategyTips:       strategyTips(avg, trendPct, volatility, snaps.DataPoints),
	}
	return a, nil
}

// currentPriceProfile picks the reference average and volatility, preferring
// the sold distribution (realized prices) over asking prices.
func currentPriceProfile(snaps *ProductSnapshots) (avg, volatility float64) {
	switch {
	case snaps.Sold != nil:
		avg = snaps.Sold.Mean
		if snaps.Sold.HasVolatility {
			volatility = snaps.Sold.Volatility
		}
	case snaps.Active != nil:
		avg = snaps.Active.Mean
		if snaps.Active.HasVolatility {
			volatility = snaps.Active.Volatility
		}
	}
	return avg, volatility
}

// priceTrendPct is the percent change between the first and last daily average
// price across the window. Sold listings drive the fit; active listings only
// when no sale completed. Under two distinct days there is no trend to fit.
func priceTrendPct(snaps *ProductSnapshots) (float64, error) {
	status := market.StatusSold
	if snaps.Sold == nil {
		status = market.StatusActive
	}

	type daySum struct {
		total float64
		n     int
	}
	byDay := make(map[string]*daySum)
	for _, l := range snaps.Listings {
		if l.Status != status {
			continue
		}
		day := l.ObservedAt.UTC().Format("2006-01-02")
		s, ok := byDay[day]
		if !ok {
			s = &daySum{}
			byDay[day] = s
		}
		s.total += l.Price
		s.n++
	}
	if len(byDay) < 2 {
		return 0, &market.DataUnavailableError{
			ProductID: snaps.ProductID,
			Reason:    fmt.Sprintf("need 2+ days of %s prices for a trend, have %d", status, len(byDay)),
		}
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	first := byDay[days[0]]
	last := byDay[days[len(days)-1]]
	firstAvg := first.total / float64(first.n)
	lastAvg := last.total / float64(last.n)
	if firstAvg <= 0 {
		return 0, nil
	}
	return (lastAvg - firstAvg) / firstAvg * 100, nil
}

// investmentScore rewards positive trend, low volatility, and sample depth.
// Bounded to [0,100]; holding trend and sample fixed, more volatility never
// raises the score.
func investmentScore(trendPct, volatilityPct float64, dataPoints int) float64 {
	base := 50.0
	base += clampRange(trendPct*2.5, -25, 25)
	base -= clampRange(volatilityPct*1.4, 0, 35)
	n := float64(dataPoints)
	base += 10 * n / (n + 25)
	return clampRange(base, 0, 100)
}

// riskLevel buckets volatility against the configured thresholds.
func riskLevel(volatilityPct float64, cfg *config.Config) string {
	switch {
	case volatilityPct < cfg.RiskLowMaxPct:
		return "Low"
	case volatilityPct < cfg.RiskMediumMaxPct:
		return "Medium"
	}
	return "High"
}

func recommendation(score float64) string {
	switch {
	case score >= 70:
		return "Buy - Good investment opportunity with solid fundamentals"
	case score >= 45:
		return "Hold - Monitor for a clearer trend before committing"
	}
	return "Avoid - Weak fundamentals over this horizon"
}

// strategyTips are deterministic functions of volatility, trend, and sample
// size. No randomness.
func strategyTips(avg, trendPct, volatilityPct float64, dataPoints int) []string {
	tips := make([]string, 0, 3)

	if volatilityPct > 20 {
		tips = append(tips, "Dollar-cost average over 2-3 months")
	} else {
		tips = append(tips, "Consider lump sum investment")
	}

	if trendPct < 0 {
		tips = append(tips, fmt.Sprintf("Wait for price dip below $%.2f for better entry", avg*0.95))
	} else {
		tips = append(tips, "Current pricing appears favorable")
	}

	if dataPoints > 50 {
		tips = append(tips, "High liquidity expected")
	} else {
		tips = append(tips, "Monitor liquidity before large positions")
	}
	return tips
}
