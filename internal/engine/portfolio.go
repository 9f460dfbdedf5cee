package engine

import (
	"math"
	"sort"
	"time"

	"card-flipper/internal/market"
)

// HoldingPerformance is one position valued against the current snapshot.
type HoldingPerformance struct {
	ProductID    string    `json:"product_id"`
	Quantity     int       `json:"quantity"`
	UnitCost     float64   `json:"unit_cost"`
	TotalCost    float64   `json:"total_cost"`
	CurrentPrice float64   `json:"current_price"`
	CurrentValue float64   `json:"current_value"`
	PnL          float64   `json:"pnl"`
	PnLPct       float64   `json:"pnl_pct"`
	HoldingDays  int       `json:"holding_days"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// PortfolioSummary is the fully derived aggregate view over all holdings.
// Recomputed per request, never persisted.
type PortfolioSummary struct {
	TotalInvested    float64 `json:"total_invested"`
	CurrentValue     float64 `json:"current_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
	ActivePositions  int     `json:"active_positions"`
	AvgHoldingDays   int     `json:"avg_holding_period_days"`

	Holdings []HoldingPerformance `json:"holdings"`

	BestPerformer  *HoldingPerformance `json:"best_performer,omitempty"`
	WorstPerformer *HoldingPerformance `json:"worst_performer,omitempty"`
	OverallStatus  string              `json:"overall_status,omitempty"`

	Recommendations []string `json:"recommendations,omitempty"`
}

// PriceLookup resolves the current market price per product.
// ok=false means the product has no snapshot; the tracker propagates that as
// data-unavailable instead of valuing the position at zero.
type PriceLookup func(productID string) (price float64, ok bool)

// BuildPortfolio values every holding against current prices and aggregates.
// Zero holdings returns an explicit empty summary (ActivePositions 0), never a
// zero-filled fabricated one.
func BuildPortfolio(holdings []market.Holding, priceOf PriceLookup, now time.Time) (*PortfolioSummary, error) {
	summary := &PortfolioSummary{Holdings: []HoldingPerformance{}}
	if len(holdings) == 0 {
		return summary, nil
	}

	var totalDays int
	for _, h := range holdings {
		price, ok := priceOf(h.ProductID)
		if !ok {
			return nil, &market.DataUnavailableError{
				ProductID: h.ProductID,
				Reason:    "no current price snapshot for held product",
			}
		}

		cost := h.TotalCost()
		value := price * float64(h.Quantity)
		perf := HoldingPerformance{
			ProductID:    h.ProductID,
			Quantity:     h.Quantity,
			UnitCost:     h.UnitCost,
			TotalCost:    cost,
			CurrentPrice: price,
			CurrentValue: value,
			PnL:          value - cost,
			HoldingDays:  int(now.Sub(h.PurchaseDate).Hours() / 24),
			PurchaseDate: h.PurchaseDate,
		}
		if cost > 0 {
			perf.PnLPct = perf.PnL / cost * 100
		}

		summary.Holdings = append(summary.Holdings, perf)
		summary.TotalInvested += cost
		summary.CurrentValue += value
		summary.UnrealizedPnL += perf.PnL
		totalDays += perf.HoldingDays
	}

	summary.ActivePositions = len(summary.Holdings)
	summary.AvgHoldingDays = totalDays / summary.ActivePositions
	if summary.TotalInvested > 0 {
		summary.UnrealizedPnLPct = summary.UnrealizedPnL / summary.TotalInvested * 100
	}

	// Deterministic listing order: largest position first.
	sort.SliceStable(summary.Holdings, func(i, j int) bool {
		if summary.Holdings[i].CurrentValue != summary.Holdings[j].CurrentValue {
			return summary.Holdings[i].CurrentValue > summary.Holdings[j].CurrentValue
		}
		return summary.Holdings[i].ProductID < summary.Holdings[j].ProductID
	})

	best, worst := pickPerformers(summary.Holdings)
	summary.BestPerformer = best
	summary.WorstPerformer = worst
	summary.OverallStatus = overallStatus(summary.UnrealizedPnLPct)
	summary.Recommendations = portfolioRecommendations(summary)
	return summary, nil
}

// pickPerformers selects argmax/argmin by pnl_pct with ties broken by larger
// absolute pnl, so a bigger position wins an equal-percentage tie.
func pickPerformers(holdings []HoldingPerformance) (best, worst *HoldingPerformance) {
	if len(holdings) == 0 {
		return nil, nil
	}
	b, w := holdings[0], holdings[0]
	for _, h := range holdings[1:] {
		if h.PnLPct > b.PnLPct ||
			(h.PnLPct == b.PnLPct && math.Abs(h.PnL) > math.Abs(b.PnL)) {
			b = h
		}
		if h.PnLPct < w.PnLPct ||
			(h.PnLPct == w.PnLPct && math.Abs(h.PnL) > math.Abs(w.PnL)) {
			w = h
		}
	}
	return &b, &w
}

func overallStatus(pnlPct float64) string {
	switch {
	case pnlPct > 10:
		return "Strong performance"
	case pnlPct > 0:
		return "Moderate performance"
	}
	return "Underperforming"
}

func portfolioRecommendations(s *PortfolioSummary) []string {
	recs := make([]string, 0, 2)

	takeProfit := false
	for _, h := range s.Holdings {
		if h.PnLPct > 25 {
			takeProfit = true
			break
		}
	}
	if takeProfit {
		recs = append(recs, "Consider profit-taking on outperformers")
	} else {
		recs = append(recs, "Hold current positions")
	}

	if s.UnrealizedPnLPct > 0 {
		recs = append(recs, "Portfolio trending well")
	} else {
		recs = append(recs, "Review underperforming assets")
	}
	return recs
}
