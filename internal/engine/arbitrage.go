package engine

import (
	"math"
	"sort"

	"card-flipper/internal/config"
	"card-flipper/internal/market"

	"github.com/google/uuid"
)

// ArbitrageOpportunity is one profitable buy/sell pairing across sources for a
// product, net of fees. Read-only once created.
type ArbitrageOpportunity struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"product_id"`
	BuySource  string  `json:"buy_source"`
	SellSource string  `json:"sell_source"`
	BuyPrice   float64 `json:"buy_price"`
	SellPrice  float64 `json:"sell_price"`

	GrossSpread float64 `json:"gross_spread"`
	Fees        float64 `json:"estimated_fees"`
	NetProfit   float64 `json:"net_profit"`
	ROIPct      float64 `json:"roi_percentage"`

	// ConfidenceScore ∈ [0,100]: grows with sample size, shrinks with
	// volatility. Deterministic; see confidenceScore.
	ConfidenceScore float64 `json:"confidence_score"`
}

// ScaledAnalysis sizes the best opportunity against an investment cap.
type ScaledAnalysis struct {
	MaxUnits        int     `json:"max_units"`
	TotalProfit     float64 `json:"total_profit"`
	TotalInvestment float64 `json:"total_investment"`
}

// ArbitrageReport is the full detector output. An empty Opportunities slice is
// an explicit "no opportunities" result, not an error.
type ArbitrageReport struct {
	ProductID     string                 `json:"product_id"`
	Opportunities []ArbitrageOpportunity `json:"opportunities"`
	Best          *ArbitrageOpportunity  `json:"best_opportunity,omitempty"`
	Scaled        *ScaledAnalysis        `json:"scaled_analysis,omitempty"`
}

// ArbitrageParams are the detector inputs beyond the listing data.
type ArbitrageParams struct {
	MinProfitMargin float64 // minimum ROI percent to keep a pair
	MaxInvestment   float64 // cap for scaled sizing
}

// soldReferenceSource labels the expected-resale sell side derived from the
// sold-price distribution rather than a live listing.
const soldReferenceSource = "Sold median (expected resale)"

// FindOpportunities enumerates candidate (buy, sell) pairings for one product:
// each source's cheapest active listing against (a) every other source's
// highest active listing and (b) the sold median as expected resale. Pairs
// below the margin floor are discarded; survivors are ranked by the documented
// total ordering (see sortOpportunities).
func FindOpportunities(snaps *ProductSnapshots, params ArbitrageParams, cfg *config.Config) *ArbitrageReport {
	report := &ArbitrageReport{
		ProductID:     snaps.ProductID,
		Opportunities: []ArbitrageOpportunity{},
	}

	// Cheapest active listing per source, highest active listing per source.
	type sourceQuote struct {
		low, high market.Listing
		count     int
	}
	quotes := make(map[string]*sourceQuote)
	for _, l := range snaps.Listings {
		if l.Status != market.StatusActive {
			continue
		}
		q, ok := quotes[l.Source]
		if !ok {
			quotes[l.Source] = &sourceQuote{low: l, high: l, count: 1}
			continue
		}
		q.count++
		if l.Price < q.low.Price {
			q.low = l
		}
		if l.Price > q.high.Price {
			q.high = l
		}
	}

	for buySource, q := range quotes {
		buy := q.low
		if buy.Price <= 0 {
			continue
		}

		// Active → active across sources.
		for sellSource, sq := range quotes {
			if sellSource == buySource || sq.high.Price <= buy.Price {
				continue
			}
			opp := buildOpportunity(snaps, buy, sq.high.Price, sellSource, cfg)
			if opp.ROIPct >= params.MinProfitMargin {
				report.Opportunities = append(report.Opportunities, opp)
			}
		}

		// Active → sold median (expected resale).
		if snaps.Sold != nil && snaps.Sold.Median > buy.Price {
			opp := buildOpportunity(snaps, buy, snaps.Sold.Median, soldReferenceSource, cfg)
			if opp.ROIPct >= params.MinProfitMargin {
				report.Opportunities = append(report.Opportunities, opp)
			}
		}
	}

	sortOpportunities(report.Opportunities)

	if len(report.Opportunities) > 0 {
		best := report.Opportunities[0]
		report.Best = &best
		if params.MaxInvestment > 0 {
			units := int(math.Floor(params.MaxInvestment / best.BuyPrice))
			report.Scaled = &ScaledAnalysis{
				MaxUnits:        units,
				TotalProfit:     best.NetProfit * float64(units),
				TotalInvestment: params.MaxInvestment,
			}
		}
	}
	return report
}

// buildOpportunity computes the economics of one pairing.
// net_profit = (sell − buy) − fees; roi_pct = net_profit / buy × 100.
func buildOpportunity(snaps *ProductSnapshots, buy market.Listing, sellPrice float64, sellSource string, cfg *config.Config) ArbitrageOpportunity {
	fees := buy.Fees
	// Sell-leg fee: recorded figures don't exist for a hypothetical resale, so
	// estimate from the configured final-value fee percent.
	fees += sellPrice * cfg.FeePercent / 100

	gross := sellPrice - buy.Price
	net := gross - fees

	return ArbitrageOpportunity{
		ID:              uuid.NewString(),
		ProductID:       snaps.ProductID,
		BuySource:       buy.Source,
		SellSource:      sellSource,
		BuyPrice:        buy.Price,
		SellPrice:       sellPrice,
		GrossSpread:     gross,
		Fees:            fees,
		NetProfit:       net,
		ROIPct:          net / buy.Price * 100,
		ConfidenceScore: confidenceScore(snaps),
	}
}

// confidenceScore composes sample size and inverse volatility into [0,100].
// Monotonic by construction: more listings never lower it, higher volatility
// never raises it. The exact shape is a policy choice, not a market truth.
func confidenceScore(snaps *ProductSnapshots) float64 {
	n := float64(snaps.DataPoints)
	size := 50 * n / (n + 10) // saturates toward 50

	// Volatility of the sold distribution when known, else the active one.
	cv := 0.0
	switch {
	case snaps.Sold != nil && snaps.Sold.HasVolatility:
		cv = snaps.Sold.Volatility
	case snaps.Active != nil && snaps.Active.HasVolatility:
		cv = snaps.Active.Volatility
	}
	stability := 50 / (1 + cv/10) // cv=0 → 50, cv=10 → 25

	return clampRange(size+stability, 0, 100)
}

// sortOpportunities applies the documented total ordering: roi_pct descending,
// then confidence_score descending, then net_profit descending, then
// buy_source and sell_source ascending so equal pairs stay deterministic.
// Re-sorting a sorted slice is a no-op.
func sortOpportunities(opps []ArbitrageOpportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if a.ROIPct != b.ROIPct {
			return a.ROIPct > b.ROIPct
		}
		if a.ConfidenceScore != b.ConfidenceScore {
			return a.ConfidenceScore > b.ConfidenceScore
		}
		if a.NetProfit != b.NetProfit {
			return a.NetProfit > b.NetProfit
		}
		if a.BuySource != b.BuySource {
			return a.BuySource < b.BuySource
		}
		return a.SellSource < b.SellSource
	})
}
