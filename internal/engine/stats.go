package engine

import (
	"fmt"
	"math"
	"time"

	"card-flipper/internal/market"
)

// PriceSnapshot is the derived statistical summary over one product's listings
// of a single status. Snapshots are replaced wholesale on each refresh, never
// mutated in place.
type PriceSnapshot struct {
	ProductID string               `json:"product_id"`
	Status    market.ListingStatus `json:"status"`
	Count     int                  `json:"count"`
	Mean      float64              `json:"mean"`
	Median    float64              `json:"median"`
	Min       float64              `json:"min"`
	Max       float64              `json:"max"`
	// Volatility is the coefficient of variation (stddev/mean) in percent.
	// Undefined when Count < 2; HasVolatility reports whether it is set.
	Volatility    float64 `json:"volatility"`
	HasVolatility bool    `json:"has_volatility"`
}

// ProductSnapshots bundles the per-status snapshots for one product over one
// observation window. A status with zero listings has a nil snapshot; callers
// must handle absence explicitly rather than read fabricated zeros.
type ProductSnapshots struct {
	ProductID  string         `json:"product_id"`
	Sold       *PriceSnapshot `json:"sold,omitempty"`
	Active     *PriceSnapshot `json:"active,omitempty"`
	DataPoints int            `json:"data_points"`
	RangeDays  int            `json:"range_days"`
	ComputedAt time.Time      `json:"computed_at"`
	// Listings carries the raw records the snapshots were computed from, so
	// downstream analytics (arbitrage pairing, trend fit) work off the exact
	// same set. Not serialized.
	Listings []market.Listing `json:"-"`
}

// ComputeSnapshot builds a PriceSnapshot from the given prices.
// Returns nil for an empty set (absent, not zero-filled).
// A violated ordering invariant is a bug and surfaces as ComputationError.
func ComputeSnapshot(productID string, status market.ListingStatus, prices []float64) (*PriceSnapshot, error) {
	if len(prices) == 0 {
		return nil, nil
	}

	mn, mx := minMax(prices)
	snap := &PriceSnapshot{
		ProductID: productID,
		Status:    status,
		Count:     len(prices),
		Mean:      mean(prices),
		Median:    median(prices),
		Min:       mn,
		Max:       mx,
	}
	if len(prices) >= 2 && snap.Mean > 0 {
		snap.Volatility = math.Sqrt(variance(prices)) / snap.Mean * 100
		snap.HasVolatility = true
	}

	// Should never fire beyond summation rounding: median and mean are
	// derived from the same set. Drift of an ulp or two (e.g. three $0.10
	// listings averaging 0.10000000000000002) is clamped, anything larger
	// is a bug.
	tol := 1e-9 * math.Max(1, math.Abs(snap.Max))
	if snap.Median < snap.Min-tol || snap.Median > snap.Max+tol || snap.Mean < snap.Min-tol || snap.Mean > snap.Max+tol {
		return nil, &market.ComputationError{
			Op: "ComputeSnapshot",
			Detail: fmt.Sprintf("ordering violated for %s/%s: min=%.4f median=%.4f mean=%.4f max=%.4f",
				productID, status, snap.Min, snap.Median, snap.Mean, snap.Max),
		}
	}
	snap.Mean = clampRange(snap.Mean, snap.Min, snap.Max)
	snap.Median = clampRange(snap.Median, snap.Min, snap.Max)
	return snap, nil
}

// BuildProductSnapshots partitions listings by status and computes a snapshot
// per status. An entirely empty listing set is DataUnavailableError: statistics
// are never fabricated.
func BuildProductSnapshots(productID string, listings []market.Listing, r market.DateRange, now time.Time) (*ProductSnapshots, error) {
	if len(listings) == 0 {
		return nil, &market.DataUnavailableError{
			ProductID: productID,
			Reason:    fmt.Sprintf("no listings in the last %d days", r.Days()),
		}
	}

	var soldPrices, activePrices []float64
	for _, l := range listings {
		switch l.Status {
		case market.StatusSold:
			soldPrices = append(soldPrices, l.Price)
		case market.StatusActive:
			activePrices = append(activePrices, l.Price)
		}
	}

	sold, err := ComputeSnapshot(productID, market.StatusSold, soldPrices)
	if err != nil {
		return nil, err
	}
	active, err := ComputeSnapshot(productID, market.StatusActive, activePrices)
	if err != nil {
		return nil, err
	}
	if sold == nil && active == nil {
		return nil, &market.DataUnavailableError{
			ProductID: productID,
			Reason:    "listings carry no recognized status",
		}
	}

	return &ProductSnapshots{
		ProductID:  productID,
		Sold:       sold,
		Active:     active,
		DataPoints: len(listings),
		RangeDays:  r.Days(),
		ComputedAt: now,
		Listings:   listings,
	}, nil
}
