package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"card-flipper/internal/config"
	"card-flipper/internal/market"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ScanType selects the ranking metric applied across the catalog.
type ScanType string

const (
	ScanTrending    ScanType = "trending"     // price momentum over the window
	ScanUndervalued ScanType = "undervalued"  // cheapest ask discount vs sold average
	ScanArbitrage   ScanType = "arbitrage"    // best arbitrage ROI
	ScanNewListings ScanType = "new_listings" // newest active observation
)

// PriceRange is a named bucket with fixed boundaries:
//
//	under100  → [0, 100)
//	100-500   → [100, 500]
//	500-1000  → [500, 1000]
//	over1000  → [1000, ∞)
type PriceRange string

const (
	RangeUnder100 PriceRange = "under100"
	Range100To500 PriceRange = "100-500"
	Range500To1K  PriceRange = "500-1000"
	RangeOver1K   PriceRange = "over1000"
)

// contains checks the bucket against a price. Unknown buckets are rejected
// earlier by validateScanParams.
func (pr PriceRange) contains(price float64) bool {
	switch pr {
	case RangeUnder100:
		return price >= 0 && price < 100
	case Range100To500:
		return price >= 100 && price <= 500
	case Range500To1K:
		return price >= 500 && price <= 1000
	case RangeOver1K:
		return price >= 1000
	}
	return false
}

// ScanParams are the validated market-scan inputs.
type ScanParams struct {
	ScanType   ScanType
	PriceRange PriceRange
	PeriodDays int
}

// ScanResult is one product's score under the scan metric.
type ScanResult struct {
	ProductID string  `json:"product"`
	Price     float64 `json:"price"`  // current average price
	Metric    float64 `json:"metric"` // ranking value, meaning depends on scan type
	Detail    string  `json:"data"`   // short human-readable rendering
}

// ScanReport is the ranked catalog sweep.
type ScanReport struct {
	ScanID           string       `json:"scan_id"`
	ScanType         ScanType     `json:"scan_type"`
	PriceRange       PriceRange   `json:"price_range"`
	TimePeriod       string       `json:"time_period"`
	ProductsAnalyzed int          `json:"products_analyzed"`
	Results          []ScanResult `json:"opportunities"`
}

// Scanner sweeps the catalog, computing the scan metric per product through
// the freshness cache.
type Scanner struct {
	Store market.ListingStore
	Cache *FreshnessCache
	Cfg   *config.Config

	now func() time.Time
}

// NewScanner creates a Scanner with the given store and cache.
func NewScanner(store market.ListingStore, cache *FreshnessCache, cfg *config.Config) *Scanner {
	return &Scanner{Store: store, Cache: cache, Cfg: cfg, now: time.Now}
}

// Scan applies the scan metric across every catalog product, filters by the
// price bucket against current average price, and ranks descending by metric.
// Products without enough data for the metric are skipped, not fabricated.
func (s *Scanner) Scan(ctx context.Context, params ScanParams) (*ScanReport, error) {
	if err := validateScanParams(params); err != nil {
		return nil, err
	}

	products, err := s.Store.Products(ctx)
	if err != nil {
		return nil, &market.DataUnavailableError{Reason: "catalog unavailable", Err: err}
	}

	report := &ScanReport{
		ScanID:           uuid.NewString(),
		ScanType:         params.ScanType,
		PriceRange:       params.PriceRange,
		TimePeriod:       fmt.Sprintf("%dd", params.PeriodDays),
		ProductsAnalyzed: len(products),
		Results:          []ScanResult{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Cfg.ScanConcurrency)

	for _, productID := range products {
		g.Go(func() error {
			snaps, err := s.Cache.Get(gctx, productID, params.PeriodDays, false, func(cctx context.Context) (*ProductSnapshots, error) {
				r := market.LastDays(s.now(), params.PeriodDays)
				listings, err := s.Store.FetchListings(cctx, productID, r)
				if err != nil {
					return nil, &market.DataUnavailableError{ProductID: productID, Reason: "listing fetch failed", Err: err}
				}
				return BuildProductSnapshots(productID, listings, r, s.now())
			})
			if err != nil {
				// A thin product must not sink the whole sweep.
				log.Printf("[DEBUG] scan skip %s: %v", productID, err)
				return nil
			}

			result, ok := s.scoreProduct(snaps, params)
			if !ok {
				return nil
			}
			mu.Lock()
			report.Results = append(report.Results, result)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Rank by metric descending; product ID ascending keeps ties stable.
	sort.SliceStable(report.Results, func(i, j int) bool {
		if report.Results[i].Metric != report.Results[j].Metric {
			return report.Results[i].Metric > report.Results[j].Metric
		}
		return report.Results[i].ProductID < report.Results[j].ProductID
	})
	if len(report.Results) > s.Cfg.ScanMaxResults {
		report.Results = report.Results[:s.Cfg.ScanMaxResults]
	}
	return report, nil
}

// scoreProduct computes the metric for one product, or reports that the
// product lacks the data the metric needs.
func (s *Scanner) scoreProduct(snaps *ProductSnapshots, params ScanParams) (ScanResult, bool) {
	price := currentAveragePrice(snaps)
	if price <= 0 || !params.PriceRange.contains(price) {
		return ScanResult{}, false
	}

	switch params.ScanType {
	case ScanTrending:
		trend, err := priceTrendPct(snaps)
		if err != nil {
			return ScanResult{}, false
		}
		return ScanResult{
			ProductID: snaps.ProductID,
			Price:     price,
			Metric:    trend,
			Detail:    fmt.Sprintf("$%.2f (%+.1f%% trend)", price, trend),
		}, true

	case ScanUndervalued:
		// Discount of the cheapest ask against the realized average.
		if snaps.Sold == nil || snaps.Active == nil || snaps.Sold.Mean <= 0 {
			return ScanResult{}, false
		}
		discount := (snaps.Sold.Mean - snaps.Active.Min) / snaps.Sold.Mean * 100
		return ScanResult{
			ProductID: snaps.ProductID,
			Price:     price,
			Metric:    discount,
			Detail:    fmt.Sprintf("$%.2f ask vs $%.2f sold avg (%.1f%% below)", snaps.Active.Min, snaps.Sold.Mean, discount),
		}, true

	case ScanArbitrage:
		rep := FindOpportunities(snaps, ArbitrageParams{MinProfitMargin: 0, MaxInvestment: s.Cfg.MaxInvestment}, s.Cfg)
		if rep.Best == nil || rep.Best.ROIPct <= 0 {
			return ScanResult{}, false
		}
		return ScanResult{
			ProductID: snaps.ProductID,
			Price:     price,
			Metric:    rep.Best.ROIPct,
			Detail:    fmt.Sprintf("$%.2f (%.1f%% ROI)", price, rep.Best.ROIPct),
		}, true

	case ScanNewListings:
		newest, ok := newestActive(snaps)
		if !ok {
			return ScanResult{}, false
		}
		return ScanResult{
			ProductID: snaps.ProductID,
			Price:     price,
			// Unix seconds rank newest first under descending sort.
			Metric: float64(newest.Unix()),
			Detail: fmt.Sprintf("$%.2f listed %s", price, newest.UTC().Format("2006-01-02 15:04")),
		}, true
	}
	return ScanResult{}, false
}

// currentAveragePrice prefers the live ask average over the sold average.
func currentAveragePrice(snaps *ProductSnapshots) float64 {
	if snaps.Active != nil {
		return snaps.Active.Mean
	}
	if snaps.Sold != nil {
		return snaps.Sold.Mean
	}
	return 0
}

func newestActive(snaps *ProductSnapshots) (time.Time, bool) {
	var newest time.Time
	found := false
	for _, l := range snaps.Listings {
		if l.Status != market.StatusActive {
			continue
		}
		if !found || l.ObservedAt.After(newest) {
			newest = l.ObservedAt
			found = true
		}
	}
	return newest, found
}

// validateScanParams rejects unknown enums up front: a caller error, never a
// silent default.
func validateScanParams(params ScanParams) error {
	switch params.ScanType {
	case ScanTrending, ScanUndervalued, ScanArbitrage, ScanNewListings:
	default:
		return &market.ValidationError{
			Param:  "scan_type",
			Reason: fmt.Sprintf("%q is not one of trending, undervalued, arbitrage, new_listings", params.ScanType),
		}
	}
	switch params.PriceRange {
	case RangeUnder100, Range100To500, Range500To1K, RangeOver1K:
	default:
		return &market.ValidationError{
			Param:  "price_range",
			Reason: fmt.Sprintf("%q is not one of under100, 100-500, 500-1000, over1000", params.PriceRange),
		}
	}
	if params.PeriodDays <= 0 {
		return &market.ValidationError{Param: "time_period", Reason: "must cover at least one day"}
	}
	return nil
}
