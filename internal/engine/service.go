package engine

import (
	"context"
	"fmt"
	"time"

	"card-flipper/internal/config"
	"card-flipper/internal/market"
)

// Service is the transport-agnostic operation boundary: each analytic is a
// named, independently callable unit. Requests for different products run
// fully in parallel; the freshness cache serializes same-product refreshes.
type Service struct {
	store    market.ListingStore
	holdings market.HoldingStore
	cache    *FreshnessCache
	scanner  *Scanner
	cfg      *config.Config

	now func() time.Time
}

// NewService wires the analytics engine together.
func NewService(store market.ListingStore, holdings market.HoldingStore, cfg *config.Config) *Service {
	cache := NewFreshnessCache(time.Duration(cfg.CacheTTLMinutes) * time.Minute)
	return &Service{
		store:    store,
		holdings: holdings,
		cache:    cache,
		scanner:  NewScanner(store, cache, cfg),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Cache exposes the freshness cache (ingestion invalidates through it).
func (s *Service) Cache() *FreshnessCache { return s.cache }

// SetClock overrides the service and cache clock. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.cache.SetClock(now)
	s.scanner.now = now
}

// PriceAnalysis is the track_product_prices result.
type PriceAnalysis struct {
	ProductID      string         `json:"product_name"`
	DataPoints     int            `json:"data_points"`
	DateRangeDays  int            `json:"date_range"`
	Sold           *PriceSnapshot `json:"sold,omitempty"`
	Active         *PriceSnapshot `json:"active,omitempty"`
	ComputedAt     time.Time      `json:"computed_at"`
	Recommendation string         `json:"recommendation"`
}

// TrackProductPrices computes descriptive price statistics for one product.
// updateFrequency "auto" honors the cache TTL; "force" always recomputes.
func (s *Service) TrackProductPrices(ctx context.Context, productID, updateFrequency string) (*PriceAnalysis, error) {
	force, err := parseUpdateFrequency(updateFrequency)
	if err != nil {
		return nil, err
	}
	if err := validateProductID(productID); err != nil {
		return nil, err
	}

	snaps, err := s.productSnapshots(ctx, productID, force)
	if err != nil {
		return nil, err
	}

	return &PriceAnalysis{
		ProductID:      productID,
		DataPoints:     snaps.DataPoints,
		DateRangeDays:  snaps.RangeDays,
		Sold:           snaps.Sold,
		Active:         snaps.Active,
		ComputedAt:     snaps.ComputedAt,
		Recommendation: buyRecommendation(snaps),
	}, nil
}

// FindArbitrage detects profitable buy/sell pairings for one product.
func (s *Service) FindArbitrage(ctx context.Context, productID string, minProfitMargin, maxInvestment float64, updateFrequency string) (*ArbitrageReport, error) {
	force, err := parseUpdateFrequency(updateFrequency)
	if err != nil {
		return nil, err
	}
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	if minProfitMargin < 0 {
		return nil, &market.ValidationError{Param: "min_profit_margin", Reason: "must be >= 0"}
	}
	if maxInvestment <= 0 {
		return nil, &market.ValidationError{Param: "max_investment", Reason: "must be > 0"}
	}

	snaps, err := s.productSnapshots(ctx, productID, force)
	if err != nil {
		return nil, err
	}

	params := ArbitrageParams{MinProfitMargin: minProfitMargin, MaxInvestment: maxInvestment}
	return FindOpportunities(snaps, params, s.cfg), nil
}

// AnalyzeInvestment scores a product's long-term potential over a horizon.
func (s *Service) AnalyzeInvestment(ctx context.Context, productID, horizon string) (*InvestmentAssessment, error) {
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	// Reject a bad horizon before touching the cache, so the caller sees the
	// parameter error even when the product has no data.
	if _, ok := s.cfg.HorizonMultiplier(horizon); !ok {
		return nil, &market.ValidationError{
			Param:  "investment_horizon",
			Reason: fmt.Sprintf("%q is not one of short, medium, long", horizon),
		}
	}

	snaps, err := s.productSnapshots(ctx, productID, false)
	if err != nil {
		return nil, err
	}
	return AssessInvestment(snaps, horizon, s.cfg)
}

// ScanMarket sweeps the catalog with the given scan type, bucket, and window.
// timePeriod is a duration string like "7d".
func (s *Service) ScanMarket(ctx context.Context, scanType, priceRange, timePeriod string) (*ScanReport, error) {
	days, err := market.ParsePeriod(timePeriod)
	if err != nil {
		return nil, err
	}
	return s.scanner.Scan(ctx, ScanParams{
		ScanType:   ScanType(scanType),
		PriceRange: PriceRange(priceRange),
		PeriodDays: days,
	})
}

// PortfolioSummary values all holdings against current snapshots.
func (s *Service) PortfolioSummary(ctx context.Context) (*PortfolioSummary, error) {
	holdings, err := s.holdings.Holdings(ctx)
	if err != nil {
		return nil, &market.DataUnavailableError{Reason: "holdings unavailable", Err: err}
	}

	// Resolve current prices up front so BuildPortfolio stays pure.
	prices := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		if _, ok := prices[h.ProductID]; ok {
			continue
		}
		snaps, err := s.productSnapshots(ctx, h.ProductID, false)
		if err != nil {
			if _, unavailable := err.(*market.DataUnavailableError); unavailable {
				// Leave unresolved; BuildPortfolio reports the product.
				continue
			}
			return nil, err
		}
		if p := holdingValuationPrice(snaps); p > 0 {
			prices[h.ProductID] = p
		}
	}

	return BuildPortfolio(holdings, func(productID string) (float64, bool) {
		p, ok := prices[productID]
		return p, ok
	}, s.now())
}

// productSnapshots fetches listings over the default lookback and computes
// snapshots through the freshness cache. The store fetch is bounded by the
// configured timeout; exceeding it is a data-unavailable failure, not a hang.
func (s *Service) productSnapshots(ctx context.Context, productID string, force bool) (*ProductSnapshots, error) {
	return s.cache.Get(ctx, productID, s.cfg.LookbackDays, force, func(cctx context.Context) (*ProductSnapshots, error) {
		fetchCtx, cancel := context.WithTimeout(cctx, time.Duration(s.cfg.FetchTimeoutSeconds)*time.Second)
		defer cancel()

		r := market.LastDays(s.now(), s.cfg.LookbackDays)
		listings, err := s.store.FetchListings(fetchCtx, productID, r)
		if err != nil {
			return nil, &market.DataUnavailableError{ProductID: productID, Reason: "listing fetch failed", Err: err}
		}
		return BuildProductSnapshots(productID, listings, r, s.now())
	})
}

// holdingValuationPrice prefers realized sale prices for marking positions.
func holdingValuationPrice(snaps *ProductSnapshots) float64 {
	if snaps.Sold != nil {
		return snaps.Sold.Mean
	}
	if snaps.Active != nil {
		return snaps.Active.Mean
	}
	return 0
}

// buyRecommendation mirrors the classic rule: asks within 10% of the realized
// average are a buying opportunity. Needs both distributions.
func buyRecommendation(snaps *ProductSnapshots) string {
	if snaps.Sold == nil || snaps.Active == nil {
		return "Insufficient data for a buy/wait call"
	}
	if snaps.Active.Mean < snaps.Sold.Mean*1.1 {
		return "Good buying opportunity"
	}
	return "Monitor for better prices"
}

func parseUpdateFrequency(s string) (force bool, err error) {
	switch s {
	case "force":
		return true, nil
	case "auto", "":
		return false, nil
	}
	return false, &market.ValidationError{
		Param:  "update_frequency",
		Reason: fmt.Sprintf("%q is not one of auto, force", s),
	}
}

func validateProductID(productID string) error {
	if productID == "" {
		return &market.ValidationError{Param: "product_id", Reason: "must not be empty"}
	}
	return nil
}
