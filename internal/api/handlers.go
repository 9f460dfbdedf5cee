package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"card-flipper/internal/logger"
	"card-flipper/internal/market"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeResult(w, map[string]interface{}{
		"ready":             true,
		"cache_ttl_minutes": s.cfg.CacheTTLMinutes,
		"lookback_days":     s.cfg.LookbackDays,
		"ingestion":         s.ebay != nil,
	}, "card-flipper is ready")
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.cfg, "current configuration")
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	updated := *s.cfg
	if !decodeJSON(w, r, &updated) {
		return
	}
	if updated.CacheTTLMinutes <= 0 || updated.LookbackDays <= 0 {
		writeFailure(w, r.URL.Path, &market.ValidationError{Param: "config", Reason: "ttl and lookback must be positive"})
		return
	}
	*s.cfg = updated
	if s.db != nil {
		if err := s.db.SaveConfig(s.cfg); err != nil {
			logger.Warn("DB", "config save failed: "+err.Error())
		}
	}
	writeResult(w, s.cfg, "configuration updated")
}

type trackRequest struct {
	ProductID       string `json:"product_id"`
	UpdateFrequency string `json:"update_frequency"`
}

func (s *Server) handleTrackPrices(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	analysis, err := s.svc.TrackProductPrices(r.Context(), req.ProductID, req.UpdateFrequency)
	if err != nil {
		writeFailure(w, "track_product_prices", err)
		return
	}
	writeResult(w, analysis,
		fmt.Sprintf("Found %d listings for %s over %d days", analysis.DataPoints, analysis.ProductID, analysis.DateRangeDays))
}

type arbitrageRequest struct {
	ProductID       string   `json:"product_id"`
	MinProfitMargin *float64 `json:"min_profit_margin"`
	MaxInvestment   *float64 `json:"max_investment"`
	UpdateFrequency string   `json:"update_frequency"`
}

func (s *Server) handleFindArbitrage(w http.ResponseWriter, r *http.Request) {
	var req arbitrageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// Omitted knobs fall back to configured defaults; explicit zero or
	// negative values still go through validation.
	margin := s.cfg.MinProfitMargin
	if req.MinProfitMargin != nil {
		margin = *req.MinProfitMargin
	}
	investment := s.cfg.MaxInvestment
	if req.MaxInvestment != nil {
		investment = *req.MaxInvestment
	}

	report, err := s.svc.FindArbitrage(r.Context(), req.ProductID, margin, investment, req.UpdateFrequency)
	if err != nil {
		writeFailure(w, "find_arbitrage_opportunities", err)
		return
	}
	summary := fmt.Sprintf("No arbitrage opportunities found for %s with %.1f%% minimum margin", report.ProductID, margin)
	if len(report.Opportunities) > 0 {
		summary = fmt.Sprintf("Found %d opportunities for %s, best ROI %.1f%%",
			len(report.Opportunities), report.ProductID, report.Best.ROIPct)
	}
	writeResult(w, report, summary)
}

type investRequest struct {
	ProductID         string `json:"product_id"`
	InvestmentHorizon string `json:"investment_horizon"`
}

func (s *Server) handleAnalyzeInvestment(w http.ResponseWriter, r *http.Request) {
	var req investRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	horizon := req.InvestmentHorizon
	if horizon == "" {
		horizon = "medium"
	}
	assessment, err := s.svc.AnalyzeInvestment(r.Context(), req.ProductID, horizon)
	if err != nil {
		writeFailure(w, "analyze_investment_potential", err)
		return
	}
	writeResult(w, assessment,
		fmt.Sprintf("%s scores %.1f/100 (%s risk) over a %s horizon",
			assessment.ProductID, assessment.Score, assessment.RiskLevel, assessment.Horizon))
}

type scanRequest struct {
	ScanType   string `json:"scan_type"`
	PriceRange string `json:"price_range"`
	TimePeriod string `json:"time_period"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := s.svc.ScanMarket(r.Context(), req.ScanType, req.PriceRange, req.TimePeriod)
	if err != nil {
		writeFailure(w, "market_scanner", err)
		return
	}
	if s.db != nil {
		if err := s.db.InsertScan(r.Context(), report, time.Now()); err != nil {
			logger.Warn("DB", "scan history save failed: "+err.Error())
		}
	}
	writeResult(w, report,
		fmt.Sprintf("Found %d %s opportunities in %s range", len(report.Results), report.ScanType, report.PriceRange))
}

// requireDB rejects persistence-backed requests when no database is wired.
func (s *Server) requireDB(w http.ResponseWriter, op string) bool {
	if s.db == nil {
		writeFailure(w, op, &market.DataUnavailableError{Reason: "no database configured"})
		return false
	}
	return true
}

func (s *Server) handleScanHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, "scan_history") {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.db.ScanHistory(r.Context(), limit)
	if err != nil {
		writeFailure(w, "scan_history", err)
		return
	}
	writeResult(w, records, fmt.Sprintf("%d recorded scans", len(records)))
}

func (s *Server) handleScanResults(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, "scan_results") {
		return
	}
	scanID := r.PathValue("id")
	results, err := s.db.ScanResults(r.Context(), scanID)
	if err != nil {
		writeFailure(w, "scan_results", err)
		return
	}
	writeResult(w, results, fmt.Sprintf("%d results for scan %s", len(results), scanID))
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.PortfolioSummary(r.Context())
	if err != nil {
		writeFailure(w, "get_portfolio_summary", err)
		return
	}
	if summary.ActivePositions == 0 {
		writeResult(w, summary, "Portfolio is empty. Start by recording some investments!")
		return
	}
	writeResult(w, summary,
		fmt.Sprintf("%d positions, unrealized P&L %+.2f (%+.1f%%)",
			summary.ActivePositions, summary.UnrealizedPnL, summary.UnrealizedPnLPct))
}

type holdingRequest struct {
	ProductID    string  `json:"product_id"`
	Quantity     int     `json:"quantity"`
	UnitCost     float64 `json:"unit_cost"`
	PurchaseDate string  `json:"purchase_date"` // YYYY-MM-DD
}

func (s *Server) handleAddHolding(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, "add_holding") {
		return
	}
	var req holdingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeFailure(w, "add_holding", &market.ValidationError{Param: "product_id", Reason: "must not be empty"})
		return
	}
	purchased, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		writeFailure(w, "add_holding", &market.ValidationError{Param: "purchase_date", Reason: "must be YYYY-MM-DD"})
		return
	}
	id, err := s.db.AddHolding(r.Context(), market.Holding{
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		UnitCost:     req.UnitCost,
		PurchaseDate: purchased,
	})
	if err != nil {
		writeFailure(w, "add_holding", err)
		return
	}
	writeResult(w, map[string]int64{"id": id}, fmt.Sprintf("Recorded %d × %s", req.Quantity, req.ProductID))
}

func (s *Server) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, "delete_holding") {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeFailure(w, "delete_holding", &market.ValidationError{Param: "id", Reason: "must be an integer"})
		return
	}
	if err := s.db.DeleteHolding(r.Context(), id); err != nil {
		writeFailure(w, "delete_holding", err)
		return
	}
	writeResult(w, nil, fmt.Sprintf("Holding %d removed", id))
}

type ingestRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ebay == nil {
		writeFailure(w, "ingest", &market.DataUnavailableError{Reason: "no eBay credentials configured"})
		return
	}
	var req ingestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeFailure(w, "ingest", &market.ValidationError{Param: "product_id", Reason: "must not be empty"})
		return
	}
	count, err := s.ebay.Ingest(r.Context(), s.db, req.ProductID)
	if err != nil {
		writeFailure(w, "ingest", &market.DataUnavailableError{ProductID: req.ProductID, Reason: "marketplace fetch failed", Err: err})
		return
	}
	// New observations make cached snapshots stale immediately.
	s.svc.Cache().Invalidate(req.ProductID)
	writeResult(w, map[string]int{"ingested": count}, fmt.Sprintf("Ingested %d listings for %s", count, req.ProductID))
}
