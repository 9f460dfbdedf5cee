package engine

import (
	"errors"
	"testing"
	"time"

	"card-flipper/internal/market"
)

func staticPrices(prices map[string]float64) PriceLookup {
	return func(productID string) (float64, bool) {
		p, ok := prices[productID]
		return p, ok
	}
}

func TestBuildPortfolio_Aggregation(t *testing.T) {
	holdings := []market.Holding{
		{ProductID: "card-1", Quantity: 3, UnitCost: 90, PurchaseDate: testNow.AddDate(0, 0, -100)},
		{ProductID: "card-2", Quantity: 4, UnitCost: 95, PurchaseDate: testNow.AddDate(0, 0, -50)},
	}
	// card-1: cost 270, value 285; card-2: cost 380, value 420.
	prices := staticPrices(map[string]float64{"card-1": 95, "card-2": 105})

	summary, err := BuildPortfolio(holdings, prices, testNow)
	if err != nil {
		t.Fatalf("BuildPortfolio: %v", err)
	}

	if summary.TotalInvested != 650 {
		t.Errorf("TotalInvested = %v, want 650", summary.TotalInvested)
	}
	if summary.CurrentValue != 705 {
		t.Errorf("CurrentValue = %v, want 705", summary.CurrentValue)
	}
	if summary.UnrealizedPnL != 55 {
		t.Errorf("UnrealizedPnL = %v, want 55", summary.UnrealizedPnL)
	}
	if !approx(summary.UnrealizedPnLPct, 55.0/650*100) {
		t.Errorf("UnrealizedPnLPct = %v, want %v", summary.UnrealizedPnLPct, 55.0/650*100)
	}
	if summary.ActivePositions != 2 {
		t.Errorf("ActivePositions = %d, want 2", summary.ActivePositions)
	}
	if summary.AvgHoldingDays != 75 {
		t.Errorf("AvgHoldingDays = %d, want 75", summary.AvgHoldingDays)
	}

	// Aggregate pnl equals the sum over positions.
	var sum float64
	for _, h := range summary.Holdings {
		sum += h.PnL
	}
	if sum != summary.UnrealizedPnL {
		t.Errorf("position pnl sum %v != aggregate %v", sum, summary.UnrealizedPnL)
	}

	// Largest position listed first.
	if summary.Holdings[0].ProductID != "card-2" {
		t.Errorf("first holding = %s, want card-2 (value 420)", summary.Holdings[0].ProductID)
	}

	// card-2 gains 10.5%, card-1 gains 5.6%.
	if summary.BestPerformer == nil || summary.BestPerformer.ProductID != "card-2" {
		t.Errorf("BestPerformer = %+v, want card-2", summary.BestPerformer)
	}
	if summary.WorstPerformer == nil || summary.WorstPerformer.ProductID != "card-1" {
		t.Errorf("WorstPerformer = %+v, want card-1", summary.WorstPerformer)
	}
	if summary.OverallStatus != "Moderate performance" {
		t.Errorf("OverallStatus = %q, want Moderate performance", summary.OverallStatus)
	}
}

func TestBuildPortfolio_Empty(t *testing.T) {
	summary, err := BuildPortfolio(nil, staticPrices(nil), testNow)
	if err != nil {
		t.Fatalf("BuildPortfolio: %v", err)
	}
	if summary.ActivePositions != 0 {
		t.Errorf("ActivePositions = %d, want 0", summary.ActivePositions)
	}
	if summary.Holdings == nil {
		t.Error("Holdings must be an explicit empty slice, not nil")
	}
	if summary.BestPerformer != nil || summary.WorstPerformer != nil {
		t.Error("empty portfolio has no performers")
	}
}

func TestBuildPortfolio_MissingPriceIsDataUnavailable(t *testing.T) {
	holdings := []market.Holding{
		{ProductID: "card-1", Quantity: 1, UnitCost: 100, PurchaseDate: testNow.AddDate(0, 0, -10)},
		{ProductID: "ghost", Quantity: 1, UnitCost: 50, PurchaseDate: testNow.AddDate(0, 0, -10)},
	}
	_, err := BuildPortfolio(holdings, staticPrices(map[string]float64{"card-1": 110}), testNow)

	var due *market.DataUnavailableError
	if !errors.As(err, &due) {
		t.Fatalf("error = %v, want *DataUnavailableError", err)
	}
	if due.ProductID != "ghost" {
		t.Errorf("ProductID = %q, want ghost", due.ProductID)
	}
}

func TestPickPerformers_TieBreaksOnAbsolutePnL(t *testing.T) {
	// Equal percentage gains: the larger position wins the tie.
	holdings := []HoldingPerformance{
		{ProductID: "small", PnLPct: 10, PnL: 10},
		{ProductID: "large", PnLPct: 10, PnL: 100},
	}
	best, _ := pickPerformers(holdings)
	if best.ProductID != "large" {
		t.Errorf("best = %s, want large", best.ProductID)
	}
}

func TestBuildPortfolio_LossRecommendations(t *testing.T) {
	holdings := []market.Holding{
		{ProductID: "card-1", Quantity: 2, UnitCost: 100, PurchaseDate: testNow.AddDate(0, 0, -30)},
	}
	summary, err := BuildPortfolio(holdings, staticPrices(map[string]float64{"card-1": 80}), testNow)
	if err != nil {
		t.Fatalf("BuildPortfolio: %v", err)
	}
	if summary.OverallStatus != "Underperforming" {
		t.Errorf("OverallStatus = %q, want Underperforming", summary.OverallStatus)
	}
	found := false
	for _, rec := range summary.Recommendations {
		if rec == "Review underperforming assets" {
			found = true
		}
	}
	if !found {
		t.Errorf("Recommendations = %v, want review advice for a losing book", summary.Recommendations)
	}
}

func TestHoldingDays(t *testing.T) {
	holdings := []market.Holding{
		{ProductID: "card-1", Quantity: 1, UnitCost: 100, PurchaseDate: testNow.Add(-49 * 24 * time.Hour)},
	}
	summary, err := BuildPortfolio(holdings, staticPrices(map[string]float64{"card-1": 100}), testNow)
	if err != nil {
		t.Fatalf("BuildPortfolio: %v", err)
	}
	if summary.Holdings[0].HoldingDays != 49 {
		t.Errorf("HoldingDays = %d, want 49", summary.Holdings[0].HoldingDays)
	}
}
