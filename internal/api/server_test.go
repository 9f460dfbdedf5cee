package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"card-flipper/internal/config"
	"card-flipper/internal/engine"
	"card-flipper/internal/market"
)

var apiNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type stubStore struct {
	listings map[string][]market.Listing
}

func (s *stubStore) FetchListings(ctx context.Context, productID string, r market.DateRange) ([]market.Listing, error) {
	return s.listings[productID], nil
}

func (s *stubStore) Products(ctx context.Context) ([]string, error) {
	products := make([]string, 0, len(s.listings))
	for id := range s.listings {
		products = append(products, id)
	}
	return products, nil
}

type stubHoldings struct {
	holdings []market.Holding
}

func (s *stubHoldings) Holdings(ctx context.Context) ([]market.Holding, error) {
	return s.holdings, nil
}

func soldAt(product string, price float64, daysAgo int) market.Listing {
	return market.Listing{
		ProductID:  product,
		Price:      price,
		Status:     market.StatusSold,
		Source:     "eBay Auctions",
		ObservedAt: apiNow.AddDate(0, 0, -daysAgo),
	}
}

func newTestHandler(store *stubStore, holdings *stubHoldings) http.Handler {
	cfg := config.Default()
	svc := engine.NewService(store, holdings, cfg)
	svc.SetClock(func() time.Time { return apiNow })
	return NewServer(cfg, svc, nil, nil).Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %s %s: %v (body %q)", method, path, err, rec.Body.String())
	}
	return rec, env
}

func TestStatusEndpoint(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	rec, env := doRequest(t, handler, "GET", "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Success {
		t.Error("Success = false, want true")
	}
}

func TestTrackPrices_Success(t *testing.T) {
	store := &stubStore{listings: map[string][]market.Listing{
		"card-1": {soldAt("card-1", 80, 8), soldAt("card-1", 90, 2)},
	}}
	handler := newTestHandler(store, &stubHoldings{})

	rec, env := doRequest(t, handler, "POST", "/api/prices/track",
		`{"product_id": "card-1", "update_frequency": "auto"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("Success = false: %s", env.Message)
	}
	if env.Summary == "" {
		t.Error("Summary missing")
	}

	data, ok := env.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %T, want object", env.Data)
	}
	if data["product_name"] != "card-1" {
		t.Errorf("product_name = %v, want card-1", data["product_name"])
	}
	if data["data_points"] != float64(2) {
		t.Errorf("data_points = %v, want 2", data["data_points"])
	}
}

func TestTrackPrices_ValidationError(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	rec, env := doRequest(t, handler, "POST", "/api/prices/track",
		`{"product_id": "card-1", "update_frequency": "hourly"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Success {
		t.Error("Success = true, want false")
	}
	if env.Error != "validation_error" {
		t.Errorf("Error = %q, want validation_error", env.Error)
	}
	if env.Message == "" {
		t.Error("Message missing")
	}
}

func TestTrackPrices_DataUnavailable(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	rec, env := doRequest(t, handler, "POST", "/api/prices/track",
		`{"product_id": "unknown-card"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env.Error != "data_unavailable" {
		t.Errorf("Error = %q, want data_unavailable", env.Error)
	}
}

func TestTrackPrices_MalformedBody(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	rec, env := doRequest(t, handler, "POST", "/api/prices/track", `{"product_id": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error != "validation_error" {
		t.Errorf("Error = %q, want validation_error", env.Error)
	}
}

func TestFindArbitrage_DefaultsFromConfig(t *testing.T) {
	store := &stubStore{listings: map[string][]market.Listing{
		"card-1": {soldAt("card-1", 80, 8), soldAt("card-1", 90, 2)},
	}}
	handler := newTestHandler(store, &stubHoldings{})

	// Omitted margin/investment fall back to config defaults rather than zero.
	rec, env := doRequest(t, handler, "POST", "/api/arbitrage/find",
		`{"product_id": "card-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("Success = false: %s", env.Message)
	}
}

func TestFindArbitrage_ExplicitInvalidValues(t *testing.T) {
	store := &stubStore{listings: map[string][]market.Listing{
		"card-1": {soldAt("card-1", 80, 8)},
	}}
	handler := newTestHandler(store, &stubHoldings{})

	rec, env := doRequest(t, handler, "POST", "/api/arbitrage/find",
		`{"product_id": "card-1", "min_profit_margin": -5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error != "validation_error" {
		t.Errorf("Error = %q, want validation_error", env.Error)
	}
}

func TestScan_Validation(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	rec, env := doRequest(t, handler, "POST", "/api/scan",
		`{"scan_type": "hot", "price_range": "under100", "time_period": "7d"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error != "validation_error" {
		t.Errorf("Error = %q, want validation_error", env.Error)
	}
}

func TestScan_EmptyCatalog(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	rec, env := doRequest(t, handler, "POST", "/api/scan",
		`{"scan_type": "trending", "price_range": "under100", "time_period": "7d"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("Success = false: %s", env.Message)
	}
}

func TestPortfolio_Empty(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	rec, env := doRequest(t, handler, "GET", "/api/portfolio", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Summary != "Portfolio is empty. Start by recording some investments!" {
		t.Errorf("Summary = %q, want the empty-portfolio message", env.Summary)
	}
}

func TestPersistenceEndpoints_WithoutDatabase(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"scan history", "GET", "/api/scan/history"},
		{"scan results", "GET", "/api/scan/history/scan-abc/results"},
		{"add holding", "POST", "/api/portfolio/holdings"},
		{"delete holding", "DELETE", "/api/portfolio/holdings/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, handler, tt.method, tt.path, "")
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", rec.Code)
			}
			if env.Error != "data_unavailable" {
				t.Errorf("Error = %q, want data_unavailable", env.Error)
			}
		})
	}
}

func TestIngest_WithoutCredentials(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	rec, env := doRequest(t, handler, "POST", "/api/ingest", `{"product_id": "card-1"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env.Error != "data_unavailable" {
		t.Errorf("Error = %q, want data_unavailable", env.Error)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler(&stubStore{}, &stubHoldings{})

	req := httptest.NewRequest("OPTIONS", "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS allow-origin header")
	}
}
