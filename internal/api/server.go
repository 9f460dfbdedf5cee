package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"card-flipper/internal/config"
	"card-flipper/internal/db"
	"card-flipper/internal/ebay"
	"card-flipper/internal/engine"
	"card-flipper/internal/logger"
	"card-flipper/internal/market"
)

// Server is the HTTP API exposing each analytic operation as an independently
// callable unit with the structured success/error envelope.
type Server struct {
	cfg  *config.Config
	svc  *engine.Service
	db   *db.DB
	ebay *ebay.Client // nil when no credentials configured
}

// NewServer creates a Server around the analytics service.
func NewServer(cfg *config.Config, svc *engine.Service, database *db.DB, ebayClient *ebay.Client) *Server {
	return &Server{cfg: cfg, svc: svc, db: database, ebay: ebayClient}
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("POST /api/prices/track", s.handleTrackPrices)
	mux.HandleFunc("POST /api/arbitrage/find", s.handleFindArbitrage)
	mux.HandleFunc("POST /api/invest/analyze", s.handleAnalyzeInvestment)
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("GET /api/scan/history", s.handleScanHistory)
	mux.HandleFunc("GET /api/scan/history/{id}/results", s.handleScanResults)
	mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)
	mux.HandleFunc("POST /api/portfolio/holdings", s.handleAddHolding)
	mux.HandleFunc("DELETE /api/portfolio/holdings/{id}", s.handleDeleteHolding)
	mux.HandleFunc("POST /api/ingest", s.handleIngest)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// envelope is the boundary contract: success with data and a short summary,
// or a coded failure. Exceptions never propagate bare to the caller.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Summary string      `json:"summary,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeResult(w http.ResponseWriter, data interface{}, summary string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data, Summary: summary})
}

// writeFailure maps the error taxonomy to a code and HTTP status.
// ComputationError means an internal invariant broke: it is logged with full
// context and surfaced verbatim, never hidden behind fabricated numbers.
func writeFailure(w http.ResponseWriter, op string, err error) {
	code := "internal_error"
	status := http.StatusInternalServerError

	var ve *market.ValidationError
	var due *market.DataUnavailableError
	var ce *market.ComputationError
	switch {
	case errors.As(err, &ve):
		code = "validation_error"
		status = http.StatusBadRequest
	case errors.As(err, &due):
		code = "data_unavailable"
		status = http.StatusServiceUnavailable
	case errors.As(err, &ce):
		code = "computation_error"
		logger.Error("Engine", err.Error())
	default:
		logger.Error("API", op+": "+err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: code, Message: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFailure(w, r.URL.Path, &market.ValidationError{Param: "body", Reason: "malformed JSON"})
		return false
	}
	return true
}
