package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ListingStatus distinguishes completed sales from items currently on offer.
type ListingStatus string

const (
	StatusSold   ListingStatus = "sold"
	StatusActive ListingStatus = "active"
)

// Listing is one observed marketplace price record. Immutable once ingested.
type Listing struct {
	ProductID  string        `json:"product_id"`
	Price      float64       `json:"price"`
	Status     ListingStatus `json:"status"`
	Source     string        `json:"source"` // marketplace channel, e.g. "eBay Auctions"
	ObservedAt time.Time     `json:"observed_at"`
	// Fees is the recorded transaction fee for this listing in absolute terms.
	// 0 means "not recorded"; callers estimate from the configured fee percent.
	Fees float64 `json:"fees,omitempty"`
}

// Holding is one portfolio position entered by the user.
type Holding struct {
	ID           int64     `json:"id"`
	ProductID    string    `json:"product_id"`
	Quantity     int       `json:"quantity"`
	UnitCost     float64   `json:"unit_cost"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// TotalCost returns quantity * unit cost.
func (h Holding) TotalCost() float64 {
	return float64(h.Quantity) * h.UnitCost
}

// DateRange is a half-open observation window [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// Days returns the window length in whole days, minimum 1.
func (r DateRange) Days() int {
	d := int(r.To.Sub(r.From).Hours() / 24)
	if d < 1 {
		return 1
	}
	return d
}

// LastDays builds a range covering the trailing n days up to now.
func LastDays(now time.Time, n int) DateRange {
	return DateRange{From: now.AddDate(0, 0, -n), To: now}
}

// ParsePeriod parses a duration string like "1d", "7d", "30d" into days.
// Unknown formats are a caller error, never silently defaulted.
func ParsePeriod(s string) (int, error) {
	trimmed := strings.TrimSuffix(s, "d")
	if trimmed == s || trimmed == "" {
		return 0, &ValidationError{Param: "time_period", Reason: fmt.Sprintf("%q is not a day-count like \"7d\"", s)}
	}
	days, err := strconv.Atoi(trimmed)
	if err != nil || days <= 0 {
		return 0, &ValidationError{Param: "time_period", Reason: fmt.Sprintf("%q is not a positive day-count", s)}
	}
	return days, nil
}

// ListingStore supplies timestamped listing records for a product over a range.
// Implementations must respect ctx cancellation; a slow backend surfaces as a
// deadline error, never an indefinite hang.
type ListingStore interface {
	FetchListings(ctx context.Context, productID string, r DateRange) ([]Listing, error)
	// Products returns the catalog of known product identifiers.
	Products(ctx context.Context) ([]string, error)
}

// HoldingStore supplies the user's portfolio positions.
type HoldingStore interface {
	Holdings(ctx context.Context) ([]Holding, error)
}
