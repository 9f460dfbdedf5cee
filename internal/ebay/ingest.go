package ebay

import (
	"context"
	"fmt"

	"card-flipper/internal/logger"
	"card-flipper/internal/market"
)

// ListingSink receives ingested listing batches (implemented by internal/db).
type ListingSink interface {
	InsertListings(ctx context.Context, listings []market.Listing) error
}

// Ingest pulls sold and active listings for a product and stores them.
// Returns the number of records ingested.
func (c *Client) Ingest(ctx context.Context, sink ListingSink, productID string) (int, error) {
	total := 0
	for _, status := range []market.ListingStatus{market.StatusSold, market.StatusActive} {
		listings, err := c.SearchListings(ctx, productID, status)
		if err != nil {
			return total, fmt.Errorf("ingest %s %s: %w", productID, status, err)
		}
		if err := sink.InsertListings(ctx, listings); err != nil {
			return total, fmt.Errorf("store %s %s: %w", productID, status, err)
		}
		total += len(listings)
	}
	logger.Info("eBay", fmt.Sprintf("Ingested %d listings for %s", total, productID))
	return total, nil
}
