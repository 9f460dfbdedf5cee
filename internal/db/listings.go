package db

import (
	"context"
	"fmt"
	"time"

	"card-flipper/internal/market"
)

// InsertListings stores a batch of ingested listing records in one
// transaction. Listings are append-only; re-ingesting the same window simply
// adds newer observations.
func (d *DB) InsertListings(ctx context.Context, listings []market.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert listings: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (product_id, price, status, source, observed_at, fees)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert listings: %w", err)
	}
	defer stmt.Close()

	for _, l := range listings {
		if _, err := stmt.ExecContext(ctx, l.ProductID, l.Price, string(l.Status),
			l.Source, l.ObservedAt.UTC().Format(time.RFC3339), l.Fees); err != nil {
			return fmt.Errorf("insert listing for %s: %w", l.ProductID, err)
		}
	}
	return tx.Commit()
}

// FetchListings implements market.ListingStore over the listings table.
func (d *DB) FetchListings(ctx context.Context, productID string, r market.DateRange) ([]market.Listing, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT product_id, price, status, source, observed_at, fees
		FROM listings
		WHERE product_id = ? AND observed_at >= ? AND observed_at < ?
		ORDER BY observed_at`,
		productID, r.From.UTC().Format(time.RFC3339), r.To.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []market.Listing
	for rows.Next() {
		var l market.Listing
		var status, observedAt string
		if err := rows.Scan(&l.ProductID, &l.Price, &status, &l.Source, &observedAt, &l.Fees); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		l.Status = market.ListingStatus(status)
		t, err := time.Parse(time.RFC3339, observedAt)
		if err != nil {
			return nil, fmt.Errorf("parse observed_at %q: %w", observedAt, err)
		}
		l.ObservedAt = t
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Products implements the catalog side of market.ListingStore.
func (d *DB) Products(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT DISTINCT product_id FROM listings ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
