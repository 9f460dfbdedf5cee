package db

import (
	"context"
	"fmt"
	"time"

	"card-flipper/internal/market"
)

// AddHolding records a new portfolio position and returns its ID.
func (d *DB) AddHolding(ctx context.Context, h market.Holding) (int64, error) {
	if h.Quantity <= 0 {
		return 0, &market.ValidationError{Param: "quantity", Reason: "must be a positive integer"}
	}
	if h.UnitCost <= 0 {
		return 0, &market.ValidationError{Param: "unit_cost", Reason: "must be > 0"}
	}
	res, err := d.sql.ExecContext(ctx, `
		INSERT INTO holdings (product_id, quantity, unit_cost, purchase_date)
		VALUES (?, ?, ?, ?)`,
		h.ProductID, h.Quantity, h.UnitCost, h.PurchaseDate.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert holding: %w", err)
	}
	return res.LastInsertId()
}

// Holdings implements market.HoldingStore.
func (d *DB) Holdings(ctx context.Context) ([]market.Holding, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT id, product_id, quantity, unit_cost, purchase_date
		FROM holdings ORDER BY purchase_date`)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []market.Holding
	for rows.Next() {
		var h market.Holding
		var purchased string
		if err := rows.Scan(&h.ID, &h.ProductID, &h.Quantity, &h.UnitCost, &purchased); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		t, err := time.Parse(time.RFC3339, purchased)
		if err != nil {
			return nil, fmt.Errorf("parse purchase_date %q: %w", purchased, err)
		}
		h.PurchaseDate = t
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// DeleteHolding removes a position (a full sale).
func (d *DB) DeleteHolding(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM holdings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete holding %d: %w", id, err)
	}
	return nil
}
