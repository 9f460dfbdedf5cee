package db

import (
	"context"
	"fmt"
	"time"

	"card-flipper/internal/engine"
)

// ScanRecord is one row of the persisted scan log.
type ScanRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ScanType   string    `json:"scan_type"`
	PriceRange string    `json:"price_range"`
	TimePeriod string    `json:"time_period"`
	Count      int       `json:"count"`
	TopMetric  float64   `json:"top_metric"`
}

// InsertScan records a completed market scan and its results.
func (d *DB) InsertScan(ctx context.Context, report *engine.ScanReport, at time.Time) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert scan: %w", err)
	}
	defer tx.Rollback()

	topMetric := 0.0
	if len(report.Results) > 0 {
		topMetric = report.Results[0].Metric
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scan_history (id, timestamp, scan_type, price_range, time_period, count, top_metric)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ScanID, at.UTC().Format(time.RFC3339), string(report.ScanType),
		string(report.PriceRange), report.TimePeriod, len(report.Results), topMetric); err != nil {
		return fmt.Errorf("insert scan history: %w", err)
	}

	for _, res := range report.Results {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scan_results (scan_id, product_id, price, metric, detail)
			VALUES (?, ?, ?, ?, ?)`,
			report.ScanID, res.ProductID, res.Price, res.Metric, res.Detail); err != nil {
			return fmt.Errorf("insert scan result: %w", err)
		}
	}
	return tx.Commit()
}

// ScanHistory returns the most recent scan records, newest first.
func (d *DB) ScanHistory(ctx context.Context, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.sql.QueryContext(ctx, `
		SELECT id, timestamp, scan_type, price_range, time_period, count, top_metric
		FROM scan_history ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan history: %w", err)
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var ts string
		if err := rows.Scan(&rec.ID, &ts, &rec.ScanType, &rec.PriceRange, &rec.TimePeriod, &rec.Count, &rec.TopMetric); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parse scan timestamp %q: %w", ts, err)
		}
		rec.Timestamp = t
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ScanResults returns the persisted results of one scan run.
func (d *DB) ScanResults(ctx context.Context, scanID string) ([]engine.ScanResult, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT product_id, price, metric, detail
		FROM scan_results WHERE scan_id = ? ORDER BY metric DESC, product_id`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query scan results: %w", err)
	}
	defer rows.Close()

	var results []engine.ScanResult
	for rows.Next() {
		var res engine.ScanResult
		if err := rows.Scan(&res.ProductID, &res.Price, &res.Metric, &res.Detail); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
