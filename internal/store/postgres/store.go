package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BryceStandley/ManifestToScale/internal/store"
)

// ManifestStore is the PostgreSQL implementation of store.Store.
type ManifestStore struct {
	Pool *pgxpool.Pool
}

var _ store.Store = (*ManifestStore)(nil)

// Open connects to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*ManifestStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &ManifestStore{Pool: pool}, nil
}

// EnsureSchema creates the processed_manifests table if it is missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS processed_manifests (
  id text PRIMARY KEY,
  processed_at timestamptz NOT NULL,
  original_filename text NOT NULL DEFAULT '',
  manifest_date text NOT NULL,
  vendor text NOT NULL,
  total_crates integer NOT NULL DEFAULT 0,
  total_shipments integer NOT NULL DEFAULT 0,
  status integer NOT NULL DEFAULT 0,
  last_error text NOT NULL DEFAULT '',
  receipt_id text NOT NULL DEFAULT '',
  receipt_xml text NOT NULL DEFAULT '',
  shipment_xml text NOT NULL DEFAULT '',
  delivered boolean NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_processed_manifests_lookup
  ON processed_manifests (manifest_date, vendor, status);`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

const columns = `id, processed_at, original_filename, manifest_date, vendor, total_crates,
  total_shipments, status, last_error, receipt_id, receipt_xml, shipment_xml, delivered`

const upsertSQL = `INSERT INTO processed_manifests (` + columns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
  processed_at = EXCLUDED.processed_at,
  original_filename = EXCLUDED.original_filename,
  manifest_date = EXCLUDED.manifest_date,
  vendor = EXCLUDED.vendor,
  total_crates = EXCLUDED.total_crates,
  total_shipments = EXCLUDED.total_shipments,
  status = EXCLUDED.status,
  last_error = EXCLUDED.last_error,
  receipt_id = EXCLUDED.receipt_id,
  receipt_xml = EXCLUDED.receipt_xml,
  shipment_xml = EXCLUDED.shipment_xml,
  delivered = EXCLUDED.delivered`

// Latest implements store.Store.
func (s *ManifestStore) Latest(ctx context.Context, manifestDate, vendor string) (*store.ProcessedManifest, error) {
	latest, err := latestProcessed(ctx, s.Pool, manifestDate, vendor)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed manifests: %w", err)
	}
	return latest, nil
}

// Claim implements store.Store. A transaction-scoped advisory lock on the
// date and vendor serializes concurrent claims for the same manifest.
func (s *ManifestStore) Claim(ctx context.Context, rec *store.ProcessedManifest) (bool, *store.ProcessedManifest, error) {
	var existing *store.ProcessedManifest
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rec.ManifestDate+"|"+rec.Vendor); err != nil {
			return err
		}

		prev, err := latestProcessed(ctx, tx, rec.ManifestDate, rec.Vendor)
		if err != nil {
			return err
		}
		if prev.Duplicates(rec) {
			existing = prev
			return nil
		}
		return upsert(ctx, tx, rec)
	})
	if err != nil {
		return false, nil, fmt.Errorf("failed to claim manifest: %w", err)
	}
	if existing != nil {
		return false, existing, nil
	}
	return true, nil, nil
}

// Record implements store.Store.
func (s *ManifestStore) Record(ctx context.Context, rec *store.ProcessedManifest) error {
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		return upsert(ctx, tx, rec)
	})
	if err != nil {
		return fmt.Errorf("failed to record manifest: %w", err)
	}
	return nil
}

// MarkDelivered implements store.Store.
func (s *ManifestStore) MarkDelivered(ctx context.Context, id string) error {
	if _, err := s.Pool.Exec(ctx, `UPDATE processed_manifests SET delivered = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to mark manifest delivered: %w", err)
	}
	return nil
}

// Recent implements store.Store.
func (s *ManifestStore) Recent(ctx context.Context, limit int) ([]store.ProcessedManifest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+columns+` FROM processed_manifests
ORDER BY processed_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}
	defer rows.Close()

	records := make([]store.ProcessedManifest, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manifest: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Close implements store.Store.
func (s *ManifestStore) Close() error {
	s.Pool.Close()
	return nil
}

// rowQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func latestProcessed(ctx context.Context, q rowQuerier, manifestDate, vendor string) (*store.ProcessedManifest, error) {
	row := q.QueryRow(ctx, `SELECT `+columns+` FROM processed_manifests
WHERE manifest_date = $1 AND vendor = $2 AND status = $3
ORDER BY processed_at DESC LIMIT 1`, manifestDate, vendor, int(store.StatusProcessed))
	prev, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return prev, err
}

func upsert(ctx context.Context, tx pgx.Tx, rec *store.ProcessedManifest) error {
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}
	_, err := tx.Exec(ctx, upsertSQL,
		rec.ID, rec.ProcessedAt, rec.OriginalFilename, rec.ManifestDate, rec.Vendor,
		rec.TotalCrates, rec.TotalShipments, int(rec.Status), rec.LastError,
		rec.ReceiptID, rec.ReceiptXML, rec.ShipmentXML, rec.Delivered)
	return err
}

func scanRecord(row pgx.Row) (*store.ProcessedManifest, error) {
	var rec store.ProcessedManifest
	var status int
	err := row.Scan(&rec.ID, &rec.ProcessedAt, &rec.OriginalFilename, &rec.ManifestDate,
		&rec.Vendor, &rec.TotalCrates, &rec.TotalShipments, &status, &rec.LastError,
		&rec.ReceiptID, &rec.ReceiptXML, &rec.ShipmentXML, &rec.Delivered)
	if err != nil {
		return nil, err
	}
	rec.Status = store.Status(status)
	return &rec, nil
}
