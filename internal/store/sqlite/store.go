package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uptrace/bun"

	"github.com/BryceStandley/ManifestToScale/internal/store"
)

// ManifestStore is the sqlite implementation of store.Store.
type ManifestStore struct {
	db *DB
}

var _ store.Store = (*ManifestStore)(nil)

// Open opens the database at path, creating its directory, and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*ManifestStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &ManifestStore{db: db}, nil
}

// Latest implements store.Store.
func (s *ManifestStore) Latest(ctx context.Context, manifestDate, vendor string) (*store.ProcessedManifest, error) {
	var latest *store.ProcessedManifest
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		latest, err = latestProcessed(ctx, tx, manifestDate, vendor)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query processed manifests: %w", err)
	}
	return latest, nil
}

// Claim implements store.Store.
func (s *ManifestStore) Claim(ctx context.Context, rec *store.ProcessedManifest) (bool, *store.ProcessedManifest, error) {
	var existing *store.ProcessedManifest
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
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
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return upsert(ctx, tx, rec)
	})
	if err != nil {
		return fmt.Errorf("failed to record manifest: %w", err)
	}
	return nil
}

// MarkDelivered implements store.Store.
func (s *ManifestStore) MarkDelivered(ctx context.Context, id string) error {
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*store.ProcessedManifest)(nil)).
			Set("delivered = ?", true).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mark manifest delivered: %w", err)
	}
	return nil
}

// Recent implements store.Store.
func (s *ManifestStore) Recent(ctx context.Context, limit int) ([]store.ProcessedManifest, error) {
	if limit <= 0 {
		limit = 50
	}
	records := make([]store.ProcessedManifest, 0)
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&records).
			OrderExpr("processed_at DESC, id DESC").
			Limit(limit).
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}
	return records, nil
}

// Close implements store.Store.
func (s *ManifestStore) Close() error {
	return s.db.Close()
}

func latestProcessed(ctx context.Context, tx bun.Tx, manifestDate, vendor string) (*store.ProcessedManifest, error) {
	var prev store.ProcessedManifest
	err := tx.NewSelect().
		Model(&prev).
		Where("manifest_date = ?", manifestDate).
		Where("vendor = ?", vendor).
		Where("status = ?", store.StatusProcessed).
		OrderExpr("processed_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prev, nil
}

func upsert(ctx context.Context, tx bun.Tx, rec *store.ProcessedManifest) error {
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}
	_, err := tx.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("processed_at = EXCLUDED.processed_at").
		Set("original_filename = EXCLUDED.original_filename").
		Set("manifest_date = EXCLUDED.manifest_date").
		Set("vendor = EXCLUDED.vendor").
		Set("total_crates = EXCLUDED.total_crates").
		Set("total_shipments = EXCLUDED.total_shipments").
		Set("status = EXCLUDED.status").
		Set("last_error = EXCLUDED.last_error").
		Set("receipt_id = EXCLUDED.receipt_id").
		Set("receipt_xml = EXCLUDED.receipt_xml").
		Set("shipment_xml = EXCLUDED.shipment_xml").
		Set("delivered = EXCLUDED.delivered").
		Exec(ctx)
	return err
}
