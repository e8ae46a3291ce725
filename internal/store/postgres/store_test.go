package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/BryceStandley/ManifestToScale/internal/store"
)

// These tests need a live database. Set MTS_POSTGRES_DSN to run them.
func openTestStore(t *testing.T) *ManifestStore {
	t.Helper()
	dsn := os.Getenv("MTS_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MTS_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestClaimAndLatest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// A unique vendor keeps runs against a shared database independent.
	vendor := "TEST-" + uuid.NewString()
	date := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	rec := func(crates int) *store.ProcessedManifest {
		return &store.ProcessedManifest{
			ID:             uuid.NewString(),
			ManifestDate:   store.FormatDate(date),
			Vendor:         vendor,
			TotalCrates:    crates,
			TotalShipments: 1,
			Status:         store.StatusProcessed,
		}
	}

	if latest, err := s.Latest(ctx, store.FormatDate(date), vendor); err != nil || latest != nil {
		t.Fatalf("Latest before claim = %+v, %v", latest, err)
	}
	first := rec(5)
	if claimed, _, err := s.Claim(ctx, first); err != nil || !claimed {
		t.Fatalf("first claim = %v, %v", claimed, err)
	}
	if claimed, existing, err := s.Claim(ctx, rec(5)); err != nil || claimed || existing == nil {
		t.Fatalf("duplicate claim = %v, %+v, %v", claimed, existing, err)
	}
	if err := s.MarkDelivered(ctx, first.ID); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	latest, err := s.Latest(ctx, store.FormatDate(date), vendor)
	if err != nil || latest == nil || latest.ID != first.ID || !latest.Delivered {
		t.Fatalf("Latest after claim = %+v, %v", latest, err)
	}

	recent, err := s.Recent(ctx, 5)
	if err != nil || len(recent) == 0 {
		t.Fatalf("Recent = %d, %v", len(recent), err)
	}
}
