// =============================================================================
// Manifest to Scale - Processed Manifest Store
// =============================================================================
//
// This module records every manifest the service converts, so the same
// vendor manifest for the same day is not sent to the WMS twice.
//
// DEDUP RULE:
//   A manifest is a duplicate when a record with the same manifest date and
//   vendor already has status Processed and the same crate and shipment
//   totals. A resend with different totals is treated as a correction and
//   processed again.
//
// BACKENDS:
//   - store/sqlite:   bun over mattn/go-sqlite3, single writer connection
//   - store/postgres: pgxpool
//
// =============================================================================

package store

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// DateLayout is the storage format of ManifestDate.
const DateLayout = "2006-01-02"

// Status is the processing state of a record.
type Status int

const (
	StatusNotProcessed Status = 0
	StatusProcessed    Status = 1
	StatusError        Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusError:
		return "error"
	}
	return "not_processed"
}

// ProcessedManifest is one conversion attempt.
type ProcessedManifest struct {
	bun.BaseModel `bun:"table:processed_manifests,alias:pm"`

	ID               string    `bun:"id,pk" json:"id"`
	ProcessedAt      time.Time `bun:"processed_at,notnull" json:"processedAt"`
	OriginalFilename string    `bun:"original_filename,notnull" json:"originalFilename"`
	ManifestDate     string    `bun:"manifest_date,notnull" json:"manifestDate"`
	Vendor           string    `bun:"vendor,notnull" json:"vendor"`
	TotalCrates      int       `bun:"total_crates,notnull" json:"totalCrates"`
	TotalShipments   int       `bun:"total_shipments,notnull" json:"totalShipments"`
	Status           Status    `bun:"status,notnull" json:"status"`
	LastError        string    `bun:"last_error,notnull" json:"lastError,omitempty"`
	ReceiptID        string    `bun:"receipt_id,notnull" json:"receiptId,omitempty"`
	ReceiptXML       string    `bun:"receipt_xml,notnull" json:"-"`
	ShipmentXML      string    `bun:"shipment_xml,notnull" json:"-"`
	// Delivered is set once the result notification has been sent.
	Delivered        bool      `bun:"delivered,notnull" json:"delivered"`
}

// SameTotals reports whether two records carry the same crate and shipment
// totals.
func (p *ProcessedManifest) SameTotals(other *ProcessedManifest) bool {
	return p.TotalCrates == other.TotalCrates && p.TotalShipments == other.TotalShipments
}

// Duplicates reports whether rec repeats this record: same date and vendor,
// Processed, and the same totals. A nil receiver never matches.
func (p *ProcessedManifest) Duplicates(rec *ProcessedManifest) bool {
	return p != nil && p.Status == StatusProcessed &&
		p.ManifestDate == rec.ManifestDate && p.Vendor == rec.Vendor && p.SameTotals(rec)
}

// FormatDate formats a manifest date for storage.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Store persists processed manifest records.
type Store interface {
	// Latest returns the newest Processed record for the date and vendor, or
	// nil when there is none. Error records are ignored.
	Latest(ctx context.Context, manifestDate, vendor string) (*ProcessedManifest, error)

	// Claim records rec unless a Processed record with the same date, vendor
	// and totals exists. The check and the write happen in one transaction.
	// It returns false and the existing record when rec is a duplicate.
	Claim(ctx context.Context, rec *ProcessedManifest) (bool, *ProcessedManifest, error)

	// Record inserts rec or replaces the record with the same ID.
	Record(ctx context.Context, rec *ProcessedManifest) error

	// MarkDelivered sets Delivered on the record with the given ID.
	MarkDelivered(ctx context.Context, id string) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]ProcessedManifest, error)

	Close() error
}
