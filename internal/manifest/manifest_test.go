package manifest

import (
	"errors"
	"testing"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/company"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleOrders() []StoreOrder {
	return []StoreOrder{
		{OrderDate: day(2025, 7, 8), StoreNumber: "332", StoreName: "GARDEN CITY", PONumber: "PO1", OrderNumber: "SO1", Quantity: 3, CrateQuantity: 5},
		{OrderDate: day(2025, 7, 8), StoreNumber: "401", StoreName: "CANNINGTON", PONumber: "PO2", OrderNumber: "SO2", Quantity: 2, CrateQuantity: 7},
	}
}

func TestNewDerivesTotalsAndDate(t *testing.T) {
	m, err := New(company.FreshToGo, sampleOrders())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.TotalOrders() != 2 {
		t.Fatalf("TotalOrders = %d, want 2", m.TotalOrders())
	}
	if m.TotalCrates() != 12 {
		t.Fatalf("TotalCrates = %d, want 12", m.TotalCrates())
	}
	if !m.ManifestDate().Equal(day(2025, 7, 8)) {
		t.Fatalf("ManifestDate = %v", m.ManifestDate())
	}
	if m.MixedDates() {
		t.Fatalf("expected no mixed dates")
	}
}

func TestNewRejectsEmptyAndUnknown(t *testing.T) {
	if _, err := New(company.FreshToGo, nil); !errors.Is(err, ErrNoOrders) {
		t.Fatalf("expected ErrNoOrders, got %v", err)
	}
	if _, err := New(company.Unknown, sampleOrders()); err == nil {
		t.Fatalf("expected error for unknown company")
	}
}

func TestOrdersReturnsCopy(t *testing.T) {
	m, _ := New(company.FreshToGo, sampleOrders())
	orders := m.Orders()
	orders[0].OrderNumber = "mutated"
	if m.Orders()[0].OrderNumber != "SO1" {
		t.Fatalf("manifest was mutated through Orders()")
	}
}

func TestWithOrderUpdatedLeavesReceiverUntouched(t *testing.T) {
	m, _ := New(company.FreshToGo, sampleOrders())
	key := OrderKey{OrderNumber: "SO2", StoreNumber: "401"}
	updated := m.WithOrderUpdated(key, func(o StoreOrder) StoreOrder {
		o.OrderNumber += "-401"
		return o
	})
	if m.Orders()[1].OrderNumber != "SO2" {
		t.Fatalf("receiver changed: %q", m.Orders()[1].OrderNumber)
	}
	if updated.Orders()[1].OrderNumber != "SO2-401" {
		t.Fatalf("update not applied: %q", updated.Orders()[1].OrderNumber)
	}
	if updated.TotalCrates() != m.TotalCrates() {
		t.Fatalf("crate totals diverged")
	}
}

func TestAdmissible(t *testing.T) {
	cases := []struct {
		name string
		o    StoreOrder
		want bool
	}{
		{"ok", StoreOrder{PONumber: "P", OrderNumber: "O", CrateQuantity: 1}, true},
		{"po only", StoreOrder{PONumber: "P", CrateQuantity: 1}, true},
		{"zero crates", StoreOrder{PONumber: "P", OrderNumber: "O"}, false},
		{"no ids", StoreOrder{CrateQuantity: 4}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.o.Admissible(); got != tc.want {
				t.Fatalf("Admissible = %v, want %v", got, tc.want)
			}
			if tc.want && tc.o.Reason() != "" {
				t.Fatalf("admissible order should have no reason")
			}
		})
	}
}

func TestMixedDates(t *testing.T) {
	orders := sampleOrders()
	orders[1].OrderDate = day(2025, 7, 9)
	m, _ := New(company.FreshToGo, orders)
	if !m.MixedDates() {
		t.Fatalf("expected mixed dates")
	}
	if !m.ManifestDate().Equal(day(2025, 7, 8)) {
		t.Fatalf("manifest date should come from the first order")
	}
}

func TestParseErrorMatchesSentinels(t *testing.T) {
	err := error(&ParseError{Source: "x.csv", Kind: KindHeaderNotFound})
	if !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("expected ErrHeaderNotFound match")
	}
	err = &ParseError{Source: "x.csv", Kind: KindUnparseableDate, Line: 4, Value: "31/31/2025"}
	if !errors.Is(err, ErrUnparseableDate) {
		t.Fatalf("expected ErrUnparseableDate match")
	}
	if got := err.Error(); got != `x.csv: unparseable date at line 4 ("31/31/2025")` {
		t.Fatalf("Error() = %q", got)
	}
}
