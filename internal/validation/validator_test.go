package validation

import (
	"testing"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/manifest"
)

func build(t *testing.T, orders ...manifest.StoreOrder) *manifest.OrderManifest {
	t.Helper()
	for i := range orders {
		orders[i].OrderDate = time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	}
	m, err := manifest.New(company.AzuraFresh, orders)
	if err != nil {
		t.Fatalf("manifest.New: %v", err)
	}
	return m
}

func TestValidManifest(t *testing.T) {
	m := build(t,
		manifest.StoreOrder{StoreNumber: "1", PONumber: "P1", OrderNumber: "O1", CrateQuantity: 2},
		manifest.StoreOrder{StoreNumber: "2", PONumber: "P2", OrderNumber: "O2", CrateQuantity: 3},
	)
	for _, mode := range []Mode{ModeReport, ModeRepair} {
		res := Validate(m, mode)
		if !res.Valid || res.Message != "" || res.Repaired != nil || res.Err != nil {
			t.Fatalf("%s: unexpected result %+v", mode, res)
		}
		if res.Manifest(m) != m {
			t.Fatalf("%s: Manifest() should return the original", mode)
		}
	}
}

func TestEmptyManifest(t *testing.T) {
	res := Validate(nil, ModeRepair)
	if res.Valid || res.Message != MessageEmpty || res.Err.Kind != KindEmpty {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDuplicateReportedInReportMode(t *testing.T) {
	m := build(t,
		manifest.StoreOrder{StoreNumber: "1", PONumber: "P1", OrderNumber: "SO1", CrateQuantity: 2},
		manifest.StoreOrder{StoreNumber: "2", PONumber: "P1", OrderNumber: "SO1", CrateQuantity: 3},
	)
	res := Validate(m, ModeReport)
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if res.Message != "Duplicate order found: SO1" {
		t.Fatalf("message = %q", res.Message)
	}
	if res.Err.Kind != KindDuplicateOrder || res.Err.OrderNumber != "SO1" {
		t.Fatalf("unexpected error %+v", res.Err)
	}
}

func TestDuplicateRepairedInRepairMode(t *testing.T) {
	m := build(t,
		manifest.StoreOrder{StoreNumber: "332", PONumber: "P1", OrderNumber: "SO1", CrateQuantity: 2},
		manifest.StoreOrder{StoreNumber: "401", PONumber: "P1", OrderNumber: "SO1", CrateQuantity: 3},
		manifest.StoreOrder{StoreNumber: "500", PONumber: "P9", OrderNumber: "SO9", CrateQuantity: 1},
	)
	res := Validate(m, ModeRepair)
	if !res.Valid {
		t.Fatalf("expected valid after repair, got %+v", res)
	}
	if res.Repaired == nil || res.Message == "" {
		t.Fatalf("expected repaired manifest and message, got %+v", res)
	}

	orders := res.Repaired.Orders()
	if orders[0].OrderNumber != "SO1-332" || orders[0].PONumber != "P1-332" {
		t.Fatalf("first order not repaired: %+v", orders[0])
	}
	if orders[1].OrderNumber != "SO1-401" || orders[1].PONumber != "P1-401" {
		t.Fatalf("second order not repaired: %+v", orders[1])
	}
	if orders[2].OrderNumber != "SO9" || orders[2].PONumber != "P9" {
		t.Fatalf("unrelated order changed: %+v", orders[2])
	}

	// The input manifest is untouched.
	if m.Orders()[0].OrderNumber != "SO1" {
		t.Fatalf("original manifest was mutated")
	}
	if res.Manifest(m) != res.Repaired {
		t.Fatalf("Manifest() should return the repaired manifest")
	}
	if again := Validate(res.Repaired, ModeReport); !again.Valid {
		t.Fatalf("repaired manifest should validate cleanly, got %+v", again)
	}
}

func TestRepairFailsWhenDuplicatesRemain(t *testing.T) {
	tests := []struct {
		name   string
		orders []manifest.StoreOrder
	}{
		{
			name: "same store",
			orders: []manifest.StoreOrder{
				{StoreNumber: "1", PONumber: "P1", OrderNumber: "100", CrateQuantity: 2},
				{StoreNumber: "1", PONumber: "P2", OrderNumber: "100", CrateQuantity: 3},
			},
		},
		{
			name: "suffix collides with existing order",
			orders: []manifest.StoreOrder{
				{StoreNumber: "1", PONumber: "P1", OrderNumber: "100", CrateQuantity: 2},
				{StoreNumber: "2", PONumber: "P2", OrderNumber: "100", CrateQuantity: 3},
				{StoreNumber: "9", PONumber: "P3", OrderNumber: "100-1", CrateQuantity: 1},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(build(t, tt.orders...), ModeRepair)
			if res.Valid || res.Repaired != nil {
				t.Fatalf("expected invalid, got %+v", res)
			}
			if res.Err.Kind != KindDuplicateOrder || res.Message != "Duplicate order found: 100-1" {
				t.Fatalf("unexpected result %+v", res.Err)
			}
		})
	}
}
