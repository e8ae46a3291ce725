package company

import "testing"

func TestIdentityLookupIsStable(t *testing.T) {
	for _, c := range All() {
		first := c.Identity()
		second := c.Identity()
		if first != second {
			t.Fatalf("%s: identity changed between lookups: %+v vs %+v", c, first, second)
		}
		if first.Code == "" || first.VendorNumber == "" || first.ReceiptPrefix == "" {
			t.Fatalf("%s: incomplete identity %+v", c, first)
		}
	}
}

func TestKnownIdentities(t *testing.T) {
	ftg := FreshToGo.Identity()
	if ftg.Code != "PER-CO-FTG" || ftg.VendorNumber != "853540" ||
		ftg.VendorName != "FRESH TO GO FOODS-853540" || ftg.ReceiptPrefix != "FTG/" || ftg.SKUNumber != "1111" {
		t.Fatalf("unexpected FreshToGo identity: %+v", ftg)
	}
	caf := AzuraFresh.Identity()
	if caf.Code != "PER-CO-CAF" || caf.VendorNumber != "954111" || caf.VendorName != "Azura Fresh NSW P/L" {
		t.Fatalf("unexpected AzuraFresh identity: %+v", caf)
	}
	if AzuraFresh.ShipmentPrefix() != "CAF-" || AzuraFresh.OrderType() != "CAF" {
		t.Fatalf("AzuraFresh shipments should route CAF, got %q/%q", AzuraFresh.ShipmentPrefix(), AzuraFresh.OrderType())
	}
	for _, c := range []Company{FreshToGo, ThemeGroup} {
		if c.ShipmentPrefix() != "CTG-" || c.OrderType() != "FTG" {
			t.Fatalf("%s shipments should route CTG/FTG, got %q/%q", c, c.ShipmentPrefix(), c.OrderType())
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Company
	}{
		{"FreshToGo", FreshToGo},
		{"freshtogo", FreshToGo},
		{"PER-CO-FTG", FreshToGo},
		{"ftg", FreshToGo},
		{" CAF ", AzuraFresh},
		{"per-co-caf", AzuraFresh},
		{"ThemeGroup", ThemeGroup},
		{"ctg", ThemeGroup},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Parse(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}

	for _, bad := range []string{"", "acme", "PER-CO-XYZ"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("Parse(%q) should fail", bad)
		}
	}
}

func TestUnknownIsInvalid(t *testing.T) {
	if Unknown.Valid() {
		t.Fatalf("Unknown must not be valid")
	}
	if Unknown.Code() != "" {
		t.Fatalf("Unknown should have no code, got %q", Unknown.Code())
	}
	if _, err := Unknown.MarshalText(); err == nil {
		t.Fatalf("marshalling Unknown should fail")
	}
}

func TestTextRoundTrip(t *testing.T) {
	b, err := AzuraFresh.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "PER-CO-CAF" {
		t.Fatalf("MarshalText = %q", b)
	}
	var c Company
	if err := c.UnmarshalText(b); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if c != AzuraFresh {
		t.Fatalf("round trip gave %s", c)
	}
}
