// =============================================================================
// Manifest to Scale - Company Registry
// =============================================================================
//
// This module defines the fixed set of scale companies a manifest can be
// converted for. Each company carries an immutable identity tuple that the
// XML writer stamps into the Receipt and Shipment documents.
//
// COMPANIES:
//   FreshToGo  : PER-CO-FTG
//   AzuraFresh : PER-CO-CAF
//   ThemeGroup : PER-CO-CTG
//
// The set is closed. New companies are added here, never at runtime.
//
// =============================================================================

package company

import (
	"fmt"
	"strings"
)

// =============================================================================
// COMPANY ENUMERATION
// =============================================================================

// Company identifies one of the supported scale companies.
// The zero value is Unknown and is never valid for conversion.
type Company int

const (
	Unknown Company = iota
	FreshToGo
	AzuraFresh
	ThemeGroup
)

// Identity is the immutable tuple of identifiers written into scale files.
type Identity struct {
	// Code is the company code used in every Company element, e.g. "PER-CO-FTG".
	Code string

	// VendorNumber is written to Vendor/ShipFrom and ReceiptDetail/UserDef1.
	VendorNumber string

	// VendorName is written to Vendor/ShipFromAddress/Name.
	VendorName string

	// ReceiptPrefix is prepended to the ddMMyyyy manifest date to form the ReceiptId.
	ReceiptPrefix string

	// SKUNumber is the single item number all crates are received against.
	SKUNumber string

	// OrderType is the Shipment/OrderType value.
	OrderType string

	// ShipmentPrefix is prepended to the order number to form the ShipmentId.
	ShipmentPrefix string

	// Slug is the short lowercase name used in upload routes and file patterns.
	Slug string
}

var identities = map[Company]Identity{
	FreshToGo: {
		Code:           "PER-CO-FTG",
		VendorNumber:   "853540",
		VendorName:     "FRESH TO GO FOODS-853540",
		ReceiptPrefix:  "FTG/",
		SKUNumber:      "1111",
		OrderType:      "FTG",
		ShipmentPrefix: "CTG-",
		Slug:           "ftg",
	},
	AzuraFresh: {
		Code:           "PER-CO-CAF",
		VendorNumber:   "954111",
		VendorName:     "Azura Fresh NSW P/L",
		ReceiptPrefix:  "CAF/",
		SKUNumber:      "1111",
		OrderType:      "CAF",
		ShipmentPrefix: "CAF-",
		Slug:           "caf",
	},
	ThemeGroup: {
		Code:           "PER-CO-CTG",
		VendorNumber:   "853541",
		VendorName:     "THEME GROUP-853541",
		ReceiptPrefix:  "CTG/",
		SKUNumber:      "1111",
		OrderType:      "FTG",
		ShipmentPrefix: "CTG-",
		Slug:           "ctg",
	},
}

var names = map[Company]string{
	Unknown:    "Unknown",
	FreshToGo:  "FreshToGo",
	AzuraFresh: "AzuraFresh",
	ThemeGroup: "ThemeGroup",
}

// =============================================================================
// ACCESSORS
// =============================================================================

// All returns every valid company in declaration order.
func All() []Company {
	return []Company{FreshToGo, AzuraFresh, ThemeGroup}
}

// Valid reports whether c is one of the known companies.
func (c Company) Valid() bool {
	_, ok := identities[c]
	return ok
}

// Identity returns the identifier tuple for c. Unknown companies return
// the zero Identity.
func (c Company) Identity() Identity {
	return identities[c]
}

// String returns the variant name, not the company code.
func (c Company) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("Company(%d)", int(c))
}

func (c Company) Code() string           { return identities[c].Code }
func (c Company) VendorNumber() string   { return identities[c].VendorNumber }
func (c Company) VendorName() string     { return identities[c].VendorName }
func (c Company) ReceiptPrefix() string  { return identities[c].ReceiptPrefix }
func (c Company) SKUNumber() string      { return identities[c].SKUNumber }
func (c Company) OrderType() string      { return identities[c].OrderType }
func (c Company) ShipmentPrefix() string { return identities[c].ShipmentPrefix }
func (c Company) Slug() string           { return identities[c].Slug }

// DisplayName is the human readable name used in notification subjects.
func (c Company) DisplayName() string {
	switch c {
	case FreshToGo:
		return "Fresh To Go"
	case AzuraFresh:
		return "Azura Fresh"
	case ThemeGroup:
		return "Theme Group"
	}
	return "Unknown"
}

// =============================================================================
// PARSING
// =============================================================================

// Parse resolves s to a company. It accepts the variant name ("FreshToGo"),
// the company code ("PER-CO-FTG") or the slug ("ftg"), case-insensitively.
//
// RETURNS:
//   - The matching company.
//   - An error if s does not name a known company.
func Parse(s string) (Company, error) {
	key := strings.TrimSpace(s)
	if key == "" {
		return Unknown, fmt.Errorf("empty company name")
	}
	for _, c := range All() {
		id := identities[c]
		if strings.EqualFold(key, names[c]) ||
			strings.EqualFold(key, id.Code) ||
			strings.EqualFold(key, id.Slug) {
			return c, nil
		}
	}
	return Unknown, fmt.Errorf("unknown company %q", s)
}

// MarshalText writes the company code.
func (c Company) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", c)
	}
	return []byte(c.Code()), nil
}

// UnmarshalText accepts anything Parse accepts.
func (c *Company) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
