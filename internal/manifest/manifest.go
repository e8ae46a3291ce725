// =============================================================================
// Manifest to Scale - Manifest Model
// =============================================================================
//
// This package contains the normalized manifest model shared by every parser,
// the validator and the XML writer. Types defined here are used by:
//   - csvparser / pdfparser (producers)
//   - validation
//   - xmlwriter
//   - converter
//
// A manifest is a company plus a non-empty list of store orders. It is never
// mutated after construction; updates return a new manifest.
//
// =============================================================================

package manifest

import (
	"fmt"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/company"
)

// =============================================================================
// STORE ORDER
// =============================================================================

// StoreOrder is one store's order line on a freight manifest.
type StoreOrder struct {
	// OrderDate is the manifest ship date for this line.
	OrderDate time.Time

	// StoreNumber is the store identifier as printed, e.g. "0332".
	StoreNumber string

	// StoreName is the store's display name.
	StoreName string

	// PONumber is the purchase order number.
	PONumber string

	// CustomerNumber is the customer PO / account number.
	CustomerNumber string

	// OrderNumber is the supplier's order number. Unique within a valid manifest.
	OrderNumber string

	// InvoiceNumber is optional.
	InvoiceNumber string

	// Quantity is the number of units ordered.
	Quantity int

	// CrateQuantity is the number of crates shipped.
	CrateQuantity int
}

// Admissible reports whether the order may enter a manifest. Orders with no
// crates, or with neither a PO nor an order number, are dropped by parsers.
func (o StoreOrder) Admissible() bool {
	if o.CrateQuantity == 0 {
		return false
	}
	if o.PONumber == "" && o.OrderNumber == "" {
		return false
	}
	return true
}

// Reason explains why an order is not admissible. It returns "" for
// admissible orders.
func (o StoreOrder) Reason() string {
	switch {
	case o.CrateQuantity == 0:
		return fmt.Sprintf("order %q for store %s has zero crates", o.OrderNumber, o.StoreNumber)
	case o.PONumber == "" && o.OrderNumber == "":
		return fmt.Sprintf("order for store %s has no PO or order number", o.StoreNumber)
	}
	return ""
}

// Key returns the identity used by WithOrderUpdated.
func (o StoreOrder) Key() OrderKey {
	return OrderKey{OrderNumber: o.OrderNumber, StoreNumber: o.StoreNumber}
}

// OrderKey identifies an order within a manifest.
type OrderKey struct {
	OrderNumber string
	StoreNumber string
}

// =============================================================================
// ORDER MANIFEST
// =============================================================================

// OrderManifest is the aggregate of all orders for one company on one date.
type OrderManifest struct {
	company      company.Company
	manifestDate time.Time
	orders       []StoreOrder
}

// New builds a manifest. The manifest date is taken from the first order;
// later orders are not cross-checked against it.
//
// PARAMETERS:
//   - c: The scale company the manifest belongs to.
//   - orders: The admitted orders, in source order.
//
// RETURNS:
//   - The manifest.
//   - An error if the company is unknown or there are no orders.
func New(c company.Company, orders []StoreOrder) (*OrderManifest, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot build manifest for %s", c)
	}
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}
	owned := make([]StoreOrder, len(orders))
	copy(owned, orders)
	return &OrderManifest{
		company:      c,
		manifestDate: owned[0].OrderDate,
		orders:       owned,
	}, nil
}

// Company returns the manifest's scale company.
func (m *OrderManifest) Company() company.Company { return m.company }

// ManifestDate returns the date taken from the first order.
func (m *OrderManifest) ManifestDate() time.Time { return m.manifestDate }

// Orders returns a copy of the manifest's orders.
func (m *OrderManifest) Orders() []StoreOrder {
	out := make([]StoreOrder, len(m.orders))
	copy(out, m.orders)
	return out
}

// TotalOrders is the number of order lines.
func (m *OrderManifest) TotalOrders() int {
	if m == nil {
		return 0
	}
	return len(m.orders)
}

// TotalCrates is the sum of CrateQuantity over all orders.
func (m *OrderManifest) TotalCrates() int {
	if m == nil {
		return 0
	}
	total := 0
	for _, o := range m.orders {
		total += o.CrateQuantity
	}
	return total
}

// WithOrderUpdated returns a new manifest in which every order matching key
// is replaced by fn(order). The receiver is left untouched. The manifest
// date is recomputed from the first order of the result.
func (m *OrderManifest) WithOrderUpdated(key OrderKey, fn func(StoreOrder) StoreOrder) *OrderManifest {
	orders := m.Orders()
	for i, o := range orders {
		if o.Key() == key {
			orders[i] = fn(o)
		}
	}
	return &OrderManifest{
		company:      m.company,
		manifestDate: orders[0].OrderDate,
		orders:       orders,
	}
}

// MixedDates reports whether any order carries a date other than the
// manifest date.
func (m *OrderManifest) MixedDates() bool {
	for _, o := range m.orders {
		if !sameDay(o.OrderDate, m.manifestDate) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
