package xmlwriter

import (
	"errors"
	"strconv"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/manifest"
)

var errNoManifest = errors.New("manifest is nil")

// PurchaseOrder mirrors the receipt header. It travels with the Receipt for
// callers that record it but is not part of the receipt document.
type PurchaseOrder struct {
	ID               string
	Prefix           string
	Date             string
	CreationDateTime string
	UserDef7         string
	UserDef8         string
	Quantity         string
	Company          company.Company
}

// Receipt is the inbound receipt for a whole manifest. Quantity is the total
// crate count of the manifest; receipts are not itemized per order.
type Receipt struct {
	CreationDateTime string
	UserDef7         string
	UserDef8         string
	ReceiptDate      string
	ReceiptID        string
	Quantity         string
	Company          company.Company
	PurchaseOrder    PurchaseOrder
}

// BuildReceipt projects a manifest into its Receipt.
//
// FIELD SOURCES:
//   - ReceiptID:   company receipt prefix + manifest date as ddMMyyyy
//   - UserDef7/8:  "0" + manifest date as yyyyMMdd
//   - ReceiptDate: manifest date at midnight
//   - Quantity:    total crates
func (g *Generator) BuildReceipt(m *manifest.OrderManifest) (Receipt, error) {
	if m == nil {
		return Receipt{}, &GenerationError{Document: "receipt", Err: errNoManifest}
	}
	c := m.Company()
	if !c.Valid() {
		return Receipt{}, &GenerationError{Document: "receipt", Err: errors.New("manifest has no company")}
	}

	date := m.ManifestDate()
	dateKey := "0" + date.Format("20060102")

	r := Receipt{
		CreationDateTime: g.now().Format(timestampLayout),
		UserDef7:         dateKey,
		UserDef8:         dateKey,
		ReceiptDate:      midnight(date).Format(timestampLayout),
		ReceiptID:        c.ReceiptPrefix() + date.Format("02012006"),
		Quantity:         strconv.Itoa(m.TotalCrates()),
		Company:          c,
	}
	r.PurchaseOrder = PurchaseOrder{
		ID:               r.ReceiptID,
		Prefix:           c.ReceiptPrefix(),
		Date:             r.ReceiptDate,
		CreationDateTime: r.CreationDateTime,
		UserDef7:         r.UserDef7,
		UserDef8:         r.UserDef8,
		Quantity:         r.Quantity,
		Company:          c,
	}
	return r, nil
}

// Element returns the <Receipt> element.
func (r Receipt) Element() XMLElement {
	code := r.Company.Code()
	return group("Receipt",
		leaf("Action", "NEW"),
		leaf("CreationDateTimeStamp", r.CreationDateTime),
		leaf("UserDef6", "Y"),
		leaf("UserDef7", r.UserDef7),
		leaf("UserDef8", r.UserDef8),
		leaf("UserStamp", "ILSSRV"),
		leaf("Company", code),
		leaf("ReceiptDate", r.ReceiptDate),
		leaf("ReceiptId", r.ReceiptID),
		leaf("ReceiptIdType", "PO"),
		group("Vendor",
			leaf("Company", code),
			leaf("ShipFrom", r.Company.VendorNumber()),
			group("ShipFromAddress",
				leaf("Name", r.Company.VendorName()),
			),
			leaf("SourceAddress", ""),
		),
		leaf("Warehouse", warehouse),
		group("Details",
			group("ReceiptDetail",
				leaf("Action", "NEW"),
				leaf("UserDef1", r.Company.VendorNumber()),
				leaf("UserDef6", r.ReceiptID),
				leaf("ErpOrderLineNum", "1"),
				group("SKU",
					leaf("Company", code),
					leaf("HarmCode", ""),
					leaf("Item", r.Company.SKUNumber()),
					leaf("Quantity", r.Quantity),
					leaf("QuantityUm", "UN"),
				),
			),
		),
	)
}

// GenerateReceipt builds the receipt for m and renders the Receipts document.
//
// RETURNS:
//   - The XML document.
//   - The Receipt it was rendered from.
//   - A *GenerationError if the manifest cannot produce a receipt.
func (g *Generator) GenerateReceipt(m *manifest.OrderManifest) ([]byte, Receipt, error) {
	r, err := g.BuildReceipt(m)
	if err != nil {
		return nil, Receipt{}, err
	}
	return marshalDocument(group("Receipts", r.Element())), r, nil
}
