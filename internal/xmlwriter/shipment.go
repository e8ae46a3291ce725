package xmlwriter

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/manifest"
)

// Shipment is the outbound shipment for one store order.
type Shipment struct {
	CreationDate   string
	OrderDate      string
	StoreNumber    string
	PONumber       string
	ShipmentID     string
	CustomerNumber string
	Quantity       string
	CrateQuantity  string
	OrderType      string
	Company        company.Company
}

// BuildShipments projects each order of m into a Shipment, in manifest order.
func (g *Generator) BuildShipments(m *manifest.OrderManifest) ([]Shipment, error) {
	if m == nil {
		return nil, &GenerationError{Document: "shipment", Err: errNoManifest}
	}
	c := m.Company()
	if !c.Valid() {
		return nil, &GenerationError{Document: "shipment", Err: errors.New("manifest has no company")}
	}

	created := g.now().Format(timestampLayout)
	orderDate := midnight(m.ManifestDate()).Format(timestampLayout)

	orders := m.Orders()
	shipments := make([]Shipment, 0, len(orders))
	for _, o := range orders {
		shipments = append(shipments, Shipment{
			CreationDate:   created,
			OrderDate:      orderDate,
			StoreNumber:    PadStoreNumber(o.StoreNumber),
			PONumber:       o.PONumber,
			ShipmentID:     c.ShipmentPrefix() + o.OrderNumber,
			CustomerNumber: o.CustomerNumber,
			Quantity:       strconv.Itoa(o.Quantity),
			CrateQuantity:  strconv.Itoa(o.CrateQuantity),
			OrderType:      c.OrderType(),
			Company:        c,
		})
	}
	return shipments, nil
}

// Element returns the <Shipment> element.
func (s Shipment) Element() XMLElement {
	code := s.Company.Code()
	return group("Shipment",
		leaf("Action", "SAVE"),
		leaf("CreationDateTimeStamp", s.CreationDate),
		leaf("UserDef1", s.Quantity),
		leaf("UserDef2", s.CustomerNumber),
		leaf("UserDef7", "0"),
		leaf("UserDef8", "0"),
		leaf("UserStamp", "INTERFACE"),
		group("Carrier",
			leaf("Action", "Save"),
			leaf("Carrier", "TOLL"),
		),
		group("Customer",
			leaf("Company", code),
			leaf("Customer", s.StoreNumber),
			leaf("FreightBillTo", s.StoreNumber),
		),
		leaf("CustomerPO", ""),
		leaf("ErpOrder", s.PONumber),
		leaf("OrderDate", s.OrderDate),
		leaf("OrderType", s.OrderType),
		leaf("PlannedShipDate", s.OrderDate),
		leaf("ScheduledShipDate", s.OrderDate),
		leaf("ShipmentId", s.ShipmentID),
		leaf("Warehouse", warehouse),
		group("Details",
			group("ShipmentDetail",
				leaf("Action", "SAVE"),
				leaf("CreationDateTimeStamp", s.CreationDate),
				leaf("ErpOrder", s.PONumber),
				leaf("ErpOrderLineNum", "00001"),
				group("SKU",
					leaf("Company", code),
					leaf("Item", s.Company.SKUNumber()),
					group("ItemCategories",
						leaf("Category1", s.Company.SKUNumber()),
					),
					leaf("Quantity", s.CrateQuantity),
					leaf("QuantityUm", "UN"),
				),
			),
		),
	)
}

// GenerateShipments renders one Shipments document holding a Shipment per
// order of m.
func (g *Generator) GenerateShipments(m *manifest.OrderManifest) ([]byte, []Shipment, error) {
	shipments, err := g.BuildShipments(m)
	if err != nil {
		return nil, nil, err
	}

	root := group("Shipments")
	for _, s := range shipments {
		root.Children = append(root.Children, s.Element())
	}
	return marshalDocument(root), shipments, nil
}

// PadStoreNumber left-pads store numbers shorter than four digits with zeros.
func PadStoreNumber(store string) string {
	if len(store) >= 4 {
		return store
	}
	return strings.Repeat("0", 4-len(store)) + store
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
