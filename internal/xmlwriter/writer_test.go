package xmlwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/manifest"
)

var fixedNow = time.Date(2025, 7, 7, 14, 30, 5, 0, time.UTC)

func testGenerator() *Generator {
	return &Generator{Now: func() time.Time { return fixedNow }}
}

func testManifest(t *testing.T, c company.Company) *manifest.OrderManifest {
	t.Helper()
	date := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	m, err := manifest.New(c, []manifest.StoreOrder{
		{OrderDate: date, StoreNumber: "32", StoreName: "GARDEN CITY", PONumber: "P1", CustomerNumber: "C1", OrderNumber: "77834", InvoiceNumber: "I1", Quantity: 3, CrateQuantity: 5},
		{OrderDate: date, StoreNumber: "4012", StoreName: "CANNINGTON, WA", PONumber: "P2", CustomerNumber: "C2", OrderNumber: "77835", InvoiceNumber: "I2", Quantity: 2, CrateQuantity: 7},
	})
	if err != nil {
		t.Fatalf("manifest.New: %v", err)
	}
	return m
}

// wellFormed decodes the whole document and fails on any syntax error.
func wellFormed(t *testing.T, doc []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("document is not well formed: %v\n%s", err, doc)
		}
	}
}

func TestBuildReceipt(t *testing.T) {
	r, err := testGenerator().BuildReceipt(testManifest(t, company.FreshToGo))
	if err != nil {
		t.Fatalf("BuildReceipt: %v", err)
	}
	if r.ReceiptID != "FTG/08072025" {
		t.Fatalf("ReceiptID = %q", r.ReceiptID)
	}
	if r.UserDef7 != "020250708" || r.UserDef8 != r.UserDef7 {
		t.Fatalf("UserDef7/8 = %q/%q", r.UserDef7, r.UserDef8)
	}
	if r.ReceiptDate != "2025-07-08T00:00:00" || r.CreationDateTime != "2025-07-07T14:30:05" {
		t.Fatalf("dates = %q, %q", r.ReceiptDate, r.CreationDateTime)
	}
	if r.Quantity != "12" {
		t.Fatalf("Quantity = %q, want total crates 12", r.Quantity)
	}
	if r.PurchaseOrder.ID != r.ReceiptID || r.PurchaseOrder.Prefix != "FTG/" {
		t.Fatalf("unexpected purchase order %+v", r.PurchaseOrder)
	}

	e := r.Element()
	if v, ok := e.Path("Vendor", "ShipFromAddress", "Name"); !ok || v.Value != "FRESH TO GO FOODS-853540" {
		t.Fatalf("vendor name = %+v", v)
	}
	if v, ok := e.Path("Details", "ReceiptDetail", "SKU", "Quantity"); !ok || v.Value != "12" {
		t.Fatalf("sku quantity = %+v", v)
	}
	if v, ok := e.Path("Details", "ReceiptDetail", "UserDef1"); !ok || v.Value != "853540" {
		t.Fatalf("detail vendor = %+v", v)
	}
}

func TestGenerateReceiptDocument(t *testing.T) {
	doc, _, err := testGenerator().GenerateReceipt(testManifest(t, company.AzuraFresh))
	if err != nil {
		t.Fatalf("GenerateReceipt: %v", err)
	}
	wellFormed(t, doc)

	s := string(doc)
	for _, want := range []string{
		`<?xml version="1.0" encoding="utf-8"?>` + "\n" + `<ns0:Receipts xmlns:ns0="http://www.manh.com/ILSNET/Interface">`,
		"<ns0:ReceiptId>CAF/08072025</ns0:ReceiptId>",
		"<ns0:Company>PER-CO-CAF</ns0:Company>",
		"<ns0:ShipFrom>954111</ns0:ShipFrom>",
		"<ns0:SourceAddress></ns0:SourceAddress>",
		"<ns0:HarmCode></ns0:HarmCode>",
		"<ns0:Quantity>12</ns0:Quantity>",
		"</ns0:Receipts>\n",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("receipt missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "/>") {
		t.Fatalf("receipt contains a self-closed element:\n%s", s)
	}
	if got := strings.Count(s, "<ns0:Receipt>"); got != 1 {
		t.Fatalf("expected one Receipt, got %d", got)
	}
}

func TestBuildShipments(t *testing.T) {
	tests := []struct {
		company   company.Company
		id        string
		orderType string
	}{
		{company.AzuraFresh, "CAF-77834", "CAF"},
		{company.FreshToGo, "CTG-77834", "FTG"},
	}
	for _, tc := range tests {
		t.Run(tc.company.String(), func(t *testing.T) {
			shipments, err := testGenerator().BuildShipments(testManifest(t, tc.company))
			if err != nil {
				t.Fatalf("BuildShipments: %v", err)
			}
			if len(shipments) != 2 {
				t.Fatalf("expected 2 shipments, got %d", len(shipments))
			}
			s := shipments[0]
			if s.ShipmentID != tc.id || s.OrderType != tc.orderType {
				t.Fatalf("shipment id/type = %q/%q", s.ShipmentID, s.OrderType)
			}
			if s.StoreNumber != "0032" || shipments[1].StoreNumber != "4012" {
				t.Fatalf("store numbers = %q, %q", s.StoreNumber, shipments[1].StoreNumber)
			}
			if s.OrderDate != "2025-07-08T00:00:00" || s.CrateQuantity != "5" || s.Quantity != "3" {
				t.Fatalf("unexpected shipment %+v", s)
			}
		})
	}
}

func TestGenerateShipmentsDocument(t *testing.T) {
	doc, _, err := testGenerator().GenerateShipments(testManifest(t, company.AzuraFresh))
	if err != nil {
		t.Fatalf("GenerateShipments: %v", err)
	}
	wellFormed(t, doc)

	s := string(doc)
	if got := strings.Count(s, "<ns0:Shipment>"); got != 2 {
		t.Fatalf("expected 2 Shipment elements, got %d", got)
	}
	if got := strings.Count(s, "<ns0:Shipments "); got != 1 {
		t.Fatalf("expected a single Shipments root, got %d", got)
	}
	for _, want := range []string{
		"<ns0:ShipmentId>CAF-77835</ns0:ShipmentId>",
		"<ns0:Customer>0032</ns0:Customer>",
		"<ns0:CustomerPO></ns0:CustomerPO>",
		"<ns0:ErpOrderLineNum>00001</ns0:ErpOrderLineNum>",
		"<ns0:Category1>1111</ns0:Category1>",
		"    <ns0:Carrier>\n      <ns0:Action>Save</ns0:Action>\n      <ns0:Carrier>TOLL</ns0:Carrier>\n    </ns0:Carrier>\n",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("shipments missing %q:\n%s", want, s)
		}
	}
}

func TestGenerateCSV(t *testing.T) {
	data, err := testGenerator().GenerateCSV(testManifest(t, company.FreshToGo))
	if err != nil {
		t.Fatalf("GenerateCSV: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(CSVHeader, ",") {
		t.Fatalf("header = %v", rows[0])
	}
	want := []string{"08/07/2025", "4012", "CANNINGTON, WA", "P2", "C2", "77835", "I2", "2", "7"}
	if strings.Join(rows[2], "|") != strings.Join(want, "|") {
		t.Fatalf("row = %v, want %v", rows[2], want)
	}
}

func TestNilManifest(t *testing.T) {
	g := testGenerator()
	var gerr *GenerationError

	if _, _, err := g.GenerateReceipt(nil); !errors.As(err, &gerr) || gerr.Document != "receipt" {
		t.Fatalf("receipt error = %v", err)
	}
	if _, _, err := g.GenerateShipments(nil); !errors.As(err, &gerr) || gerr.Document != "shipment" {
		t.Fatalf("shipment error = %v", err)
	}
	if _, err := g.GenerateCSV(nil); !errors.As(err, &gerr) || gerr.Document != "csv" {
		t.Fatalf("csv error = %v", err)
	}
}

func TestEscapeXML(t *testing.T) {
	if got := escapeXML(`A & B <"C">`); got != "A &amp; B &lt;&quot;C&quot;&gt;" {
		t.Fatalf("escapeXML = %q", got)
	}
}

func TestPadStoreNumber(t *testing.T) {
	for in, want := range map[string]string{"1": "0001", "32": "0032", "332": "0332", "4012": "4012", "12345": "12345"} {
		if got := PadStoreNumber(in); got != want {
			t.Fatalf("PadStoreNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
