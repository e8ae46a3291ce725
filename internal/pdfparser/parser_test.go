package pdfparser

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/logging"
	"github.com/BryceStandley/ManifestToScale/internal/manifest"
	"github.com/jung-kurt/gofpdf"
)

const sampleLine = "02/06/2025 0332 COLES S/M GARDEN CITY 25486091V 50113007 SO77834 INV169570 3.0 1"

func TestParseLineReadsTailRightToLeft(t *testing.T) {
	o, err := ParseLine(sampleLine)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	want := manifest.StoreOrder{
		OrderDate:      time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		StoreNumber:    "0332",
		StoreName:      "COLES S/M GARDEN CITY",
		PONumber:       "25486091V",
		CustomerNumber: "50113007",
		OrderNumber:    "SO77834",
		InvoiceNumber:  "INV169570",
		Quantity:       3,
		CrateQuantity:  1,
	}
	if o != want {
		t.Fatalf("ParseLine =\n%+v\nwant\n%+v", o, want)
	}
}

func TestParseLineErrors(t *testing.T) {
	cases := []struct {
		name string
		line string
		kind manifest.ParseErrorKind
	}{
		{"short", "02/06/2025 0332 X", manifest.KindMalformedLine},
		{"bad date", "2025-06-02 0332 COLES P C O I 3.0 1", manifest.KindUnparseableDate},
		{"bad crates", "02/06/2025 0332 COLES P C O I 3.0 many", manifest.KindMalformedLine},
		{"bad qty", "02/06/2025 0332 COLES P C O I lots 1", manifest.KindMalformedLine},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLine(tc.line)
			var perr *manifest.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if perr.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s", perr.Kind, tc.kind)
			}
		})
	}
}

func TestStripBoilerplate(t *testing.T) {
	raw := strings.Join([]string{
		"Fresh To Go Foods Pty Ltd Cross Dock Manifest",
		"Manifest Group: PERTH",
		"ShipDate StoreNum StoreName PO# Cust# Order# Inv# Qty Crates",
		"   " + sampleLine + "   ",
		"",
		"Page: 1 of 2",
		"Total Crates: 1",
		"Receiver Name: ______",
		"Signature: ______",
		"Temperature: 3C",
		"Dollies/Pallets: 2",
	}, "\r\n")

	got := StripBoilerplate(raw)
	want := Header + "\n" + sampleLine
	if got != want {
		t.Fatalf("StripBoilerplate =\n%q\nwant\n%q", got, want)
	}
}

type fixedExtractor string

func (f fixedExtractor) Extract(context.Context, []byte) (string, error) { return string(f), nil }

func TestParseWithSubstitutedExtractor(t *testing.T) {
	text := strings.Join([]string{
		"Fresh To Go Foods Pty Ltd Cross Dock Manifest",
		sampleLine,
		"02/06/2025 0401 COLES CANNINGTON 25486092V 50113008 SO77835 INV169571 6.0 4",
		"02/06/2025 0402 ZERO CRATES 25486093V 50113009 SO77836 INV169572 1.0 0",
		"Printed by ops",
	}, "\n")

	rec := logging.NewRecorder(logging.LevelWarn)
	p := New(logging.Tee(logging.Nop(), rec.Sink()), fixedExtractor(text))

	m, err := p.Parse(context.Background(), nil, "manifest.pdf", company.FreshToGo)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.TotalOrders() != 2 || m.TotalCrates() != 5 {
		t.Fatalf("totals = %d orders / %d crates, want 2 / 5", m.TotalOrders(), m.TotalCrates())
	}
	if len(rec.Lines()) != 2 {
		t.Fatalf("expected warnings for the zero crate row and the stray line, got %v", rec.Lines())
	}
}

func TestParseEmptyText(t *testing.T) {
	p := New(nil, fixedExtractor("  \n"))
	_, err := p.Parse(context.Background(), nil, "blank.pdf", company.FreshToGo)
	var perr *manifest.ParseError
	if !errors.As(err, &perr) || perr.Kind != manifest.KindUnreadable {
		t.Fatalf("expected unreadable ParseError, got %v", err)
	}
}

func TestParseOnlyBoilerplate(t *testing.T) {
	p := New(nil, fixedExtractor("Manifest Group: X\nPage: 1"))
	_, err := p.Parse(context.Background(), nil, "empty.pdf", company.FreshToGo)
	if !errors.Is(err, manifest.ErrNoOrders) {
		t.Fatalf("expected ErrNoOrders, got %v", err)
	}
	if !strings.Contains(err.Error(), "form XObjects") {
		t.Fatalf("error should name the unread content, got %q", err)
	}
}

// writeManifestPDF renders a two page manifest. Each row is written as
// separate cells, the way the report generator lays it out.
func writeManifestPDF(t *testing.T, rows [][]string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 9)

	columns := []float64{20, 80, 120, 300, 360, 420, 480, 530, 560}
	perPage := (len(rows) + 1) / 2
	for i, row := range rows {
		if i%perPage == 0 {
			pdf.AddPage()
			pdf.Text(20, 30, "Fresh To Go Foods Pty Ltd Cross Dock Manifest")
			pdf.Text(20, 45, "Manifest Group: PERTH")
			for c, label := range strings.Fields(Header) {
				pdf.Text(columns[c], 60, label)
			}
			pdf.Text(20, 800, "Page: 1")
		}
		y := 80 + float64(i%perPage)*15
		for c, cell := range row {
			pdf.Text(columns[c], y, cell)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("render PDF: %v", err)
	}
	return buf.Bytes()
}

func TestParseRealPDFAcrossPages(t *testing.T) {
	rows := [][]string{
		{"02/06/2025", "0332", "COLES S/M GARDEN CITY", "25486091V", "50113007", "SO77834", "INV169570", "3.0", "1"},
		{"02/06/2025", "0401", "COLES CANNINGTON", "25486092V", "50113008", "SO77835", "INV169571", "6.0", "4"},
		{"02/06/2025", "0510", "WOOLWORTHS MORLEY", "25486093V", "50113009", "SO77836", "INV169572", "2.0", "2"},
		{"02/06/2025", "0511", "WOOLWORTHS BASSENDEAN", "25486094V", "50113010", "SO77837", "INV169573", "8.0", "3"},
	}
	data := writeManifestPDF(t, rows)

	m, err := New(nil, nil).Parse(context.Background(), data, "manifest.pdf", company.FreshToGo)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.TotalOrders() != 4 {
		t.Fatalf("TotalOrders = %d, want 4: %+v", m.TotalOrders(), m.Orders())
	}
	if m.TotalCrates() != 10 {
		t.Fatalf("TotalCrates = %d, want 10", m.TotalCrates())
	}

	orders := m.Orders()
	for i, row := range rows {
		if orders[i].StoreNumber != row[1] || orders[i].StoreName != row[2] || orders[i].OrderNumber != row[5] {
			t.Fatalf("order %d out of order or mangled: %+v", i, orders[i])
		}
	}
}

func TestParseRejectsNonPDF(t *testing.T) {
	_, err := New(nil, nil).Parse(context.Background(), []byte("hello"), "x.pdf", company.FreshToGo)
	var perr *manifest.ParseError
	if !errors.As(err, &perr) || perr.Kind != manifest.KindUnreadable {
		t.Fatalf("expected unreadable ParseError, got %v", err)
	}
}
