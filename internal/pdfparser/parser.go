// =============================================================================
// Manifest to Scale - PDF Manifest Parser
// =============================================================================
//
// This module parses Fresh To Go cross dock manifest PDFs into an
// OrderManifest.
//
// PARSING PROCESS:
//   1. Flatten every page onto one virtual page and extract text lines
//   2. Strip report boilerplate (titles, page footers, signature blocks)
//   3. Re-prepend a single canonical header line
//   4. Tokenize each remaining line by whitespace, reading the numeric tail
//      right to left
//   5. Build the manifest; its date is the first order's date
//
// LINE FORMAT:
//   02/06/2025 0332 COLES S/M GARDEN CITY 25486091V 50113007 SO77834 INV169570 3.0 1
//   date       store  store name (any words)   PO   cust     order   invoice   qty crates
//
// LIMITATIONS:
//   Only text drawn directly in page content streams is read. Form XObjects
//   invoked with Do are not followed, and string bytes are decoded as
//   Latin-1, so text in composite (Type0, Identity-H) fonts comes out
//   garbled. Such reports fail with ErrNoOrders or a malformed line error.
//
// =============================================================================

package pdfparser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/logging"
	"github.com/BryceStandley/ManifestToScale/internal/manifest"
)

// Header is the canonical header line placed at the top of stripped text.
const Header = "ShipDate StoreNum StoreName PO# Cust# Order# Inv# Qty Crates"

// dateLayout accepts one or two digit days.
const dateLayout = "2/01/2006"

// minFields is date, store number, and the six tail fields. The store name
// may be empty.
const minFields = 8

// boilerplate lists substrings marking lines that are not order rows.
var boilerplate = []string{
	"Fresh To Go Foods Pty Ltd Cross Dock Manifest",
	"Manifest Group:",
	"Page: ",
	"Total ",
	"Receiver Name:",
	"Signature:",
	"Temperature:",
	"Dollies/Pallets:",
	Header,
}

// =============================================================================
// PARSER STRUCTURE
// =============================================================================

// Parser converts manifest PDFs into OrderManifests.
type Parser struct {
	extractor TextExtractor
	logger    logging.Logger
}

// New creates a Parser. A nil extractor uses PdfcpuExtractor.
func New(logger logging.Logger, extractor TextExtractor) *Parser {
	if logger == nil {
		logger = logging.Nop()
	}
	if extractor == nil {
		extractor = PdfcpuExtractor{}
	}
	return &Parser{extractor: extractor, logger: logger}
}

// Parse extracts and parses a manifest PDF.
//
// PARAMETERS:
//   - ctx: Cancels extraction between pages.
//   - data: The PDF bytes.
//   - source: A name for the document used in errors and log lines.
//   - c: The company the manifest belongs to.
//
// RETURNS:
//   - The parsed manifest.
//   - A *manifest.ParseError if the PDF cannot be read or holds no orders.
func (p *Parser) Parse(ctx context.Context, data []byte, source string, c company.Company) (*manifest.OrderManifest, error) {
	text, err := p.extractor.Extract(ctx, data)
	if err != nil {
		return nil, &manifest.ParseError{Source: source, Kind: manifest.KindUnreadable, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &manifest.ParseError{
			Source: source,
			Kind:   manifest.KindUnreadable,
			Err:    fmt.Errorf("no text found in PDF"),
		}
	}
	p.logger.Debug("%s: extracted %d lines", source, strings.Count(text, "\n")+1)

	return p.ParseText(StripBoilerplate(text), source, c)
}

// ParseText parses already extracted text. Lines that are too short to be
// order rows are skipped with a warning; a row with a bad date or count is a
// parse error.
func (p *Parser) ParseText(text, source string, c company.Company) (*manifest.OrderManifest, error) {
	var orders []manifest.StoreOrder
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, Header) {
			continue
		}

		if len(strings.Fields(line)) < minFields {
			p.logger.Warn("%s: skipping line %d, not an order row: %q", source, i+1, line)
			continue
		}

		order, err := ParseLine(line)
		if err != nil {
			if perr, ok := err.(*manifest.ParseError); ok {
				perr.Source = source
				perr.Line = i + 1
				return nil, perr
			}
			return nil, &manifest.ParseError{Source: source, Kind: manifest.KindMalformedLine, Line: i + 1, Value: line, Err: err}
		}

		if !order.Admissible() {
			p.logger.Warn("%s: dropping line %d: %s", source, i+1, order.Reason())
			continue
		}
		orders = append(orders, order)
	}

	if len(orders) == 0 {
		return nil, &manifest.ParseError{
			Source: source,
			Kind:   manifest.KindNoOrders,
			Err:    fmt.Errorf("%w: text in form XObjects or composite fonts is not read", manifest.ErrNoOrders),
		}
	}

	m, err := manifest.New(c, orders)
	if err != nil {
		return nil, &manifest.ParseError{Source: source, Kind: manifest.KindNoOrders, Err: err}
	}
	if m.MixedDates() {
		p.logger.Warn("%s: orders span more than one date, using %s", source, m.ManifestDate().Format("02/01/2006"))
	}
	p.logger.Info("%s: parsed %d orders, %d crates", source, m.TotalOrders(), m.TotalCrates())
	return m, nil
}

// =============================================================================
// TEXT CLEANUP
// =============================================================================

// StripBoilerplate removes report furniture from extracted text, trims and
// drops blank lines, then puts one canonical header line on top.
func StripBoilerplate(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	kept := []string{Header}
	for _, line := range strings.Split(text, "\n") {
		if isBoilerplate(line) {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isBoilerplate(line string) bool {
	for _, marker := range boilerplate {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// =============================================================================
// LINE TOKENIZATION
// =============================================================================

// ParseLine converts one manifest row into a StoreOrder. The first two fields
// are the date and store number; the last six are read right to left as
// crates, quantity, invoice, order, customer and PO. Everything between is the
// store name.
func ParseLine(line string) (manifest.StoreOrder, error) {
	parts := strings.Fields(line)
	n := len(parts)
	if n < minFields {
		return manifest.StoreOrder{}, &manifest.ParseError{
			Kind:  manifest.KindMalformedLine,
			Value: line,
			Err:   fmt.Errorf("expected at least %d fields, got %d", minFields, n),
		}
	}

	date, err := time.Parse(dateLayout, parts[0])
	if err != nil {
		return manifest.StoreOrder{}, &manifest.ParseError{
			Kind:  manifest.KindUnparseableDate,
			Value: parts[0],
			Err:   manifest.ErrUnparseableDate,
		}
	}

	crates, err := parseCrates(parts[n-1])
	if err != nil {
		return manifest.StoreOrder{}, &manifest.ParseError{
			Kind:  manifest.KindMalformedLine,
			Value: parts[n-1],
			Err:   fmt.Errorf("invalid crate count: %w", err),
		}
	}

	qty, err := strconv.ParseFloat(parts[n-2], 64)
	if err != nil {
		return manifest.StoreOrder{}, &manifest.ParseError{
			Kind:  manifest.KindMalformedLine,
			Value: parts[n-2],
			Err:   fmt.Errorf("invalid quantity: %w", err),
		}
	}

	return manifest.StoreOrder{
		OrderDate:      date,
		StoreNumber:    parts[1],
		StoreName:      strings.Join(parts[2:n-6], " "),
		PONumber:       parts[n-6],
		CustomerNumber: parts[n-5],
		OrderNumber:    parts[n-4],
		InvoiceNumber:  parts[n-3],
		Quantity:       int(qty),
		CrateQuantity:  crates,
	}, nil
}

func parseCrates(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
