// =============================================================================
// Manifest to Scale - Tabular Manifest Parser
// =============================================================================
//
// This module parses tabular manifests (CSV exports, and XLSX workbooks after
// they have been normalized to rows by xlsxparser) into an OrderManifest.
//
// Supplier exports are hand-edited, so neither the header row nor the totals
// row sits at a fixed offset. The parser finds both by heuristic and reads only
// the data rows in between.
//
// PARSING PROCESS:
//   1. Read every row with a lenient CSV reader
//   2. Locate the header row (all nine labels, any order, any case)
//   3. Project each following row into canonical column order
//   4. Stop at the first row that looks like a totals row
//   5. Map each data row to a StoreOrder, skipping blank or broken rows
//   6. Drop orders with no crates or no identifiers
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/logging"
	"github.com/BryceStandley/ManifestToScale/internal/manifest"
)

// =============================================================================
// PARSER STRUCTURE
// =============================================================================

// Parser converts tabular manifests into OrderManifests.
type Parser struct {
	logger logging.Logger
}

// New creates a Parser. A nil logger discards output.
func New(logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Parser{logger: logger}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile reads a CSV file from disk and returns its manifest.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - c: The company the manifest belongs to.
//
// RETURNS:
//   - The parsed manifest.
//   - A *manifest.ParseError if the file cannot be read or parsed.
func (p *Parser) ParseFile(filePath string, c company.Company) (*manifest.OrderManifest, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, &manifest.ParseError{
			Source: filepath.Base(filePath),
			Kind:   manifest.KindUnreadable,
			Err:    fmt.Errorf("failed to open file: %w", err),
		}
	}
	defer file.Close()

	return p.Parse(file, filepath.Base(filePath), c)
}

// Parse reads CSV content from r.
//
// PARAMETERS:
//   - r: The CSV content.
//   - source: A name for the content used in errors and log lines.
//   - c: The company the manifest belongs to.
func (p *Parser) Parse(r io.Reader, source string, c company.Company) (*manifest.OrderManifest, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	csvReader := csv.NewReader(br)
	configureReader(csvReader)

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, &manifest.ParseError{
			Source: source,
			Kind:   manifest.KindUnreadable,
			Err:    fmt.Errorf("failed to read CSV: %w", err),
		}
	}

	return p.ParseRows(rows, source, c)
}

// ParseRows builds a manifest from rows that have already been split into
// cells. XLSX workbooks enter here after normalization.
//
// RETURNS:
//   - The parsed manifest.
//   - A *manifest.ParseError with kind HeaderNotFound, UnparseableDate or
//     NoOrders when the rows do not describe a manifest.
func (p *Parser) ParseRows(rows [][]string, source string, c company.Company) (*manifest.OrderManifest, error) {
	rows = stripBOM(rows)
	headerIndex, columns, ok := FindHeader(rows)
	if !ok {
		return nil, &manifest.ParseError{
			Source: source,
			Kind:   manifest.KindHeaderNotFound,
			Err:    fmt.Errorf("expected columns %s", strings.Join(ExpectedHeaders, ", ")),
		}
	}
	p.logger.Debug("%s: header found on row %d", source, headerIndex+1)

	var orders []manifest.StoreOrder
	for i := headerIndex + 1; i < len(rows); i++ {
		lineNumber := i + 1
		row := Canonicalize(rows[i], columns)

		if isRowEmpty(row) {
			continue
		}
		if IsTotalsRow(row) {
			p.logger.Debug("%s: totals row found on row %d", source, lineNumber)
			break
		}

		order, err := mapRow(row)
		if err != nil {
			var perr *manifest.ParseError
			if errors.As(err, &perr) {
				perr.Source = source
				perr.Line = lineNumber
				return nil, perr
			}
			p.logger.Warn("%s: skipping row %d: %v", source, lineNumber, err)
			continue
		}

		if !order.Admissible() {
			p.logger.Warn("%s: dropping row %d: %s", source, lineNumber, order.Reason())
			continue
		}
		orders = append(orders, order)
	}

	if len(orders) == 0 {
		return nil, &manifest.ParseError{
			Source: source,
			Kind:   manifest.KindNoOrders,
			Err:    manifest.ErrNoOrders,
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

// configureReader configures the CSV reader for supplier exports.
//
// Exports carry banner rows with fewer cells than the data table, and
// hand-edited cells with stray quotes, so both are tolerated.
func configureReader(reader *csv.Reader) {
	reader.Comma = ','
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// =============================================================================
// ROW MAPPING
// =============================================================================

// mapRow converts a canonical row into a StoreOrder.
//
// COLUMN ORDER:
//   0 Ship Date, 1 Store Num, 2 Store Name, 3 PO #, 4 Cust #,
//   5 Order #, 6 Inv #, 7 Qty, 8 Crates
//
// RETURNS:
//   - The order.
//   - A *manifest.ParseError for a present but unparseable date, which is
//     fatal for the file. Any other error means the row should be skipped.
func mapRow(row []string) (manifest.StoreOrder, error) {
	if row[colDate] == "" {
		return manifest.StoreOrder{}, fmt.Errorf("missing ship date")
	}
	date, err := ParseDate(row[colDate])
	if err != nil {
		return manifest.StoreOrder{}, err
	}

	qty, err := parseCount(row[colQty])
	if err != nil {
		return manifest.StoreOrder{}, fmt.Errorf("invalid quantity %q", row[colQty])
	}
	crates, err := parseCount(row[colCrates])
	if err != nil {
		return manifest.StoreOrder{}, fmt.Errorf("invalid crate count %q", row[colCrates])
	}

	return manifest.StoreOrder{
		OrderDate:      date,
		StoreNumber:    row[colStoreNum],
		StoreName:      row[colStoreName],
		PONumber:       row[colPO],
		CustomerNumber: row[colCust],
		OrderNumber:    row[colOrder],
		InvoiceNumber:  row[colInvoice],
		Quantity:       qty,
		CrateQuantity:  crates,
	}, nil
}

// parseCount accepts integers and, for spreadsheet exports, whole floats
// such as "3.0". Blank counts are zero.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// utf8BOM is written at the start of Excel's "CSV UTF-8" exports.
const utf8BOM = "\ufeff"

// stripBOM removes a byte order mark from the first cell of rows that did
// not come through Parse. The caller's rows are left untouched.
func stripBOM(rows [][]string) [][]string {
	if len(rows) == 0 || len(rows[0]) == 0 || !strings.HasPrefix(rows[0][0], utf8BOM) {
		return rows
	}
	first := append([]string(nil), rows[0]...)
	first[0] = strings.TrimPrefix(first[0], utf8BOM)

	out := make([][]string, len(rows))
	copy(out, rows)
	out[0] = first
	return out
}
