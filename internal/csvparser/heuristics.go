package csvparser

import (
	"strconv"
	"strings"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/manifest"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// CANONICAL COLUMNS
// =============================================================================

// ExpectedHeaders are the labels a header row must contain, in canonical order.
var ExpectedHeaders = []string{
	"Ship Date", "Store Num", "Store Name", "PO #", "Cust #",
	"Order #", "Inv #", "Qty", "Crates",
}

const (
	colDate = iota
	colStoreNum
	colStoreName
	colPO
	colCust
	colOrder
	colInvoice
	colQty
	colCrates
)

// totalsBlankRatio is the minimum share of blank leading cells in a totals row.
const totalsBlankRatio = 0.4

// dateLayouts are tried in order; the first match wins.
var dateLayouts = []string{
	"2/01/2006",
	"02/01/2006",
	"2/1/2006",
	"02/1/2006",
	"2/01/06",
	"02/01/06",
	"2/1/06",
	"02/1/06",
}

// =============================================================================
// HEADER DETECTION
// =============================================================================

// FindHeader scans rows top to bottom for the first row containing every
// expected label, compared trimmed and case-insensitively in any order.
//
// RETURNS:
//   - The index of the header row.
//   - For each canonical column, the index of the matching cell.
//   - false if no row matches.
func FindHeader(rows [][]string) (int, []int, bool) {
	for i, row := range rows {
		if columns, ok := matchHeader(row); ok {
			return i, columns, true
		}
	}
	return -1, nil, false
}

func matchHeader(row []string) ([]int, bool) {
	positions := make(map[string]int, len(row))
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		if key == "" {
			continue
		}
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	columns := make([]int, len(ExpectedHeaders))
	for i, label := range ExpectedHeaders {
		pos, ok := positions[strings.ToLower(label)]
		if !ok {
			return nil, false
		}
		columns[i] = pos
	}
	return columns, true
}

// Canonicalize projects row into canonical column order using the positions
// returned by FindHeader. Missing cells become empty strings.
func Canonicalize(row []string, columns []int) []string {
	out := make([]string, len(columns))
	for i, pos := range columns {
		if pos < len(row) {
			out[i] = strings.TrimSpace(row[pos])
		}
	}
	return out
}

// =============================================================================
// TOTALS ROW DETECTION
// =============================================================================

// IsTotalsRow reports whether a canonical row is the summary row that ends
// the data region. All of the following must hold:
//   - at least 40% of the leading cells (all but the last) are blank
//   - the last cell is a number once currency symbols are stripped
//   - the first cell is not a date
//   - the PO cell does not contain 'V'
//   - the order cell is not an integer
func IsTotalsRow(row []string) bool {
	n := len(row)
	if n < len(ExpectedHeaders) {
		return false
	}

	blank := 0
	for _, cell := range row[:n-1] {
		if strings.TrimSpace(cell) == "" {
			blank++
		}
	}
	if float64(blank)/float64(n-1) < totalsBlankRatio {
		return false
	}

	if _, ok := parseCurrency(row[n-1]); !ok {
		return false
	}
	if isTextDate(row[colDate]) {
		return false
	}
	if strings.Contains(row[colPO], "V") {
		return false
	}
	if _, err := strconv.Atoi(strings.TrimSpace(row[colOrder])); err == nil {
		return false
	}
	return true
}

func parseCurrency(s string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	return f, err == nil
}

// =============================================================================
// DATE PARSING
// =============================================================================

// ParseDate parses a ship date. It accepts day-first dates with one or two
// digit days and months and two or four digit years, plus spreadsheet serial
// numbers as produced by raw XLSX cells.
//
// RETURNS:
//   - The date at midnight UTC.
//   - A *manifest.ParseError of kind UnparseableDate otherwise.
func ParseDate(s string) (time.Time, error) {
	value := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial >= 1 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, &manifest.ParseError{
		Kind:  manifest.KindUnparseableDate,
		Value: value,
		Err:   manifest.ErrUnparseableDate,
	}
}

// isTextDate checks only the textual layouts. Totals rows often carry a bare
// number in the first cell, which must not count as a serial date.
func isTextDate(s string) bool {
	value := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
