// =============================================================================
// Manifest to Scale - XLSX Normalizer
// =============================================================================
//
// This module turns XLSX manifest workbooks into the same row shape as CSV
// exports, so the tabular parser runs one set of header and totals heuristics
// for both formats.
//
// WORKBOOK LAYOUT:
//   Only the first sheet is read. Cells are read raw, so date cells arrive as
//   spreadsheet serial numbers and the tabular parser converts them.
//
// CACHING:
//   A workbook is converted to CSV bytes once per key (a file path or an
//   upload id). Later reads for the same key reuse the CSV form instead of
//   reopening the workbook. Call Forget when the job is finished.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/BryceStandley/ManifestToScale/internal/logging"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter converts workbooks to CSV and caches the result per key.
// It is safe for concurrent use.
type Converter struct {
	mu     sync.Mutex
	cache  map[string][]byte
	logger logging.Logger
}

// NewConverter creates a Converter with an empty cache.
func NewConverter(logger logging.Logger) *Converter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Converter{
		cache:  make(map[string][]byte),
		logger: logger,
	}
}

// =============================================================================
// CONVERSION FUNCTIONS
// =============================================================================

// ToCSV returns the CSV form of the workbook read from r, converting it on the
// first call for key and serving the cached bytes afterwards.
//
// PARAMETERS:
//   - key: The cache key, usually a file path or upload id.
//   - r: The workbook content. It is not read on a cache hit.
//
// RETURNS:
//   - The CSV bytes of the first sheet.
//   - An error if the workbook cannot be opened or read.
func (c *Converter) ToCSV(key string, r io.Reader) ([]byte, error) {
	if cached, ok := c.lookup(key); ok {
		c.logger.Debug("xlsx cache hit for %s", key)
		return cached, nil
	}

	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}

	data, err := rowsToCSV(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to write CSV for %s: %w", key, err)
	}

	c.mu.Lock()
	if existing, ok := c.cache[key]; ok {
		data = existing
	} else {
		c.cache[key] = data
	}
	c.mu.Unlock()

	c.logger.Debug("converted workbook %s to CSV (%d rows)", key, len(rows))
	return data, nil
}

// FileToCSV converts the workbook at path, keyed by the path.
func (c *Converter) FileToCSV(path string) ([]byte, error) {
	if cached, ok := c.lookup(path); ok {
		return cached, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return c.ToCSV(path, f)
}

// Rows returns the workbook rows for key, going through the CSV cache.
func (c *Converter) Rows(key string, r io.Reader) ([][]string, error) {
	data, err := c.ToCSV(key, r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached CSV for %s: %w", key, err)
	}
	return rows, nil
}

// Forget drops the cached CSV for key.
func (c *Converter) Forget(key string) {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()
}

// Len reports how many workbooks are cached.
func (c *Converter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *Converter) lookup(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.cache[key]
	return data, ok
}

// =============================================================================
// WORKBOOK READING
// =============================================================================

// ReadRows reads every row of the first sheet of a workbook.
//
// RETURNS:
//   - The rows, with raw cell values.
//   - An error if the workbook is unreadable or has no sheets.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

func rowsToCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
