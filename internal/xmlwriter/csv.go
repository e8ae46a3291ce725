package xmlwriter

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/BryceStandley/ManifestToScale/internal/manifest"
)

// CSVHeader is the header row of the CSV mirror, in StoreOrder field order.
var CSVHeader = []string{
	"OrderDate", "StoreNumber", "StoreName", "PONumber", "CustomerNumber",
	"OrderNumber", "InvoiceNumber", "Quantity", "CrateQuantity",
}

// GenerateCSV writes the manifest orders as CSV, one row per order.
// Dates are written as dd/MM/yyyy, the format the manifests arrive in.
func (g *Generator) GenerateCSV(m *manifest.OrderManifest) ([]byte, error) {
	if m == nil {
		return nil, &GenerationError{Document: "csv", Err: errNoManifest}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(CSVHeader); err != nil {
		return nil, &GenerationError{Document: "csv", Err: err}
	}
	for _, o := range m.Orders() {
		record := []string{
			o.OrderDate.Format("02/01/2006"),
			o.StoreNumber,
			o.StoreName,
			o.PONumber,
			o.CustomerNumber,
			o.OrderNumber,
			o.InvoiceNumber,
			strconv.Itoa(o.Quantity),
			strconv.Itoa(o.CrateQuantity),
		}
		if err := w.Write(record); err != nil {
			return nil, &GenerationError{Document: "csv", Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, &GenerationError{Document: "csv", Err: err}
	}
	return buf.Bytes(), nil
}
