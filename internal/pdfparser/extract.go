package pdfparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// defaultPageHeight is A4 in points, used when page dimensions are unavailable.
const defaultPageHeight = 842.0

// TextExtractor turns PDF bytes into newline separated text lines in reading
// order.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// PdfcpuExtractor reads PDFs with pdfcpu and rebuilds text lines from the
// positioned runs in each page's content stream.
//
// All pages are stacked onto one virtual page before lines are grouped: page
// i of n is shifted up by the heights of the pages after it. A manifest row
// printed across a page break is then grouped by position like any other row,
// and lines from later pages always follow earlier ones.
type PdfcpuExtractor struct {
	// LineTolerance overrides DefaultLineTolerance when positive.
	LineTolerance float64
}

// Extract implements TextExtractor.
func (e PdfcpuExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	runs, err := e.FlattenedRuns(ctx, data)
	if err != nil {
		return "", err
	}
	return strings.Join(GroupLines(runs, e.LineTolerance), "\n"), nil
}

// FlattenedRuns returns the text runs of every page placed on one tall page.
func (e PdfcpuExtractor) FlattenedRuns(ctx context.Context, data []byte) ([]Run, error) {
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	n := pctx.PageCount
	if n == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	heights := pageHeights(pctx, n)

	// offsets[i] is the sum of the heights of pages after page i.
	offsets := make([]float64, n)
	for i := n - 2; i >= 0; i-- {
		offsets[i] = offsets[i+1] + heights[i+1]
	}

	var runs []Run
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := pageContent(pctx, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i+1, err)
		}
		for _, r := range ContentRuns(content) {
			r.Y += offsets[i]
			runs = append(runs, r)
		}
	}
	return runs, nil
}

func pageContent(pctx *model.Context, pageNr int) ([]byte, error) {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(r)
}

func pageHeights(pctx *model.Context, n int) []float64 {
	heights := make([]float64, n)
	for i := range heights {
		heights[i] = defaultPageHeight
	}
	dims, err := pctx.PageDims()
	if err != nil || len(dims) != n {
		return heights
	}
	for i, d := range dims {
		if d.Height > 0 {
			heights[i] = d.Height
		}
	}
	return heights
}
