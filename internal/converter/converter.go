// =============================================================================
// Manifest to Scale - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the whole
// pipeline for a single manifest, from parsing to the generated Scale files.
//
// CONVERSION PIPELINE:
//   1. Parse the manifest by its declared type
//        pdf       -> pdfparser, duplicates reported
//        csv, xlsx -> csvparser, duplicates repaired
//   2. Validate the manifest
//   3. Generate the Receipt and Shipments documents and the CSV mirror
//   4. Claim the manifest in the processed manifest store
//   5. Write the generated files to every output sink
//   6. Notify the result
//
// ERROR HANDLING:
//   ProcessUpload never returns an error and never panics. Every failure is
//   mapped to a Status and a message on the Result. Warnings raised by any
//   step are collected on the Result.
//
// CONCURRENCY:
//   A Converter is safe for concurrent use. Each call runs its own pipeline;
//   the store serializes its writes and the XLSX cache is mutex guarded.
//
// =============================================================================

package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/csvparser"
	"github.com/BryceStandley/ManifestToScale/internal/logging"
	"github.com/BryceStandley/ManifestToScale/internal/manifest"
	"github.com/BryceStandley/ManifestToScale/internal/metrics"
	"github.com/BryceStandley/ManifestToScale/internal/notify"
	"github.com/BryceStandley/ManifestToScale/internal/pdfparser"
	"github.com/BryceStandley/ManifestToScale/internal/store"
	"github.com/BryceStandley/ManifestToScale/internal/validation"
	"github.com/BryceStandley/ManifestToScale/internal/xlsxparser"
	"github.com/BryceStandley/ManifestToScale/internal/xmlwriter"
	"github.com/BryceStandley/ManifestToScale/pkg/utils"
)

// DefaultNameFormat names generated files when no format is configured.
const DefaultNameFormat = "{company}_{doc}_{manifest}_{timestamp}"

// =============================================================================
// REQUEST AND RESULT STRUCTURES
// =============================================================================

// Request is one manifest to convert.
type Request struct {
	// Filename is the original file name. It names the manifest in messages
	// and supplies the type when Type is empty.
	Filename string

	// Data is the file content.
	Data []byte

	// Type is the declared file type. Empty means detect from Filename.
	Type FileType

	// Company is the vendor the manifest belongs to.
	Company company.Company

	// SkipDedup converts the manifest even if it was processed before.
	SkipDedup bool
}

// Document is one generated file.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result represents the outcome of processing a single manifest.
type Result struct {
	// FilePath is the input path in batch mode, the file name for uploads.
	FilePath string

	Type    FileType
	Status  Status
	Success bool

	// ErrorMessage is the user facing failure message. Empty on success.
	ErrorMessage string

	// Err is the underlying failure, nil on success.
	Err error

	// Warnings are the warning lines logged while processing.
	Warnings []string

	Company      company.Company
	ManifestDate time.Time
	TotalOrders  int
	TotalCrates  int

	// Repaired is true when duplicate order numbers were repaired.
	Repaired bool

	// Manifest is the parsed (and possibly repaired) manifest. It is set
	// whenever parsing succeeded, including for invalid manifests.
	Manifest *manifest.OrderManifest

	ReceiptID   string
	Receipt     xmlwriter.Receipt
	ReceiptXML  []byte
	ShipmentXML []byte
	CSV         []byte

	// Documents are the generated files, named for output.
	Documents []Document

	// OutputFiles are the locations the documents were written to.
	OutputFiles []string

	// ArchivePath is where the input was archived in batch mode.
	ArchivePath string

	// RecordID is the processed manifest record written for this run.
	RecordID string

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// OrdersParsed is the number of orders in the final manifest.
	OrdersParsed int

	// WarningCount is the number of warnings raised.
	WarningCount int

	// ProcessingTime is the time taken to process the manifest.
	ProcessingTime time.Duration
}

func (r *Result) attach(m *manifest.OrderManifest) {
	r.Manifest = m
	r.ManifestDate = m.ManifestDate()
	r.TotalOrders = m.TotalOrders()
	r.TotalCrates = m.TotalCrates()
	r.Stats.OrdersParsed = m.TotalOrders()
}

func (r *Result) fail(err error) {
	r.Status = StatusOf(err)
	r.Success = false
	r.Err = err
	r.ErrorMessage = err.Error()
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options configures a Converter. Only Logger is needed for a pure
// in-memory conversion; every other dependency is optional.
type Options struct {
	Logger logging.Logger

	// Store enables the duplicate manifest check. Nil disables it.
	Store store.Store

	// Notifier receives a message per manifest. Nil disables notifications.
	Notifier notify.Notifier

	// Sinks receive the generated files.
	Sinks utils.MultiSink

	// Files archives inputs and outputs in batch mode.
	Files *utils.FileManager

	// Generator builds the documents. Nil uses xmlwriter.New().
	Generator *xmlwriter.Generator

	// Extractor reads PDF text. Nil uses the pdfcpu extractor.
	Extractor pdfparser.TextExtractor

	// Metrics records Prometheus metrics. Nil disables them.
	Metrics *metrics.Recorder

	// NameFormat names generated files; see utils.GenerateOutputFileName.
	NameFormat string

	// DryRun parses, validates and generates but writes nothing.
	DryRun bool

	// DefaultCompany and CompanyPatterns resolve the company in batch mode.
	DefaultCompany  company.Company
	CompanyPatterns []CompanyPattern
}

// Converter converts manifests into Scale interface files.
type Converter struct {
	opts      Options
	logger    logging.Logger
	generator *xmlwriter.Generator
	xlsx      *xlsxparser.Converter
}

// New creates a Converter.
func New(opts Options) *Converter {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Generator == nil {
		opts.Generator = xmlwriter.New()
	}
	if opts.NameFormat == "" {
		opts.NameFormat = DefaultNameFormat
	}
	return &Converter{
		opts:      opts,
		logger:    opts.Logger,
		generator: opts.Generator,
		xlsx:      xlsxparser.NewConverter(opts.Logger),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// ProcessUpload runs the conversion pipeline for one manifest.
//
// RETURNS:
//   - A Result describing the outcome. Status is StatusProcessed on success.
func (c *Converter) ProcessUpload(ctx context.Context, req Request) Result {
	timer := metrics.NewTimer()
	warnings := logging.NewRecorder(logging.LevelWarn)
	log := logging.Tee(c.logger, warnings.Sink())

	c.logger.Info("Processing manifest: %s (%s)", req.Filename, req.Company.DisplayName())

	result := c.process(ctx, req, log)
	c.notifyResult(ctx, req, &result, log)

	result.Warnings = warnings.Lines()
	result.Stats.WarningCount = len(result.Warnings)
	result.Stats.ProcessingTime = timer.Duration()

	if c.opts.Metrics != nil {
		label := result.Company.Code()
		c.opts.Metrics.RecordManifest(label, string(result.Type), string(result.Status), result.Stats.ProcessingTime)
		c.opts.Metrics.RecordWarnings(label, len(result.Warnings))
		if result.Success {
			c.opts.Metrics.RecordContents(label, result.TotalOrders, result.TotalCrates)
		}
	}

	if result.Success {
		c.logger.Info("%s: %s, %d orders, %d crates, receipt %s", req.Filename, result.Status, result.TotalOrders, result.TotalCrates, result.ReceiptID)
	} else {
		c.logger.Error("%s: %s: %s", req.Filename, result.Status, result.ErrorMessage)
	}
	return result
}

func (c *Converter) process(ctx context.Context, req Request, log logging.Logger) (result Result) {
	result = Result{FilePath: req.Filename, Type: req.Type, Company: req.Company}

	defer func() {
		if r := recover(); r != nil {
			result.fail(fmt.Errorf("internal error while processing %s: %v", req.Filename, r))
			result.Status = StatusError
		}
	}()

	// =========================================================================
	// STEP 1: PARSE
	// =========================================================================

	if !req.Company.Valid() {
		result.fail(fmt.Errorf("unknown company for %s", req.Filename))
		return result
	}

	fileType := req.Type
	if fileType == "" {
		detected, err := DetectFileType(req.Filename)
		if err != nil {
			result.fail(err)
			return result
		}
		fileType = detected
	}
	result.Type = fileType

	m, mode, err := c.parse(ctx, fileType, req, log)
	if err != nil {
		result.fail(err)
		c.recordFailure(ctx, req, nil, err)
		return result
	}
	result.attach(m)

	// =========================================================================
	// STEP 2: VALIDATE
	// =========================================================================

	v := validation.Validate(m, mode)
	if !v.Valid {
		result.fail(v.Err)
		c.recordFailure(ctx, req, m, v.Err)
		return result
	}
	if v.Repaired != nil {
		log.Warn("%s: %s", req.Filename, v.Message)
		result.Repaired = true
		if c.opts.Metrics != nil {
			c.opts.Metrics.RecordRepair(req.Company.Code())
		}
	}
	m = v.Manifest(m)
	result.attach(m)

	// =========================================================================
	// STEP 3: GENERATE
	// =========================================================================

	receiptXML, receipt, err := c.generator.GenerateReceipt(m)
	if err != nil {
		result.fail(err)
		c.recordFailure(ctx, req, m, err)
		return result
	}
	shipmentXML, shipments, err := c.generator.GenerateShipments(m)
	if err != nil {
		result.fail(err)
		c.recordFailure(ctx, req, m, err)
		return result
	}
	csvData, err := c.generator.GenerateCSV(m)
	if err != nil {
		result.fail(err)
		c.recordFailure(ctx, req, m, err)
		return result
	}
	result.ReceiptID = receipt.ReceiptID
	result.Receipt = receipt

	// =========================================================================
	// STEP 4: DUPLICATE CHECK
	// =========================================================================

	rec := &store.ProcessedManifest{
		ID:               uuid.NewString(),
		OriginalFilename: req.Filename,
		ManifestDate:     store.FormatDate(m.ManifestDate()),
		Vendor:           req.Company.Code(),
		TotalCrates:      m.TotalCrates(),
		TotalShipments:   len(shipments),
		Status:           store.StatusProcessed,
		ReceiptID:        receipt.ReceiptID,
		ReceiptXML:       string(receiptXML),
		ShipmentXML:      string(shipmentXML),
	}
	if err := c.checkDuplicate(ctx, req, rec, log); err != nil {
		result.fail(err)
		return result
	}
	if c.opts.Store != nil && !c.opts.DryRun {
		result.RecordID = rec.ID
	}

	result.ReceiptXML = receiptXML
	result.ShipmentXML = shipmentXML
	result.CSV = csvData
	result.Documents = c.documents(m, req.Filename, receiptXML, shipmentXML, csvData)

	// =========================================================================
	// STEP 5: WRITE OUTPUT FILES
	// =========================================================================

	if !c.opts.DryRun && len(c.opts.Sinks) > 0 {
		files, err := c.writeOutputs(ctx, result.Documents)
		result.OutputFiles = files
		if err != nil {
			if len(files) == 0 {
				err = fmt.Errorf("failed to write output: %w", err)
				result.fail(err)
				rec.Status = store.StatusError
				rec.LastError = err.Error()
				c.updateRecord(ctx, rec, log)
				return result
			}
			log.Warn("%s: some outputs were not written: %v", req.Filename, err)
		}
	}

	result.Status = StatusProcessed
	result.Success = true
	return result
}

// =============================================================================
// BATCH PROCESSING
// =============================================================================

// CompanyPattern maps file names matching a glob to a company.
type CompanyPattern struct {
	Pattern string
	Company company.Company
}

// ResolveCompany picks the company for a manifest file name. Patterns are
// tried in order against the lowercased base name; the first match wins.
//
// RETURNS:
//   - The company from the first matching pattern, or the default company.
//   - An error if nothing matches and no default is configured.
func (c *Converter) ResolveCompany(filename string) (company.Company, error) {
	name := strings.ToLower(filepath.Base(filename))
	for _, p := range c.opts.CompanyPatterns {
		matched, err := filepath.Match(strings.ToLower(p.Pattern), name)
		if err != nil {
			c.logger.Warn("invalid company pattern %q: %v", p.Pattern, err)
			continue
		}
		if matched {
			return p.Company, nil
		}
	}
	if c.opts.DefaultCompany.Valid() {
		return c.opts.DefaultCompany, nil
	}
	return company.Unknown, fmt.Errorf("no company matches %s", filepath.Base(filename))
}

// Run converts the manifest file at path. On success the input is moved to
// the input archive and local outputs are copied to the output archive.
func (c *Converter) Run(ctx context.Context, path string) Result {
	name := filepath.Base(path)

	comp, err := c.ResolveCompany(name)
	if err != nil {
		c.logger.Error("%s: %v", name, err)
		result := Result{FilePath: path}
		result.fail(err)
		return result
	}

	data, err := os.ReadFile(path)
	if err != nil {
		err = &manifest.ParseError{Source: name, Kind: manifest.KindUnreadable, Err: err}
		c.logger.Error("%v", err)
		result := Result{FilePath: path, Company: comp}
		result.fail(err)
		return result
	}

	result := c.ProcessUpload(ctx, Request{Filename: name, Data: data, Company: comp})
	result.FilePath = path

	if !result.Success || c.opts.DryRun || c.opts.Files == nil {
		return result
	}

	archivePath, err := c.opts.Files.ArchiveInputFile(path)
	if err != nil {
		c.logger.Warn("%s: failed to archive input: %v", name, err)
	}
	result.ArchivePath = archivePath

	for _, out := range result.OutputFiles {
		if strings.Contains(out, "://") {
			continue
		}
		if _, err := c.opts.Files.ArchiveOutputFile(out); err != nil {
			c.logger.Warn("%s: failed to archive output %s: %v", name, filepath.Base(out), err)
		}
	}
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// parse dispatches on the file type and returns the validation mode for it.
func (c *Converter) parse(ctx context.Context, fileType FileType, req Request, log logging.Logger) (*manifest.OrderManifest, validation.Mode, error) {
	if len(req.Data) == 0 {
		return nil, validation.ModeReport, &manifest.ParseError{
			Source: req.Filename,
			Kind:   manifest.KindUnreadable,
			Err:    errors.New("file is empty"),
		}
	}

	switch fileType {
	case FileTypePDF:
		m, err := pdfparser.New(log, c.opts.Extractor).Parse(ctx, req.Data, req.Filename, req.Company)
		return m, validation.ModeReport, err

	case FileTypeCSV:
		m, err := csvparser.New(log).Parse(bytes.NewReader(req.Data), req.Filename, req.Company)
		return m, validation.ModeRepair, err

	case FileTypeXLSX:
		key := uuid.NewString()
		defer c.xlsx.Forget(key)

		rows, err := c.xlsx.Rows(key, bytes.NewReader(req.Data))
		if err != nil {
			return nil, validation.ModeRepair, &manifest.ParseError{Source: req.Filename, Kind: manifest.KindUnreadable, Err: err}
		}
		m, err := csvparser.New(log).ParseRows(rows, req.Filename, req.Company)
		return m, validation.ModeRepair, err
	}

	return nil, validation.ModeReport, fmt.Errorf("unsupported file type %q", fileType)
}

// checkDuplicate claims rec in the store. In dry run mode it only checks,
// using the same date, vendor and totals rule as Claim.
func (c *Converter) checkDuplicate(ctx context.Context, req Request, rec *store.ProcessedManifest, log logging.Logger) error {
	if c.opts.Store == nil {
		return nil
	}

	if req.SkipDedup {
		log.Warn("%s: duplicate check skipped on request", req.Filename)
		if !c.opts.DryRun {
			c.updateRecord(ctx, rec, log)
		}
		return nil
	}

	if c.opts.DryRun {
		latest, err := c.opts.Store.Latest(ctx, rec.ManifestDate, rec.Vendor)
		if err != nil {
			return fmt.Errorf("failed to check processed manifests: %w", err)
		}
		if latest.Duplicates(rec) {
			return fmt.Errorf("%w: %s manifest for %s was processed on %s as %s",
				ErrAlreadyProcessed, req.Company.DisplayName(), rec.ManifestDate,
				latest.ProcessedAt.Format("02/01/2006 15:04"), latest.OriginalFilename)
		}
		return nil
	}

	claimed, existing, err := c.opts.Store.Claim(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to check processed manifests: %w", err)
	}
	if !claimed {
		return fmt.Errorf("%w: %s manifest for %s was processed on %s as %s",
			ErrAlreadyProcessed, req.Company.DisplayName(), rec.ManifestDate,
			existing.ProcessedAt.Format("02/01/2006 15:04"), existing.OriginalFilename)
	}
	return nil
}

// recordFailure stores an error record for a manifest that did not convert.
func (c *Converter) recordFailure(ctx context.Context, req Request, m *manifest.OrderManifest, cause error) {
	if c.opts.Store == nil || c.opts.DryRun {
		return
	}
	rec := &store.ProcessedManifest{
		ID:               uuid.NewString(),
		OriginalFilename: req.Filename,
		Vendor:           req.Company.Code(),
		Status:           store.StatusError,
		LastError:        cause.Error(),
	}
	if m != nil {
		rec.ManifestDate = store.FormatDate(m.ManifestDate())
		rec.TotalCrates = m.TotalCrates()
		rec.TotalShipments = m.TotalOrders()
	}
	c.updateRecord(ctx, rec, c.logger)
}

func (c *Converter) updateRecord(ctx context.Context, rec *store.ProcessedManifest, log logging.Logger) {
	if err := c.opts.Store.Record(ctx, rec); err != nil {
		log.Warn("%s: failed to record manifest: %v", rec.OriginalFilename, err)
	}
}

// documents names the generated files.
func (c *Converter) documents(m *manifest.OrderManifest, original string, receiptXML, shipmentXML, csvData []byte) []Document {
	params := func(doc string) map[string]string {
		return map[string]string{
			"company":  m.Company().Slug(),
			"doc":      doc,
			"manifest": m.ManifestDate().Format("20060102"),
			"original": trimExt(original),
		}
	}
	return []Document{
		{Name: utils.GenerateOutputFileName(c.opts.NameFormat, ".xml", params("receipt")), ContentType: "application/xml", Data: receiptXML},
		{Name: utils.GenerateOutputFileName(c.opts.NameFormat, ".xml", params("shipment")), ContentType: "application/xml", Data: shipmentXML},
		{Name: utils.GenerateOutputFileName(c.opts.NameFormat, ".csv", params("manifest")), ContentType: "text/csv", Data: csvData},
	}
}

// writeOutputs writes every document to every sink.
func (c *Converter) writeOutputs(ctx context.Context, docs []Document) ([]string, error) {
	var files []string
	var errs []error
	for _, d := range docs {
		locs, err := c.opts.Sinks.PutAll(ctx, d.Name, d.ContentType, d.Data)
		files = append(files, locs...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return files, errors.Join(errs...)
}

// notifyResult sends the outcome to the notifier.
func (c *Converter) notifyResult(ctx context.Context, req Request, result *Result, log logging.Logger) {
	if c.opts.Notifier == nil || c.opts.DryRun {
		return
	}

	msg := notify.Message{
		ID:       uuid.NewString(),
		Filename: req.Filename,
		Status:   string(result.Status),
		Company:  req.Company.DisplayName(),
	}
	if !result.ManifestDate.IsZero() {
		msg.ManifestDate = result.ManifestDate.Format("02/01/2006")
	}

	if result.Success {
		msg.Subject = notify.SuccessSubject(req.Company.DisplayName(), result.ManifestDate)
		msg.DeliverAt = notify.DeliveryTime(result.ManifestDate)
		msg.Lines = []string{
			fmt.Sprintf("Receipt %s", result.ReceiptID),
			fmt.Sprintf("%d orders, %d crates", result.TotalOrders, result.TotalCrates),
		}
		for _, d := range result.Documents {
			msg.Attachments = append(msg.Attachments, notify.Attachment{Name: d.Name, ContentType: d.ContentType, Data: d.Data})
		}
	} else {
		msg.Subject = notify.FailureSubject(req.Filename)
		msg.Lines = []string{result.ErrorMessage}
	}

	if err := c.opts.Notifier.Notify(ctx, msg); err != nil {
		log.Warn("%s: failed to send notification: %v", req.Filename, err)
		return
	}

	if result.Success && result.RecordID != "" {
		if err := c.opts.Store.MarkDelivered(ctx, result.RecordID); err != nil {
			log.Warn("%s: failed to mark manifest delivered: %v", req.Filename, err)
		}
	}
}

func trimExt(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/' && name[i] != '\\'; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
