package converter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BryceStandley/ManifestToScale/internal/manifest"
	"github.com/BryceStandley/ManifestToScale/internal/validation"
	"github.com/BryceStandley/ManifestToScale/internal/xmlwriter"
)

// =============================================================================
// FILE TYPES
// =============================================================================

// FileType is the declared format of an uploaded manifest.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// ParseFileType accepts "pdf", "csv" or "xlsx", with or without a leading
// dot, in any case.
func ParseFileType(s string) (FileType, error) {
	switch t := FileType(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); t {
	case FileTypePDF, FileTypeCSV, FileTypeXLSX:
		return t, nil
	}
	return "", fmt.Errorf("unsupported file type %q", s)
}

// DetectFileType infers the file type from a file name's extension.
func DetectFileType(filename string) (FileType, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return "", fmt.Errorf("file %q has no extension", filename)
	}
	return ParseFileType(ext)
}

// ContentType returns the MIME type of the file type.
func (t FileType) ContentType() string {
	switch t {
	case FileTypePDF:
		return "application/pdf"
	case FileTypeCSV:
		return "text/csv"
	case FileTypeXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// =============================================================================
// STATUS
// =============================================================================

// Status is the outcome of processing one manifest.
type Status string

const (
	StatusProcessed        Status = "processed"
	StatusAlreadyProcessed Status = "already_processed"
	StatusInvalid          Status = "invalid"
	StatusParseError       Status = "parse_error"
	StatusGenerationError  Status = "generation_error"
	StatusError            Status = "error"
)

// ErrAlreadyProcessed reports a manifest that was converted before with the
// same totals.
var ErrAlreadyProcessed = errors.New("manifest has already been processed")

// StatusOf maps an error from the pipeline to a status.
func StatusOf(err error) Status {
	var (
		perr *manifest.ParseError
		verr *validation.ValidationError
		gerr *xmlwriter.GenerationError
	)
	switch {
	case err == nil:
		return StatusProcessed
	case errors.Is(err, ErrAlreadyProcessed):
		return StatusAlreadyProcessed
	case errors.As(err, &perr):
		return StatusParseError
	case errors.As(err, &verr):
		return StatusInvalid
	case errors.As(err, &gerr):
		return StatusGenerationError
	}
	return StatusError
}
