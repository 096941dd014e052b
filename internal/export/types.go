// Package export renders the admin issue report as PDF or DOCX.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Request contains parameters for a report export.
type Request struct {
	Format      Format
	RequestedBy string
}

// ReportIssue is one row of the exported issue table.
type ReportIssue struct {
	ID          int64
	Title       string
	Description string
	Status      string
	Upvotes     int
	Author      string
	Date        time.Time
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
