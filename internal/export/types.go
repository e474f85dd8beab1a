// Package export provides study-sheet export functionality for PDF and DOCX formats.
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

// Request contains parameters for an export operation
type Request struct {
	DoubtID        string
	Format         Format
	IncludeAnswers bool
	VerifiedOnly   bool
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// DoubtInfo holds doubt metadata for export
type DoubtInfo struct {
	ID        string
	Title     string
	Content   string
	Category  string
	Author    string
	Anonymous bool
	CreatedAt time.Time
}

// AnswerInfo holds answer data for export
type AnswerInfo struct {
	ID        string
	Author    string
	Step1     string
	Step2     string
	Step3     string
	Verified  bool
	CreatedAt time.Time
}

var (
	// ErrContentUnavailable indicates doubt content could not be loaded for export.
	ErrContentUnavailable = errors.New("export content unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
