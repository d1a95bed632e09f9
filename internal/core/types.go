// Package core provides the business logic for KML to CSV conversion.
// This package has no UI dependencies and can be used by any frontend.
package core

import "time"

// Table is the tabular form of one KML document: a header row followed by one
// row per placemark, in document order. Every row has exactly len(Header)
// cells, in schema order.
type Table struct {
	Header []string
	Rows   [][]string
}

// RowCount returns the number of data rows (placemarks), excluding the header.
func (t Table) RowCount() int {
	return len(t.Rows)
}

// ConversionResult is the outcome for a single KML document. It is immutable
// once produced and never persisted; callers hold it only long enough to
// offer the CSV for download.
type ConversionResult struct {
	DocName    string `json:"doc_name"`    // archive entry or file name, .kml stripped
	SourceFile string `json:"source_file"` // the uploaded file this document came from
	RowCount   int    `json:"row_count"`   // placemarks found
	CSV        []byte `json:"-"`           // encoded payload, downloaded separately
}

// CSVFileName returns the download name for the document's CSV payload.
func (r ConversionResult) CSVFileName() string {
	return r.DocName + ".csv"
}

// InputFile is one user-supplied file to convert.
type InputFile struct {
	Name string
	Data []byte
}

// ConversionPhase indicates the current stage of batch processing.
type ConversionPhase string

const (
	PhaseStarting   ConversionPhase = "starting"
	PhaseReading    ConversionPhase = "reading"
	PhaseExtracting ConversionPhase = "extracting"
	PhaseEncoding   ConversionPhase = "encoding"
	PhaseComplete   ConversionPhase = "complete"
	PhaseFailed     ConversionPhase = "failed"
	PhaseCancelled  ConversionPhase = "cancelled"
)

// ConversionProgress represents the current state of a batch conversion.
type ConversionProgress struct {
	BatchID      string          `json:"batch_id"`
	Phase        ConversionPhase `json:"phase"`
	FileName     string          `json:"file_name"` // file currently being processed
	TotalFiles   int             `json:"total_files"`
	CurrentFile  int             `json:"current_file"` // 1-based, 0 before the first file
	DocsProduced int             `json:"docs_produced"`
	Error        string          `json:"error,omitempty"` // non-empty when Phase is PhaseFailed
}

// Percent returns the batch progress as a percentage (0-100).
func (p ConversionProgress) Percent() int {
	if p.TotalFiles <= 0 {
		return 0
	}
	if p.Phase == PhaseComplete {
		return 100
	}
	return (p.CurrentFile * 100) / p.TotalFiles
}

// BatchResult contains the final result of a batch conversion. The batch is
// all-or-nothing: on any failure Error is set and Results is empty, including
// documents that had already converted successfully.
type BatchResult struct {
	BatchID   string             `json:"batch_id"`
	FileNames []string           `json:"file_names"`
	Results   []ConversionResult `json:"results"`
	TotalRows int                `json:"total_rows"`
	Duration  time.Duration      `json:"-"`
	Error     string             `json:"error,omitempty"`
}

// ProgressCallback is called as a batch advances through its files.
type ProgressCallback func(ConversionProgress)
