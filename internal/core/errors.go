package core

// errors.go defines the typed error taxonomy for the conversion pipeline.
//
// Every failure mode a caller can act on gets its own type so handlers and
// the CLI can branch with errors.As instead of string matching. MapError (see
// error_messages.go) turns any of these into a user-facing message.

import "fmt"

// UnsupportedFormatError is returned when an input file has an extension the
// dispatcher does not recognize (anything other than .kml or .kmz).
type UnsupportedFormatError struct {
	FileName string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s (expected .kml or .kmz)", e.FileName)
}

// ParseError is returned when a KML document is not well-formed XML.
type ParseError struct {
	DocName string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid KML in %s: %v", e.DocName, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ArchiveError is returned when KMZ bytes are not a valid zip archive or an
// archive entry cannot be read.
type ArchiveError struct {
	FileName string
	Err      error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("invalid archive %s: %v", e.FileName, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// IOError is returned when the underlying file bytes cannot be read, for
// example a failed multipart read in the web layer.
type IOError struct {
	FileName string
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.FileName, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
