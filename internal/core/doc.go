// Package core provides the business logic for KML to CSV conversion.
//
// This package is the heart of the converter, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Pipeline
//
// A conversion runs four stages per input file:
//
//  1. Dispatch: the file extension picks the route (.kml straight to the
//     extractor, .kmz through the unpacker first, anything else rejected
//     with [UnsupportedFormatError]).
//  2. Unpack: KMZ archives yield one text document per .kml entry.
//  3. Extract: each document becomes a [Table] with the fixed homepass
//     header and one row per Placemark.
//  4. Encode: the table is serialized to CSV bytes with the exact quoting
//     rules downstream tooling expects.
//
// # Batches
//
// [Service.StartConversion] runs a batch asynchronously and returns a batch
// ID. Files within a batch are processed strictly sequentially, and the
// batch is all-or-nothing: the first failure discards every result,
// including documents that had already converted. Progress is broadcast to
// subscribers via [Service.SubscribeProgress]; finished results stay
// downloadable for a short retention window and are then dropped.
//
// # Error Handling
//
// Failure modes are typed ([ParseError], [ArchiveError],
// [UnsupportedFormatError], [IOError]) so callers can branch with errors.As.
// [MapError] turns any error into a user-facing message with a support code:
//
//   - FILE001-FILE003: file selection, size, and extension problems
//   - KML001: malformed KML documents
//   - KMZ001: corrupt archives
//   - CNV001-CNV004: session lifecycle (not found, cancelled, busy, timeout)
package core
