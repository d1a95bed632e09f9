package core

// csv.go encodes tables into the exact CSV dialect downstream tooling
// expects: fields joined by commas, rows joined by "\n" with no trailing
// newline, and a field quoted if and only if it contains a comma, a double
// quote, or a newline. encoding/csv is deliberately not used here; its writer
// also quotes fields with leading whitespace and the literal `\.`, which
// breaks the iff rule. See csv_test.go for the round-trip guarantee.

import (
	"bytes"
	"strings"
)

// EncodeCSV serializes a table to CSV bytes. The header row comes first,
// followed by the data rows in order.
func EncodeCSV(t Table) []byte {
	var buf bytes.Buffer

	writeRow(&buf, t.Header)
	for _, row := range t.Rows {
		buf.WriteByte('\n')
		writeRow(&buf, row)
	}

	return buf.Bytes()
}

// writeRow appends one encoded row without a trailing newline.
func writeRow(buf *bytes.Buffer, row []string) {
	for i, field := range row {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeField(buf, field)
	}
}

// writeField appends one field, quoting only when required.
func writeField(buf *bytes.Buffer, field string) {
	if !needsQuoting(field) {
		buf.WriteString(field)
		return
	}
	buf.WriteByte('"')
	buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
	buf.WriteByte('"')
}

// needsQuoting reports whether a field must be wrapped in quotes.
func needsQuoting(field string) bool {
	return strings.ContainsAny(field, ",\"\n")
}
