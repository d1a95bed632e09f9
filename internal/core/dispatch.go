package core

// dispatch.go routes input files by extension and drives the per-file
// pipeline: unpack (for archives), extract, encode.

import "strings"

// File extensions recognized by the dispatcher. Matching is case-insensitive;
// the suffix stripped from document names preserves the original spelling of
// the rest of the name.
const (
	kmlSuffix = ".kml"
	kmzSuffix = ".kmz"
)

// docBaseName strips a trailing .kml (any case) from an entry or file name.
func docBaseName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), kmlSuffix) {
		return name[:len(name)-len(kmlSuffix)]
	}
	return name
}

// ConvertFile converts one input file into one ConversionResult per KML
// document it contains: exactly one for a bare .kml file, one per .kml entry
// for a .kmz archive. Returns *UnsupportedFormatError for any other
// extension.
func ConvertFile(fileName string, data []byte) ([]ConversionResult, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(fileName), kmlSuffix):
		result, err := convertDocument(docBaseName(fileName), fileName, string(data))
		if err != nil {
			return nil, err
		}
		return []ConversionResult{result}, nil

	case strings.HasSuffix(strings.ToLower(fileName), kmzSuffix):
		entries, err := UnpackKMZ(fileName, data)
		if err != nil {
			return nil, err
		}
		results := make([]ConversionResult, 0, len(entries))
		for _, entry := range entries {
			result, err := convertDocument(docBaseName(entry.Name), fileName, entry.Text)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
		return results, nil

	default:
		return nil, &UnsupportedFormatError{FileName: fileName}
	}
}

// convertDocument runs the extractor and encoder over one KML document.
func convertDocument(docName, sourceFile, text string) (ConversionResult, error) {
	table, err := ExtractTable(docName, text)
	if err != nil {
		return ConversionResult{}, err
	}
	return ConversionResult{
		DocName:    docName,
		SourceFile: sourceFile,
		RowCount:   table.RowCount(),
		CSV:        EncodeCSV(table),
	}, nil
}

// ConvertBatch processes files sequentially and is fail-fast: the first error
// aborts the whole batch and no partial results are returned, including
// conversions that had already succeeded. Callers that want per-file
// isolation must split the batch themselves.
func ConvertBatch(files []InputFile) ([]ConversionResult, error) {
	var results []ConversionResult
	for _, f := range files {
		fileResults, err := ConvertFile(f.Name, f.Data)
		if err != nil {
			return nil, err
		}
		results = append(results, fileResults...)
	}
	return results, nil
}
