package core

// archive.go unpacks KMZ containers. A KMZ is a zip archive whose KML
// documents are identified purely by the .kml name suffix; everything else
// in the archive (icons, overlays, directories) is skipped.

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
)

// ArchiveEntry is one KML document found inside a KMZ archive.
type ArchiveEntry struct {
	Name string // in-archive path, e.g. "b/c.kml"
	Text string // entry contents decoded as UTF-8 text
}

// UnpackKMZ extracts every .kml entry from KMZ archive bytes, in archive
// order. The suffix match is case-insensitive, like the dispatcher's own
// extension handling. Returns *ArchiveError if the bytes are not a valid zip
// archive or an entry cannot be read.
func UnpackKMZ(fileName string, data []byte) ([]ArchiveEntry, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ArchiveError{FileName: fileName, Err: err}
	}

	var entries []ArchiveEntry
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), kmlSuffix) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, &ArchiveError{FileName: fileName, Err: err}
		}
		text, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &ArchiveError{FileName: fileName, Err: err}
		}

		entries = append(entries, ArchiveEntry{Name: f.Name, Text: string(text)})
	}

	return entries, nil
}
