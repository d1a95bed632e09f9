package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError_KnownPatterns(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unsupported format", &UnsupportedFormatError{FileName: "site.txt"}, "FILE003"},
		{"parse error", &ParseError{DocName: "a", Err: errors.New("bad token")}, "KML001"},
		{"archive error", &ArchiveError{FileName: "a.kmz", Err: errors.New("not a zip")}, "KMZ001"},
		{"no file", errors.New("no file provided"), "FILE001"},
		{"too large", errors.New("file too large or invalid form"), "FILE002"},
		{"batch missing", fmt.Errorf("batch not found: abc"), "CNV001"},
		{"cancelled", errors.New("context canceled"), "CNV002"},
		{"busy", ErrTooManyConversions, "CNV003"},
		{"timeout", errors.New("context deadline exceeded"), "CNV004"},
		{"rate limited", errors.New("rate limit exceeded"), "RATE001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := MapError(tt.err)
			if msg.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, msg.Code, tt.wantCode)
			}
			if msg.Message == "" || msg.Action == "" {
				t.Errorf("MapError(%v) returned empty Message or Action", tt.err)
			}
		})
	}
}

func TestMapError_Unknown(t *testing.T) {
	msg := MapError(errors.New("something inexplicable"))
	if msg.Code != "ERR000" {
		t.Errorf("Code = %q, want ERR000", msg.Code)
	}
}

func TestMapError_Nil(t *testing.T) {
	msg := MapError(nil)
	if msg.Code != "ERR000" {
		t.Errorf("Code = %q, want ERR000", msg.Code)
	}
}

func TestMapError_CaseInsensitive(t *testing.T) {
	msg := MapError(errors.New("INVALID KML in doc: oops"))
	if msg.Code != "KML001" {
		t.Errorf("Code = %q, want KML001", msg.Code)
	}
}
