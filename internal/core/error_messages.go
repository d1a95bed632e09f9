// error_messages.go defines user-friendly error messages with codes for
// support reference. When users encounter errors, they can quote the error
// code to support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
//	FILE001-FILE099 - file handling (missing, oversized, wrong extension)
//	KML001-KML099   - KML document problems (malformed XML)
//	KMZ001-KMZ099   - KMZ archive problems (corrupt zip, unreadable entry)
//	CNV001-CNV099   - conversion session problems (not found, cancelled, busy)
//	ERR000          - fallback when no pattern matches
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so more specific patterns must come before general ones.

package core

import "strings"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // what happened (user-friendly)
	Action  string // what to do about it
	Code    string // error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors (FILE001-FILE004)
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose one or more .kml or .kmz files to convert",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the export into smaller files",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .kml document or a .kmz archive",
			Code:    "FILE003",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files in one batch",
			Action:  "Upload the files in smaller batches",
			Code:    "FILE004",
		},
	},

	// KML errors (KML001)
	{
		pattern: "invalid kml",
		msg: UserMessage{
			Message: "The KML document is not well-formed",
			Action:  "Re-export the file from your mapping tool and try again",
			Code:    "KML001",
		},
	},

	// KMZ errors (KMZ001)
	{
		pattern: "invalid archive",
		msg: UserMessage{
			Message: "The KMZ archive is corrupt or not a zip file",
			Action:  "Re-download or re-export the archive and try again",
			Code:    "KMZ001",
		},
	},

	// Conversion session errors (CNV001-CNV004)
	{
		pattern: "batch not found",
		msg: UserMessage{
			Message: "Conversion session not found",
			Action:  "The session may have expired. Start a new conversion",
			Code:    "CNV001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The conversion was cancelled",
			Action:  "Start a new conversion when ready",
			Code:    "CNV002",
		},
	},
	{
		pattern: "too many concurrent conversions",
		msg: UserMessage{
			Message: "Too many conversions in progress",
			Action:  "Please wait a moment and try again",
			Code:    "CNV003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The conversion timed out",
			Action:  "Try converting fewer or smaller files",
			Code:    "CNV004",
		},
	},

	// Rate limiting (RATE001)
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultUserMessage is returned when no pattern matches.
var defaultUserMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns the default message for nil-safe callers passing unknown errors.
func MapError(err error) UserMessage {
	if err == nil {
		return defaultUserMessage
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultUserMessage
}
