// Package utils provides small shared helpers: filename sanitization and
// tiktoken-based token counting.
package utils

import (
	"regexp"
	"strings"
)

//nolint:gochecknoglobals // compiled once
var (
	invalidPathChars = regexp.MustCompile(`[/\\:*?"<>|]`)
	repeatUnderscore = regexp.MustCompile(`_+`)
)

const maxFilenameLength = 200

// SanitizeFilename converts an arbitrary workflow name into a string safe to
// embed in file paths. Invalid path characters become underscores, runs of
// underscores collapse, and the result is capped at 200 characters.
func SanitizeFilename(name string) string {
	sanitized := invalidPathChars.ReplaceAllString(name, "_")
	sanitized = repeatUnderscore.ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "_")
	if len(sanitized) > maxFilenameLength {
		sanitized = sanitized[:maxFilenameLength]
	}
	return sanitized
}
