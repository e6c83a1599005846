package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

const maxFilenameLen = 200

// SanitizeFilename makes filename safe for a filesystem and for a
// Content-Disposition header. Directory components are dropped. An empty
// result is replaced by fallback.
func SanitizeFilename(filename, fallback string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	// Replace newlines/tabs with spaces before stripping control characters
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	// Limit length (most filesystems support 255), keeping the extension
	if len(filename) > maxFilenameLen {
		ext := filepath.Ext(filename)
		if len(ext) >= maxFilenameLen {
			ext = ""
		}
		filename = strings.TrimSpace(filename[:maxFilenameLen-len(ext)]) + ext
	}

	if strings.Trim(filename, ".") == "" {
		filename = fallback
	}
	return filename
}

var pathSeparators = strings.NewReplacer("/", " ", "\\", " ")

// ReportFilename derives a report filename from a book title.
func ReportFilename(title string) string {
	return SanitizeFilename(pathSeparators.Replace(title), "erratas") + ".errata.txt"
}
