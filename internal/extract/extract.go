// Package extract pulls plain text out of the transcript files dropped
// into the watch directory. Descript exports arrive either as .txt or as
// .docx; both reduce to the same line-oriented text before processing.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor converts one source file into plain text
type Extractor interface {
	Extract(path string) (string, error)
}

// ForPath returns the extractor for the given file, or an error for
// unsupported extensions.
func ForPath(path string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return TextExtractor{}, nil
	case ".docx":
		return DocxExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported transcript format: %s", filepath.Ext(path))
	}
}

// TextExtractor reads plain text files as-is
type TextExtractor struct{}

// Extract reads the file contents
func (TextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript file: %w", err)
	}
	return string(data), nil
}
