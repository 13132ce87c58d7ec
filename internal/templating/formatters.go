package templating

import (
	"strings"
)

// truncationNotice is appended when a transcript exceeds the size budget
const truncationNotice = "[... transcript truncated ...]"

// FormatTranscript prepares a transcript body for prompt embedding. Leading
// and trailing blank lines are dropped and oversized transcripts are cut at
// a line boundary so the model never sees a half line.
func FormatTranscript(content string, maxBytes int) string {
	content = strings.Trim(content, "\n")

	if maxBytes <= 0 || len(content) <= maxBytes {
		return content
	}

	cut := content[:maxBytes]
	if idx := strings.LastIndex(cut, "\n"); idx > 0 {
		cut = cut[:idx]
	}

	return cut + "\n" + truncationNotice
}

// FormatTitle normalizes a transcript title for prompt embedding
func FormatTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Untitled transcript"
	}
	return title
}
