package templating

import (
	"time"
)

// TemplateData represents the formatted data for template rendering
type TemplateData struct {
	Title      string    `json:"title"`      // Transcript title
	Transcript string    `json:"transcript"` // Formatted transcript body
	Time       string    `json:"time"`       // Render time formatted per FormattingOptions
	Timestamp  time.Time `json:"timestamp"`  // Raw render time
}

// FormattingOptions controls what data is included and how it's formatted
type FormattingOptions struct {
	MaxTranscriptBytes int    `json:"max_transcript_bytes"` // Truncate transcripts larger than this (0 = unlimited)
	TimeFormat         string `json:"time_format"`
}

// DefaultFormattingOptions returns sensible defaults for template formatting
func DefaultFormattingOptions() FormattingOptions {
	return FormattingOptions{
		TimeFormat: "Monday, January 2, 2006 at 15:04:05 UTC",
	}
}

// RefinerFormattingOptions returns formatting options optimized for the refinement prompt
func RefinerFormattingOptions() FormattingOptions {
	opts := DefaultFormattingOptions()
	opts.MaxTranscriptBytes = 128 * 1024
	return opts
}
