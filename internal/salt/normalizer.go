package salt

import (
	"regexp"
	"strings"
)

// Speaker alias and redaction rewrites applied before any other stage so
// that later stages only ever see the canonical tokens.
var (
	avatarAlias      = regexp.MustCompile(`\bAvatar:`)
	participantAlias = regexp.MustCompile(`\bParticipant:`)
	redactionMarker  = regexp.MustCompile(`(?i)\[redacted\]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.!?])`)
	speakerPrefix    = regexp.MustCompile(`^(P|Av):`)
)

// Normalize collapses whitespace and maps speaker labels and redaction
// markers to their canonical forms.
func Normalize(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = avatarAlias.ReplaceAllString(text, "Av:")
	text = participantAlias.ReplaceAllString(text, "P:")
	text = redactionMarker.ReplaceAllString(text, "{redacted}")
	return strings.TrimSpace(text)
}

// TidyPunctuation removes whitespace immediately preceding terminal punctuation
func TidyPunctuation(text string) string {
	return spaceBeforePunct.ReplaceAllString(text, "$1")
}

// Speaker returns the canonical speaker code ("P" or "Av") leading the
// given content line, or "" when the line carries no speaker prefix.
func Speaker(text string) string {
	m := speakerPrefix.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// Clean runs the full per-line content pipeline: lexical normalization,
// disfluency markup, morphological marking, then punctuation tidy-up.
// Total function: any input string yields a result.
func Clean(text string) string {
	text = Normalize(text)
	text = MarkRepetitions(text)
	text = MarkFilledPauses(text)
	text = MarkMorphology(text)
	return TidyPunctuation(text)
}
