package salt

import "regexp"

// morphRule rewrites one inflected form into stem/suffix notation
type morphRule struct {
	pattern *regexp.Regexp
	repl    string
}

// morphRules is the closed substitution table for bound-morpheme marking.
// Phrase entries come before single-word entries so "get dressed" is
// rewritten as a unit. This is a lookup, not an analyzer: words outside the
// table pass through untouched.
var morphRules = []morphRule{
	{regexp.MustCompile(`(?i)\bget dressed\b`), "get dress/ed"},
	{regexp.MustCompile(`(?i)\bgot dressed\b`), "got dress/ed"},
	{regexp.MustCompile(`(?i)\bget ready\b`), "get ready"},
	{regexp.MustCompile(`(?i)\bgot ready\b`), "got ready"},
	{regexp.MustCompile(`(?i)\blooked\b`), "look/ed"},
	{regexp.MustCompile(`(?i)\bhelped\b`), "help/ed"},
	{regexp.MustCompile(`(?i)\bwanted\b`), "want/ed"},
	{regexp.MustCompile(`(?i)\bneeded\b`), "need/ed"},
	{regexp.MustCompile(`(?i)\bstarted\b`), "start/ed"},
	{regexp.MustCompile(`(?i)\bfinished\b`), "finish/ed"},
}

// MarkMorphology applies the stem/suffix substitution table
func MarkMorphology(text string) string {
	for _, rule := range morphRules {
		text = rule.pattern.ReplaceAllString(text, rule.repl)
	}
	return text
}
