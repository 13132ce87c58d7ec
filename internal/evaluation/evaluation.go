// Package evaluation scores a generated transcript against a reference
// coded by hand. Every metric is a pure function in the [0,1] range so
// individual scores stay comparable across transcripts.
package evaluation

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Metrics holds the individual quality scores for one comparison
type Metrics struct {
	CUnitCount      float64 `json:"cunit_count"`      // Ratio of communication-unit counts
	ContentWords    float64 `json:"content_words"`    // Jaccard similarity of content words
	PauseCodes      float64 `json:"pause_codes"`      // Agreement on pause code lines
	FilledPauses    float64 `json:"filled_pauses"`    // Agreement on [FP] tag counts
	Morphology      float64 `json:"morphology"`       // Agreement on stem/suffix markings
	SpeakerBalance  float64 `json:"speaker_balance"`  // Agreement on per-speaker line counts
	StructuralRatio float64 `json:"structural_ratio"` // Line-level sequence similarity
}

var (
	pauseCodeLine  = regexp.MustCompile(`^; :\d{2}$`)
	filledPauseTag = regexp.MustCompile(`\[FP\]`)
	morphMarking   = regexp.MustCompile(`\w+/\w+`)
	speakerLine    = regexp.MustCompile(`^(P|Av): `)
	wordPattern    = regexp.MustCompile(`[a-z0-9']+`)
)

// Evaluate computes all metrics for a generated transcript against a reference
func Evaluate(generated, reference string) Metrics {
	genLines := splitLines(generated)
	refLines := splitLines(reference)

	return Metrics{
		CUnitCount:      countRatio(countMatching(genLines, speakerLine), countMatching(refLines, speakerLine)),
		ContentWords:    jaccard(contentWords(generated), contentWords(reference)),
		PauseCodes:      countRatio(countMatching(genLines, pauseCodeLine), countMatching(refLines, pauseCodeLine)),
		FilledPauses:    countRatio(countPattern(generated, filledPauseTag), countPattern(reference, filledPauseTag)),
		Morphology:      countRatio(countPattern(generated, morphMarking), countPattern(reference, morphMarking)),
		SpeakerBalance:  speakerBalance(genLines, refLines),
		StructuralRatio: structuralRatio(genLines, refLines),
	}
}

// Overall combines the metrics into a single score. Content words and
// structure carry the most weight; the markup metrics share the rest.
func (m Metrics) Overall() float64 {
	return 0.25*m.ContentWords +
		0.25*m.StructuralRatio +
		0.15*m.CUnitCount +
		0.10*m.PauseCodes +
		0.10*m.FilledPauses +
		0.10*m.Morphology +
		0.05*m.SpeakerBalance
}

// splitLines splits a transcript into trimmed non-empty lines
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// countMatching counts lines matching the given pattern
func countMatching(lines []string, pattern *regexp.Regexp) int {
	count := 0
	for _, line := range lines {
		if pattern.MatchString(line) {
			count++
		}
	}
	return count
}

// countPattern counts pattern occurrences in the whole text
func countPattern(text string, pattern *regexp.Regexp) int {
	return len(pattern.FindAllString(text, -1))
}

// countRatio maps two counts to [0,1]: 1.0 when equal, shrinking toward 0
// as they diverge. Two zero counts agree perfectly.
func countRatio(a, b int) float64 {
	if a == b {
		return 1.0
	}
	max := a
	if b > max {
		max = b
	}
	min := a
	if b < min {
		min = b
	}
	return float64(min) / float64(max)
}

// contentWords extracts the lowercase word set, ignoring markup characters
func contentWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if w == "fp" {
			continue
		}
		words[w] = true
	}
	return words
}

// jaccard computes set similarity. Two empty sets agree perfectly.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// speakerBalance compares per-speaker line counts between the transcripts
func speakerBalance(genLines, refLines []string) float64 {
	genCounts := speakerCounts(genLines)
	refCounts := speakerCounts(refLines)

	score := 0.0
	for _, speaker := range []string{"P", "Av"} {
		score += countRatio(genCounts[speaker], refCounts[speaker])
	}
	return score / 2.0
}

// speakerCounts counts lines per speaker code
func speakerCounts(lines []string) map[string]int {
	counts := make(map[string]int)
	for _, line := range lines {
		if m := speakerLine.FindStringSubmatch(line); m != nil {
			counts[m[1]]++
		}
	}
	return counts
}

// structuralRatio computes line-level sequence similarity using the same
// algorithm difflib uses for unified diffs
func structuralRatio(genLines, refLines []string) float64 {
	if len(genLines) == 0 && len(refLines) == 0 {
		return 1.0
	}

	matcher := difflib.NewMatcher(genLines, refLines)
	return matcher.Ratio()
}
