package salt

import (
	"regexp"
	"strings"
)

// filledPauses is the closed vocabulary of vocalized hesitations that get
// an [FP] tag.
var filledPauses = map[string]bool{
	"uh":   true,
	"um":   true,
	"hm":   true,
	"hmm":  true,
	"er":   true,
	"ah":   true,
	"oh":   true,
	"uhoh": true,
	"oops": true,
	"ooh":  true,
}

// repetitionStopWords are high-frequency function words that can
// legitimately appear twice in a row and are never treated as disfluencies.
var repetitionStopWords = map[string]bool{
	"the": true,
	"a":   true,
	"an":  true,
	"to":  true,
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// stripTerminal removes trailing sentence punctuation used for token comparison
func stripTerminal(word string) string {
	return strings.TrimRight(word, ".,!?")
}

// MarkRepetitions wraps the first occurrence of an immediate word
// repetition in maze parentheses, leaving the second occurrence as the
// resolved form: "I, I do not" becomes "(I) I do not". Comparison is
// case-insensitive and ignores attached sentence punctuation. Only exact
// adjacent pairs are considered; spans never nest or overlap, and no word
// is dropped or reordered.
func MarkRepetitions(text string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))

	for i := 0; i < len(words); i++ {
		if i+1 < len(words) {
			curr := strings.ToLower(stripTerminal(words[i]))
			next := strings.ToLower(stripTerminal(words[i+1]))

			if curr != "" && curr == next && !repetitionStopWords[curr] {
				first := words[i]
				// A comma between the pair belongs to the disfluency, not
				// the resolved utterance: "(I)" not "(I,)".
				if strings.HasSuffix(first, ",") {
					first = first[:len(first)-1]
				}
				out = append(out, "("+first+")", words[i+1])
				i++
				continue
			}
		}
		out = append(out, words[i])
	}

	return strings.Join(out, " ")
}

// MarkFilledPauses wraps every filled-pause vocabulary word in maze
// parentheses with an [FP] tag. Trailing sentence punctuation stays outside
// the span: "um," becomes "(um [FP]),".
func MarkFilledPauses(text string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))

	for _, word := range words {
		clean := nonAlphanumeric.ReplaceAllString(strings.ToLower(word), "")
		if !filledPauses[clean] {
			out = append(out, word)
			continue
		}

		last := word[len(word)-1]
		if last == ',' || last == '.' || last == '!' || last == '?' {
			out = append(out, "("+word[:len(word)-1]+" [FP])"+string(last))
		} else {
			out = append(out, "("+word+" [FP])")
		}
	}

	return strings.Join(out, " ")
}
