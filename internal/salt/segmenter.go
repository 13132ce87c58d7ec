package salt

import (
	"strings"
)

// coordinatingConjunctions open a new communication unit when they appear
// mid-utterance.
var coordinatingConjunctions = map[string]bool{
	"and":  true,
	"or":   true,
	"but":  true,
	"so":   true,
	"then": true,
}

// subordinatingConjunctions join a dependent clause to its matrix clause
// and never split a unit. They are listed here for the rule set even though
// the segmenter only needs the coordinating set: any word outside that set
// is absorbed into the current unit.
var subordinatingConjunctions = map[string]bool{
	"because": true, "that": true, "when": true, "who": true,
	"after": true, "before": true, "which": true, "although": true,
	"if": true, "unless": true, "while": true, "as": true,
	"how": true, "until": true, "like": true, "where": true,
	"since": true,
}

// serialVerbHeads are verbs that form serial constructions with "and"
// ("go and get dressed"). The conjunction belongs to the verb chain there,
// not to a clause boundary, so it never splits.
var serialVerbHeads = map[string]bool{
	"go":   true,
	"come": true,
	"try":  true,
}

// CUnit is a single communication unit attributed to one speaker
type CUnit struct {
	Speaker string
	Content string
}

// Line renders the unit in transcript form
func (c CUnit) Line() string {
	return c.Speaker + ": " + c.Content
}

// Segment splits a cleaned utterance into communication units along
// coordinating-conjunction boundaries. The two-token sequence "so that" is
// subordinating and is checked before the general rule. Words are never
// dropped or reordered; the only changes are unit boundaries and the
// capitalization of "and" when it opens a new unit.
func Segment(text, speaker string) []CUnit {
	content := strings.TrimSpace(text)
	content = strings.TrimSpace(strings.TrimPrefix(content, speaker+":"))

	if content == "" {
		return []CUnit{{Speaker: speaker, Content: ""}}
	}

	words := strings.Fields(content)
	var units []CUnit
	var current []string

	for i := 0; i < len(words); i++ {
		word := strings.ToLower(stripTerminal(words[i]))

		// "so that" introduces a purpose clause, not a new unit.
		if word == "so" && i+1 < len(words) &&
			strings.ToLower(stripTerminal(words[i+1])) == "that" {
			current = append(current, words[i], words[i+1])
			i++
			continue
		}

		// "go and get", "come and see": serial verb chain, one unit.
		if word == "and" && len(current) > 0 &&
			serialVerbHeads[strings.ToLower(stripTerminal(current[len(current)-1]))] {
			current = append(current, words[i])
			continue
		}

		if coordinatingConjunctions[word] && len(current) > 0 {
			units = append(units, CUnit{Speaker: speaker, Content: strings.Join(current, " ")})
			first := words[i]
			if word == "and" {
				first = capitalize(words[i])
			}
			current = []string{first}
			continue
		}

		current = append(current, words[i])
	}

	if len(current) > 0 {
		units = append(units, CUnit{Speaker: speaker, Content: strings.Join(current, " ")})
	}

	if len(units) == 0 {
		return []CUnit{{Speaker: speaker, Content: content}}
	}
	return units
}

// capitalize upper-cases the first letter, leaving the rest of the word alone
func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
