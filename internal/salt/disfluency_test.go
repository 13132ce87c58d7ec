package salt

import (
	"strings"
	"testing"
)

func TestMarkRepetitions_CommaPair(t *testing.T) {
	in := "I, I do not"
	want := "(I) I do not"
	if got := MarkRepetitions(in); got != want {
		t.Errorf("MarkRepetitions(%q) = %q, want %q", in, got, want)
	}
}

func TestMarkRepetitions_BarePair(t *testing.T) {
	in := "we we went home"
	want := "(we) we went home"
	if got := MarkRepetitions(in); got != want {
		t.Errorf("MarkRepetitions(%q) = %q, want %q", in, got, want)
	}
}

func TestMarkRepetitions_CaseInsensitive(t *testing.T) {
	in := "Well well that happened"
	want := "(Well) well that happened"
	if got := MarkRepetitions(in); got != want {
		t.Errorf("MarkRepetitions(%q) = %q, want %q", in, got, want)
	}
}

func TestMarkRepetitions_StopWords(t *testing.T) {
	for _, word := range []string{"the", "a", "an", "to"} {
		in := word + " " + word + " house"
		if got := MarkRepetitions(in); got != in {
			t.Errorf("stop word %q: MarkRepetitions(%q) = %q, want unchanged", word, in, got)
		}
	}
}

func TestMarkRepetitions_NoOverlap(t *testing.T) {
	// Three in a row: only the first adjacent pair is wrapped, the scan
	// resumes after the resolved form.
	in := "no no no way"
	want := "(no) no no way"
	if got := MarkRepetitions(in); got != want {
		t.Errorf("MarkRepetitions(%q) = %q, want %q", in, got, want)
	}
}

func TestMarkFilledPauses_Vocabulary(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"um I think so", "(um [FP]) I think so"},
		{"Uh let me see", "(Uh [FP]) let me see"},
		{"oh that is nice", "(oh [FP]) that is nice"},
	}

	for _, tt := range tests {
		if got := MarkFilledPauses(tt.in); got != tt.want {
			t.Errorf("MarkFilledPauses(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkFilledPauses_PunctuationStaysOutside(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"um, I think so", "(um [FP]), I think so"},
		{"I see. hmm.", "I see. (hmm [FP])."},
	}

	for _, tt := range tests {
		if got := MarkFilledPauses(tt.in); got != tt.want {
			t.Errorf("MarkFilledPauses(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkFilledPauses_NonVocabularyUntouched(t *testing.T) {
	in := "the umbrella is ahead"
	if got := MarkFilledPauses(in); got != in {
		t.Errorf("MarkFilledPauses(%q) = %q, want unchanged", in, got)
	}
}

// contentWords strips markup characters and lower-cases so word
// preservation can be compared across markup insertion.
func contentWords(s string) []string {
	clean := strings.NewReplacer("(", "", ")", "", "[FP]", "").Replace(s)
	fields := strings.Fields(strings.ToLower(clean))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := strings.Trim(f, ".,!?"); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func TestDisfluency_PreservesWords(t *testing.T) {
	inputs := []string{
		"I, I do not know",
		"um well well that was uh strange.",
		"no no no never mind",
	}

	for _, in := range inputs {
		out := MarkFilledPauses(MarkRepetitions(in))
		got := contentWords(out)
		want := contentWords(in)

		if len(got) != len(want) {
			t.Errorf("word count changed for %q: got %v, want %v", in, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("word order changed for %q: got %v, want %v", in, got, want)
				break
			}
		}
	}
}
