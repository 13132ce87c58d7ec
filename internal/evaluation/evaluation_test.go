package evaluation

import (
	"testing"
)

const sample = `Session 1

-0:05
P: Hello there.
; :03
Av: (Hi) Hi, how (um [FP]) are you?
P: He look/ed in the jar.

# END_MARKER - Final time to be determined by LLM`

func TestEvaluate_IdenticalTranscripts(t *testing.T) {
	m := Evaluate(sample, sample)

	checks := map[string]float64{
		"cunit_count":      m.CUnitCount,
		"content_words":    m.ContentWords,
		"pause_codes":      m.PauseCodes,
		"filled_pauses":    m.FilledPauses,
		"morphology":       m.Morphology,
		"speaker_balance":  m.SpeakerBalance,
		"structural_ratio": m.StructuralRatio,
	}
	for name, score := range checks {
		if score != 1.0 {
			t.Errorf("%s = %v for identical transcripts, want 1.0", name, score)
		}
	}
	if m.Overall() != 1.0 {
		t.Errorf("overall = %v for identical transcripts", m.Overall())
	}
}

func TestEvaluate_ScoresBounded(t *testing.T) {
	pairs := [][2]string{
		{sample, ""},
		{"", sample},
		{sample, "completely unrelated prose with no markup at all"},
		{"P: One.", "Av: Two."},
	}

	for _, pair := range pairs {
		m := Evaluate(pair[0], pair[1])
		scores := []float64{
			m.CUnitCount, m.ContentWords, m.PauseCodes, m.FilledPauses,
			m.Morphology, m.SpeakerBalance, m.StructuralRatio, m.Overall(),
		}
		for i, score := range scores {
			if score < 0 || score > 1 {
				t.Errorf("score %d out of range for %q vs %q: %v", i, pair[0], pair[1], score)
			}
		}
	}
}

func TestEvaluate_DetectsMissingMarkup(t *testing.T) {
	stripped := `Session 1

-0:05
P: Hello there.
Av: Hi Hi, how are you?
P: He looked in the jar.`

	m := Evaluate(stripped, sample)

	if m.FilledPauses == 1.0 {
		t.Error("filled-pause metric must penalize missing [FP] tags")
	}
	if m.Morphology == 1.0 {
		t.Error("morphology metric must penalize missing stem/suffix markings")
	}
	if m.PauseCodes == 1.0 {
		t.Error("pause metric must penalize missing pause codes")
	}
}

func TestCountRatio(t *testing.T) {
	tests := []struct {
		a, b int
		want float64
	}{
		{0, 0, 1.0},
		{3, 3, 1.0},
		{1, 2, 0.5},
		{0, 4, 0.0},
		{4, 0, 0.0},
	}
	for _, tt := range tests {
		if got := countRatio(tt.a, tt.b); got != tt.want {
			t.Errorf("countRatio(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestJaccard(t *testing.T) {
	a := map[string]bool{"the": true, "frog": true, "jumped": true}
	b := map[string]bool{"the": true, "frog": true, "slept": true}

	got := jaccard(a, b)
	if got != 0.5 {
		t.Errorf("jaccard = %v, want 0.5", got)
	}

	if jaccard(nil, nil) != 1.0 {
		t.Error("empty sets must agree perfectly")
	}
}
