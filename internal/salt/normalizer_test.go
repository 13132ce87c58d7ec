package salt

import "testing"

func TestNormalize_SpeakerAliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Avatar: hello there", "Av: hello there"},
		{"Participant: good morning", "P: good morning"},
		{"P: already canonical", "P: already canonical"},
		{"Av: already canonical", "Av: already canonical"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Redactions(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my name is [redacted] okay", "my name is {redacted} okay"},
		{"my name is [Redacted] okay", "my name is {redacted} okay"},
		{"my name is [REDACTED] okay", "my name is {redacted} okay"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Whitespace(t *testing.T) {
	in := "  P:   too    much\t\tspace  "
	want := "P: too much space"
	if got := Normalize(in); got != want {
		t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
	}
}

func TestTidyPunctuation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello there .", "hello there."},
		{"really !", "really!"},
		{"is that so ?", "is that so?"},
		{"no change.", "no change."},
	}

	for _, tt := range tests {
		if got := TidyPunctuation(tt.in); got != tt.want {
			t.Errorf("TidyPunctuation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSpeaker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"P: hello", "P"},
		{"Av: hello", "Av"},
		{"hello with no speaker", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Speaker(tt.in); got != tt.want {
			t.Errorf("Speaker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClean_TotalOnAnyInput(t *testing.T) {
	inputs := []string{"", " ", "\t\n", "???", "((()))", "P:"}
	for _, in := range inputs {
		// Must not panic and must return something.
		_ = Clean(in)
	}
}
