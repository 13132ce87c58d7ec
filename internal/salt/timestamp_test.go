package salt

import (
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Timestamp
	}{
		{"[00:01:30]", Timestamp{0, 1, 30}},
		{"01:02:03", Timestamp{1, 2, 3}},
		{" [10:00:00] ", Timestamp{10, 0, 0}},
		{"not a clock", Timestamp{}},
		{"12:34", Timestamp{}},
		{"aa:bb:cc", Timestamp{}},
		{"", Timestamp{}},
	}

	for _, tt := range tests {
		if got := ParseClock(tt.in); got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestElapsed(t *testing.T) {
	prev := Timestamp{0, 1, 0}
	curr := Timestamp{0, 1, 30}

	if got := Elapsed(prev, curr); got != 30 {
		t.Errorf("Elapsed = %d, want 30", got)
	}

	// Out-of-order markers produce a negative value; the classifier is
	// responsible for treating it as no pause.
	if got := Elapsed(curr, prev); got != -30 {
		t.Errorf("Elapsed reversed = %d, want -30", got)
	}
}

func TestClassifyPause_Threshold(t *testing.T) {
	if pc := ClassifyPause(1.4999); pc.Kind != PauseNone {
		t.Errorf("1.4999s: expected PauseNone, got %v", pc.Kind)
	}
	if pc := ClassifyPause(1.5); pc.Kind != PauseTimed {
		t.Errorf("1.5s: expected PauseTimed, got %v", pc.Kind)
	}
}

func TestClassifyPause_NegativeElapsed(t *testing.T) {
	if pc := ClassifyPause(-30); pc.Kind != PauseNone {
		t.Errorf("negative elapsed: expected PauseNone, got %v", pc.Kind)
	}
}

func TestClassifyPause_Tiers(t *testing.T) {
	tests := []struct {
		elapsed float64
		seconds int
	}{
		{1.5, 2},
		{2, 2},
		{3, 3},
		{4, 3},  // short pauses cap at 3
		{5, 5},
		{8, 6},  // medium pauses cap at 6
		{12, 12},
		{16, 16},
		{100, 16},
		{1000, 16}, // format maximum
	}

	for _, tt := range tests {
		pc := ClassifyPause(tt.elapsed)
		if pc.Kind != PauseTimed {
			t.Errorf("elapsed %.1f: expected PauseTimed, got %v", tt.elapsed, pc.Kind)
			continue
		}
		if pc.Seconds != tt.seconds {
			t.Errorf("elapsed %.1f: seconds = %d, want %d", tt.elapsed, pc.Seconds, tt.seconds)
		}
	}
}

func TestPauseCode_String(t *testing.T) {
	tests := []struct {
		code PauseCode
		want string
	}{
		{PauseCode{Kind: PauseNone}, ""},
		{PauseCode{Kind: PauseShort}, "; "},
		{PauseCode{Kind: PauseTimed, Seconds: 2}, "; :02"},
		{PauseCode{Kind: PauseTimed, Seconds: 16}, "; :16"},
	}

	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("PauseCode%v.String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestFormatInitial(t *testing.T) {
	tests := []struct {
		ts   Timestamp
		want string
	}{
		{Timestamp{0, 0, 0}, "-0:00"},
		{Timestamp{0, 1, 5}, "-1:05"},
		{Timestamp{0, 12, 30}, "-12:30"},
		{Timestamp{1, 2, 3}, "-62:03"}, // hours fold into minutes
	}

	for _, tt := range tests {
		if got := tt.ts.FormatInitial(); got != tt.want {
			t.Errorf("FormatInitial(%v) = %q, want %q", tt.ts, got, tt.want)
		}
	}
}
