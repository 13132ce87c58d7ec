package salt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timestamp is a wall-clock position within the source recording
type Timestamp struct {
	Hours   int
	Minutes int
	Seconds int
}

// ParseClock parses a "HH:MM:SS" clock marker, with or without the
// surrounding brackets. Malformed input yields the zero timestamp rather
// than an error so that a bad marker degrades to "start of recording"
// instead of aborting the document.
func ParseClock(s string) Timestamp {
	clean := strings.Trim(strings.TrimSpace(s), "[]")
	parts := strings.Split(clean, ":")
	if len(parts) != 3 {
		return Timestamp{}
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return Timestamp{}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return Timestamp{}
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return Timestamp{}
	}
	if h < 0 || m < 0 || sec < 0 {
		return Timestamp{}
	}

	return Timestamp{Hours: h, Minutes: m, Seconds: sec}
}

// TotalSeconds returns the timestamp as seconds from the start of the recording
func (t Timestamp) TotalSeconds() int {
	return t.Hours*3600 + t.Minutes*60 + t.Seconds
}

// IsZero reports whether the timestamp is the zero value
func (t Timestamp) IsZero() bool {
	return t.Hours == 0 && t.Minutes == 0 && t.Seconds == 0
}

// FormatInitial renders the absolute time marker emitted for the first
// clock marker of a transcript: "-M:SS" with minutes counted from the
// start of the recording.
func (t Timestamp) FormatInitial() string {
	totalMinutes := t.Hours*60 + t.Minutes
	if totalMinutes == 0 && t.Seconds == 0 {
		return "-0:00"
	}
	return fmt.Sprintf("-%d:%02d", totalMinutes, t.Seconds)
}

// Elapsed returns the whole seconds between two timestamps. The result is
// negative when curr precedes prev; ClassifyPause treats that as no pause.
func Elapsed(prev, curr Timestamp) int {
	return curr.TotalSeconds() - prev.TotalSeconds()
}

// PauseKind identifies the kind of inter-utterance pause code
type PauseKind int

const (
	// PauseNone - elapsed time below the significance threshold, no code emitted
	PauseNone PauseKind = iota
	// PauseShort - a bare pause symbol with no duration field
	PauseShort
	// PauseTimed - a pause with an explicit duration field
	PauseTimed
)

// PauseCode is a classified inter-utterance pause
type PauseCode struct {
	Kind    PauseKind
	Seconds int
}

const (
	// pauseThresholdSeconds is the minimum elapsed time considered a significant pause
	pauseThresholdSeconds = 1.5
	// maxPauseSeconds is the largest duration the two-digit field can carry
	maxPauseSeconds = 16
)

// ClassifyPause buckets an elapsed duration into a pause code. Durations
// below the significance threshold (and negative durations, which indicate
// an out-of-order marker) yield PauseNone. Short and medium pauses cap at
// 3 and 6 seconds, long pauses at the format maximum of 16.
func ClassifyPause(elapsedSeconds float64) PauseCode {
	if elapsedSeconds < pauseThresholdSeconds {
		return PauseCode{Kind: PauseNone}
	}

	rounded := int(math.Round(elapsedSeconds))
	var seconds int
	switch {
	case rounded < 2:
		seconds = 2
	case rounded < 5:
		seconds = min(rounded, 3)
	case rounded < 10:
		seconds = min(rounded, 6)
	default:
		seconds = min(rounded, maxPauseSeconds)
	}

	return PauseCode{Kind: PauseTimed, Seconds: seconds}
}

// String renders the pause code as a transcript line. PauseNone renders as
// an empty string and must not be emitted by callers.
func (p PauseCode) String() string {
	switch p.Kind {
	case PauseShort:
		return "; "
	case PauseTimed:
		return fmt.Sprintf("; :%02d", p.Seconds)
	default:
		return ""
	}
}
