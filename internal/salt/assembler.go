// Package salt implements the deterministic rule engine that rewrites raw
// time-stamped dialogue transcripts into SALT-convention output: pause
// codes, communication-unit segmentation, maze and filled-pause markup, and
// bound-morpheme marking. The engine is a single forward pass; all
// per-document state lives in the pass itself so concurrent documents never
// share anything.
package salt

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/speechpath/saltd/pkg/logger"
)

// EndMarker is the placeholder terminal line. The true end time is supplied
// by a later refinement stage, not by the rule engine.
const EndMarker = "# END_MARKER - Final time to be determined by LLM"

var clockMarker = regexp.MustCompile(`\[(\d{2}:\d{2}:\d{2})\]`)

// lineKind tags the result of classifying one raw input line
type lineKind int

const (
	lineBlank lineKind = iota
	lineTitle
	lineMarker
	lineContinuation
)

// rawLine is one classified input line
type rawLine struct {
	kind    lineKind
	clock   Timestamp
	content string
}

// classifyLine tags a raw input line for the assembler's state transition.
// The first line of a document without a clock marker is a title line and
// is dropped.
func classifyLine(index int, line string) rawLine {
	line = strings.TrimSpace(line)
	if line == "" {
		return rawLine{kind: lineBlank}
	}

	loc := clockMarker.FindStringSubmatchIndex(line)
	if loc == nil {
		if index == 0 {
			return rawLine{kind: lineTitle, content: line}
		}
		return rawLine{kind: lineContinuation, content: line}
	}

	clock := ParseClock(line[loc[2]:loc[3]])
	content := strings.TrimSpace(line[loc[1]:])
	return rawLine{kind: lineMarker, clock: clock, content: content}
}

// Processor assembles normalized transcripts from raw transcript text
type Processor struct {
	logger *logger.Logger
}

// NewProcessor creates a transcript processor
func NewProcessor(log *logger.Logger) *Processor {
	return &Processor{logger: log.Named("salt")}
}

// docState is the only state carried across lines of one document
type docState struct {
	prevClock   *Timestamp
	prevSpeaker string
}

// Process runs the full normalization pass over one raw transcript and
// returns the SALT-formatted text. sourceName is used only to derive the
// header title. The pass is total: any input, including empty or malformed
// text, produces a result.
func (p *Processor) Process(input, sourceName string) string {
	lines := strings.Split(strings.TrimSpace(input), "\n")
	out := make([]string, 0, len(lines)+4)

	out = append(out, headerTitle(sourceName), "")

	var state docState
	cunits := 0

	for i, raw := range lines {
		line := classifyLine(i, raw)

		switch line.kind {
		case lineBlank, lineTitle:
			continue

		case lineMarker:
			if state.prevClock == nil {
				out = append(out, line.clock.FormatInitial())
			} else {
				elapsed := Elapsed(*state.prevClock, line.clock)
				if pause := ClassifyPause(float64(elapsed)); pause.Kind == PauseTimed {
					out = append(out, pause.String())
				}
			}

			if line.content != "" {
				emitted := p.emitContent(line.content, &state)
				cunits += len(emitted)
				out = append(out, emitted...)
			}

			clock := line.clock
			state.prevClock = &clock

		case lineContinuation:
			// Continuation text gets lexical cleanup only, no segmentation.
			out = append(out, Clean(line.content))
		}
	}

	if state.prevClock != nil {
		out = append(out, "", EndMarker)
	}

	p.logger.Debug("Processed transcript",
		logger.String("source", sourceName),
		logger.Int("input_lines", len(lines)),
		logger.Int("cunits", cunits))

	return strings.Join(out, "\n")
}

// emitContent runs the content pipeline over the text trailing a clock
// marker and returns the lines to emit. Lines without a recognized speaker
// prefix are emitted unsegmented.
func (p *Processor) emitContent(content string, state *docState) []string {
	clean := Clean(content)

	speaker := Speaker(clean)
	if speaker == "" {
		return []string{clean}
	}
	state.prevSpeaker = speaker

	units := Segment(clean, speaker)
	lines := make([]string, 0, len(units))
	for _, u := range units {
		lines = append(lines, u.Line())
	}
	return lines
}

// headerTitle derives the transcript title from the source file name
func headerTitle(sourceName string) string {
	base := filepath.Base(sourceName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "(Descript generated)", "")
	return strings.TrimSpace(base)
}
