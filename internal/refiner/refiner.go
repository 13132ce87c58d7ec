// Package refiner runs the background LLM pass over processed transcripts.
// The rule engine gets the mechanical coding right; the model's job is the
// judgment calls the rules cannot make (end-time estimation, maze
// boundaries in long utterances). Structural lines are never delegated:
// whatever the model returns, markers and pause codes come from the
// original.
package refiner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/speechpath/saltd/internal/ai"
	"github.com/speechpath/saltd/internal/config"
	"github.com/speechpath/saltd/internal/storage/sqlite"
	"github.com/speechpath/saltd/internal/templating"
	"github.com/speechpath/saltd/internal/websocket"
	"github.com/speechpath/saltd/pkg/logger"
)

// defaultSystemPrompt is used when no prompt template is configured
const defaultSystemPrompt = `You are a speech-language transcript editor working with SALT conventions.
You will receive a coded transcript. Improve only the speech lines: fix maze boundaries, filled-pause tags, and bound-morpheme markings where the rule-based coding is wrong, and replace the END_MARKER line's placeholder with the final time if it can be inferred.
Keep every line in order. Do not add, remove, or merge lines. Do not change time markers or pause code lines. Return the full transcript and nothing else.`

// TemplateRenderer is an interface for rendering the refinement prompt
type TemplateRenderer interface {
	RenderRefinerTemplate(templatePath string, data templating.TemplateData) (string, error)
}

// Refiner manages the background refinement of processed transcripts
type Refiner struct {
	ctx          context.Context
	cancel       context.CancelFunc
	storage      *sqlite.TranscriptStorage
	chatProvider ai.ChatProvider
	wsServer     *websocket.Server
	renderer     TemplateRenderer
	logger       *logger.Logger
	config       config.RefinementConfig
	interval     time.Duration
	batchSize    int
	wg           sync.WaitGroup
}

// NewRefiner creates a new refiner
func NewRefiner(
	ctx context.Context,
	storage *sqlite.TranscriptStorage,
	chatProvider ai.ChatProvider,
	wsServer *websocket.Server,
	renderer TemplateRenderer,
	cfg config.RefinementConfig,
	logger *logger.Logger,
) (*Refiner, error) {
	if chatProvider == nil {
		return nil, fmt.Errorf("chat provider is required for refinement")
	}

	refCtx, refCancel := context.WithCancel(ctx)

	return &Refiner{
		ctx:          refCtx,
		cancel:       refCancel,
		storage:      storage,
		chatProvider: chatProvider,
		wsServer:     wsServer,
		renderer:     renderer,
		logger:       logger.Named("refiner"),
		config:       cfg,
		interval:     time.Duration(cfg.IntervalSeconds) * time.Second,
		batchSize:    cfg.BatchSize,
	}, nil
}

// Start starts the refinement loop
func (r *Refiner) Start() error {
	if !r.config.Enabled {
		r.logger.Info("Refinement is disabled, not starting")
		return nil
	}

	r.logger.Info("Starting refinement loop",
		logger.Int("interval_seconds", r.config.IntervalSeconds),
		logger.Int("batch_size", r.batchSize))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				r.logger.Info("Refinement loop stopped due to context cancellation")
				return
			case <-ticker.C:
				if err := r.processNextBatch(); err != nil {
					r.logger.Error("Error processing batch", logger.Error(err))
				}
			}
		}
	}()
	return nil
}

// Stop stops the refinement loop
func (r *Refiner) Stop() error {
	r.logger.Info("Stopping refinement loop")
	r.cancel()
	r.wg.Wait()
	return nil
}

// processNextBatch refines the next batch of pending transcripts
func (r *Refiner) processNextBatch() error {
	records, err := r.storage.GetUnrefined(r.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get unrefined transcripts: %w", err)
	}

	if len(records) == 0 {
		r.logger.Debug("No unrefined transcripts found")
		return nil
	}

	r.logger.Debug("Refining batch of transcripts", logger.Int("count", len(records)))

	for _, record := range records {
		if err := r.refineTranscript(record); err != nil {
			r.logger.Error("Failed to refine transcript",
				logger.Error(err),
				logger.Int64("id", record.ID))
		}
	}

	return nil
}

// refineTranscript runs one transcript through the model and stores the result
func (r *Refiner) refineTranscript(record *sqlite.TranscriptRecord) error {
	systemPrompt, err := r.systemPrompt(record)
	if err != nil {
		r.markFailed(record, "[TEMPLATE_RENDER_FAILED]")
		return err
	}

	messages := []ai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: record.Content},
	}

	ctx, cancel := context.WithTimeout(r.ctx, time.Duration(r.config.TimeoutSeconds)*time.Second)
	defer cancel()

	response, err := r.chatProvider.ChatCompletion(ctx, messages, ai.ChatConfig{
		Model:       r.config.Model,
		Temperature: r.config.Temperature,
		MaxTokens:   r.config.MaxOutputTokens,
	})
	if err != nil {
		r.markFailed(record, "[PROCESSING_FAILED]")
		return fmt.Errorf("chat completion failed: %w", err)
	}

	if strings.TrimSpace(response) == "" {
		r.markFailed(record, "[EMPTY_RESPONSE]")
		return fmt.Errorf("empty response from model for transcript %d", record.ID)
	}

	merged := MergeRefined(record.Content, response)

	if err := r.storage.UpdateRefined(record.ID, merged); err != nil {
		return fmt.Errorf("failed to store refined transcript: %w", err)
	}

	r.logger.Info("Transcript refined",
		logger.Int64("id", record.ID),
		logger.String("title", record.Title))

	r.broadcastRefined(record.ID)
	return nil
}

// systemPrompt renders the configured prompt template, falling back to the
// built-in prompt when none is configured.
func (r *Refiner) systemPrompt(record *sqlite.TranscriptRecord) (string, error) {
	if r.config.SystemPromptPath == "" || r.renderer == nil {
		return defaultSystemPrompt, nil
	}

	return r.renderer.RenderRefinerTemplate(r.config.SystemPromptPath, templating.TemplateData{
		Title:      record.Title,
		Transcript: record.Content,
	})
}

// markFailed records a refinement failure
func (r *Refiner) markFailed(record *sqlite.TranscriptRecord, reason string) {
	if err := r.storage.MarkRefineFailed(record.ID, reason); err != nil {
		r.logger.Error("Failed to mark transcript as failed",
			logger.Error(err),
			logger.Int64("id", record.ID))
	}
}

// broadcastRefined notifies connected clients that a transcript was refined
func (r *Refiner) broadcastRefined(id int64) {
	if r.wsServer == nil {
		return
	}
	r.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeTranscriptRefined,
		Data: map[string]any{"id": id},
	})
}

// structuralLine reports whether a transcript line carries coding
// structure (time marker, pause code, end marker) rather than speech.
// Structural lines always survive refinement unchanged.
func structuralLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	switch trimmed[0] {
	case '#', '-', ';':
		return true
	}
	return false
}

// MergeRefined merges the model's output back into the original transcript.
// Structural lines come from the original; speech lines take the model's
// corresponding output when it is non-empty, original otherwise. Extra
// model lines are dropped and missing ones fall back to the original, so a
// misbehaving model can never corrupt transcript structure.
func MergeRefined(original, refined string) string {
	origLines := strings.Split(original, "\n")

	var refinedSpeech []string
	var refinedEndMarker string
	for _, line := range strings.Split(refined, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# END_MARKER") {
			refinedEndMarker = trimmed
			continue
		}
		if !structuralLine(line) {
			refinedSpeech = append(refinedSpeech, trimmed)
		}
	}

	out := make([]string, 0, len(origLines))
	next := 0
	for _, line := range origLines {
		if structuralLine(line) {
			// The end-time estimate is the one structural edit the model
			// is allowed to make.
			if strings.HasPrefix(line, "# END_MARKER") && refinedEndMarker != "" {
				out = append(out, refinedEndMarker)
				continue
			}
			out = append(out, line)
			continue
		}

		if next < len(refinedSpeech) && refinedSpeech[next] != "" {
			out = append(out, refinedSpeech[next])
		} else {
			out = append(out, line)
		}
		next++
	}

	return strings.Join(out, "\n")
}
