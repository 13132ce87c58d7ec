package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/speechpath/saltd/internal/config"
	"github.com/speechpath/saltd/internal/evaluation"
	"github.com/speechpath/saltd/internal/ingest"
	"github.com/speechpath/saltd/internal/storage/sqlite"
	"github.com/speechpath/saltd/internal/templating"
	"github.com/speechpath/saltd/internal/websocket"
	"github.com/speechpath/saltd/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	ingestService     *ingest.Service
	config            *config.Config
	logger            *logger.Logger
	wsServer          *websocket.Server
	transcriptStorage *sqlite.TranscriptStorage
	evaluationStorage *sqlite.EvaluationStorage
	templatingService *templating.Service
}

// NewHandler creates a new API handler
func NewHandler(ingestService *ingest.Service, config *config.Config, logger *logger.Logger, wsServer *websocket.Server, transcriptStorage *sqlite.TranscriptStorage, evaluationStorage *sqlite.EvaluationStorage, templatingService *templating.Service) *Handler {
	return &Handler{
		ingestService:     ingestService,
		config:            config,
		logger:            logger.Named("api-handler"),
		wsServer:          wsServer,
		transcriptStorage: transcriptStorage,
		evaluationStorage: evaluationStorage,
		templatingService: templatingService,
	}
}

// GetTranscripts returns stored transcripts with pagination
func (h *Handler) GetTranscripts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)
	if max := h.config.Storage.MaxTranscriptsAPI; max > 0 && limit > max {
		limit = max
	}

	transcripts, err := h.transcriptStorage.GetTranscripts(limit, offset)
	if err != nil {
		h.logger.Error("Failed to retrieve transcripts", logger.Error(err))
		http.Error(w, "Failed to retrieve transcripts", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"timestamp":   time.Now(),
		"count":       len(transcripts),
		"transcripts": transcripts,
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetTranscriptByID returns a single transcript
func (h *Handler) GetTranscriptByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid transcript ID", http.StatusBadRequest)
		return
	}

	transcript, err := h.transcriptStorage.GetTranscript(id)
	if err != nil {
		h.logger.Error("Failed to retrieve transcript",
			logger.Error(err),
			logger.Int64("id", id))
		http.Error(w, "Failed to retrieve transcript", http.StatusInternalServerError)
		return
	}
	if transcript == nil {
		http.Error(w, "Transcript not found", http.StatusNotFound)
		return
	}

	WriteJSON(w, http.StatusOK, transcript)
}

// UploadRequest is the body for direct transcript uploads
type UploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// UploadTranscript processes raw transcript text submitted over the API
func (h *Handler) UploadTranscript(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "Content is required", http.StatusBadRequest)
		return
	}
	if req.Filename == "" {
		req.Filename = "upload.txt"
	}

	record, err := h.ingestService.ProcessContent(req.Content, req.Filename)
	if err != nil {
		h.logger.Error("Failed to process uploaded transcript",
			logger.Error(err),
			logger.String("filename", req.Filename))
		http.Error(w, "Failed to process transcript", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusCreated, record)
}

// EvaluateRequest is the body for transcript evaluations. The generated
// side comes from storage by ID; the reference is supplied inline.
type EvaluateRequest struct {
	TranscriptID int64  `json:"transcript_id"`
	Reference    string `json:"reference"`
}

// EvaluateTranscript scores a stored transcript against a reference
func (h *Handler) EvaluateTranscript(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Reference) == "" {
		http.Error(w, "Reference transcript is required", http.StatusBadRequest)
		return
	}

	transcript, err := h.transcriptStorage.GetTranscript(req.TranscriptID)
	if err != nil {
		h.logger.Error("Failed to retrieve transcript for evaluation",
			logger.Error(err),
			logger.Int64("id", req.TranscriptID))
		http.Error(w, "Failed to retrieve transcript", http.StatusInternalServerError)
		return
	}
	if transcript == nil {
		http.Error(w, "Transcript not found", http.StatusNotFound)
		return
	}

	// Score the refined content when the refiner has finished with it.
	generated := transcript.Content
	if transcript.IsRefined && transcript.ContentRefined != "" {
		generated = transcript.ContentRefined
	}

	metrics := evaluation.Evaluate(generated, req.Reference)
	overall := metrics.Overall()

	record := &sqlite.EvaluationRecord{
		TranscriptID: transcript.ID,
		CreatedAt:    time.Now().UTC(),
		OverallScore: overall,
		Passed:       overall >= h.config.Evaluation.PassingThreshold,
		Metrics:      metrics,
	}

	id, err := h.evaluationStorage.StoreEvaluation(record)
	if err != nil {
		h.logger.Error("Failed to store evaluation", logger.Error(err))
		http.Error(w, "Failed to store evaluation", http.StatusInternalServerError)
		return
	}
	record.ID = id

	h.logger.Info("Evaluation completed",
		logger.Int64("transcript_id", transcript.ID),
		logger.Float64("overall_score", overall),
		logger.Bool("passed", record.Passed))

	h.broadcastEvaluation(record)

	WriteJSON(w, http.StatusOK, record)
}

// GetEvaluations returns stored evaluations with pagination
func (h *Handler) GetEvaluations(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)

	evaluations, err := h.evaluationStorage.GetEvaluations(limit, offset)
	if err != nil {
		h.logger.Error("Failed to retrieve evaluations", logger.Error(err))
		http.Error(w, "Failed to retrieve evaluations", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"timestamp":   time.Now(),
		"count":       len(evaluations),
		"evaluations": evaluations,
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetEvaluationsByTranscript returns all evaluations for one transcript
func (h *Handler) GetEvaluationsByTranscript(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid transcript ID", http.StatusBadRequest)
		return
	}

	evaluations, err := h.evaluationStorage.GetEvaluationsByTranscript(id)
	if err != nil {
		h.logger.Error("Failed to retrieve evaluations for transcript",
			logger.Error(err),
			logger.Int64("transcript_id", id))
		http.Error(w, "Failed to retrieve evaluations", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"timestamp":     time.Now(),
		"transcript_id": id,
		"count":         len(evaluations),
		"evaluations":   evaluations,
	}

	WriteJSON(w, http.StatusOK, response)
}

// ReloadTemplates forces all cached prompt templates to be reloaded from disk
func (h *Handler) ReloadTemplates(w http.ResponseWriter, r *http.Request) {
	if !h.config.Templating.Enabled || h.templatingService == nil {
		http.Error(w, "Templating is disabled", http.StatusServiceUnavailable)
		return
	}

	if err := h.templatingService.ReloadAllTemplates(); err != nil {
		h.logger.Error("Failed to reload templates", logger.Error(err))
		http.Error(w, "Failed to reload templates", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"timestamp": time.Now(),
		"cache":     h.templatingService.GetCacheStats(),
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetHealth returns a basic liveness response
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "ok",
		"timestamp": time.Now(),
	}

	WriteJSON(w, http.StatusOK, response)
}

// HandleWebSocket handles WebSocket connections
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("WebSocket connection request received")

	h.wsServer.HandleConnection(w, r)
}

// broadcastEvaluation notifies connected clients about a finished evaluation
func (h *Handler) broadcastEvaluation(record *sqlite.EvaluationRecord) {
	if h.wsServer == nil {
		return
	}
	h.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeEvaluationCompleted,
		Data: map[string]any{
			"id":            record.ID,
			"transcript_id": record.TranscriptID,
			"overall_score": record.OverallScore,
			"passed":        record.Passed,
		},
	})
}

// Helper functions
func parsePaginationParams(r *http.Request) (int, int) {
	limit := 100 // Default limit
	offset := 0  // Default offset

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
