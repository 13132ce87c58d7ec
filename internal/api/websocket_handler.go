package api

import (
	"fmt"
	"time"

	"github.com/speechpath/saltd/internal/config"
	"github.com/speechpath/saltd/internal/storage/sqlite"
	"github.com/speechpath/saltd/internal/websocket"
	"github.com/speechpath/saltd/pkg/logger"
)

// WebSocketHandler answers client-initiated WebSocket requests. Pushes for
// new, refined, and evaluated transcripts are broadcast by the services
// themselves; this handler only covers the request/response direction.
type WebSocketHandler struct {
	transcriptStorage *sqlite.TranscriptStorage
	maxTranscripts    int
	logger            *logger.Logger
}

// NewWebSocketHandler creates a handler over transcript storage
func NewWebSocketHandler(transcriptStorage *sqlite.TranscriptStorage, cfg *config.Config, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		transcriptStorage: transcriptStorage,
		maxTranscripts:    cfg.Storage.MaxTranscriptsAPI,
		logger:            log.Named("ws-handler"),
	}
}

// HandleMessage dispatches one incoming client message
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	switch messageType {
	case websocket.MessageTypeTranscriptListUpdate:
		return h.sendTranscriptList(client)
	default:
		return fmt.Errorf("unknown message type: %s", messageType)
	}
}

// sendTranscriptList replies to one client with the current transcript list
func (h *WebSocketHandler) sendTranscriptList(client *websocket.Client) error {
	transcripts, err := h.transcriptStorage.GetTranscripts(h.maxTranscripts, 0)
	if err != nil {
		return fmt.Errorf("failed to retrieve transcripts: %w", err)
	}

	if !client.SendMessage(&websocket.Message{
		Type: websocket.MessageTypeTranscriptListUpdate,
		Data: map[string]any{
			"timestamp":   time.Now(),
			"count":       len(transcripts),
			"transcripts": transcripts,
		},
	}) {
		h.logger.Warn("Dropped transcript list reply, client send buffer full")
	}

	return nil
}
