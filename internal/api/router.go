package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/speechpath/saltd/internal/config"
	"github.com/speechpath/saltd/internal/ingest"
	"github.com/speechpath/saltd/internal/storage/sqlite"
	"github.com/speechpath/saltd/internal/templating"
	"github.com/speechpath/saltd/internal/websocket"
	"github.com/speechpath/saltd/pkg/logger"
)

// Router builds the HTTP routing tree for the API and transcript output files
type Router struct {
	handler *Handler
	config  *config.Config
	logger  *logger.Logger
}

// NewRouter creates a new router
func NewRouter(ingestService *ingest.Service, config *config.Config, logger *logger.Logger, wsServer *websocket.Server, transcriptStorage *sqlite.TranscriptStorage, evaluationStorage *sqlite.EvaluationStorage, templatingService *templating.Service) *Router {
	return &Router{
		handler: NewHandler(ingestService, config, logger, wsServer, transcriptStorage, evaluationStorage, templatingService),
		config:  config,
		logger:  logger.Named("api-router"),
	}
}

// Routes returns the assembled chi router
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(rt.config.Server.CORSAllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", rt.handler.GetHealth)

		r.Route("/transcripts", func(r chi.Router) {
			r.Get("/", rt.handler.GetTranscripts)
			r.Post("/", rt.handler.UploadTranscript)
			r.Get("/{id}", rt.handler.GetTranscriptByID)
			r.Get("/{id}/evaluations", rt.handler.GetEvaluationsByTranscript)
		})

		r.Get("/evaluations", rt.handler.GetEvaluations)
		r.Post("/evaluate", rt.handler.EvaluateTranscript)

		r.Post("/templates/reload", rt.handler.ReloadTemplates)
	})

	r.Get("/ws", rt.handler.HandleWebSocket)

	if dir := rt.config.Storage.OutputDir; dir != "" {
		rt.logger.Info("Serving transcript output files", logger.String("dir", dir))
		r.Get("/files/{name}", NewOutputFileHandler(dir, rt.logger).ServeHTTP)
	}

	return r
}

// corsMiddleware applies the configured CORS policy to every response
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
