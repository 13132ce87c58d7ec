package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/speechpath/saltd/internal/ai"
	"github.com/speechpath/saltd/internal/ai/gemini"
	"github.com/speechpath/saltd/internal/ai/openai"
	"github.com/speechpath/saltd/internal/api"
	"github.com/speechpath/saltd/internal/config"
	"github.com/speechpath/saltd/internal/ingest"
	"github.com/speechpath/saltd/internal/refiner"
	"github.com/speechpath/saltd/internal/salt"
	"github.com/speechpath/saltd/internal/storage/sqlite"
	"github.com/speechpath/saltd/internal/templating"
	"github.com/speechpath/saltd/internal/websocket"
	"github.com/speechpath/saltd/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting saltd server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Ensure the database directory exists
	if err := os.MkdirAll(cfg.Storage.SQLiteBasePath, 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", cfg.Storage.SQLiteBasePath))
		os.Exit(1)
	}

	dbPath := sqlite.DailyPath(cfg.Storage.SQLiteBasePath)
	log.Info("Using daily database", logger.String("path", dbPath))

	db, err := sqlite.Open(dbPath, log)
	if err != nil {
		log.Error("Failed to open SQLite database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Create storage layers
	transcriptStorage := sqlite.NewTranscriptStorage(db, log)
	evaluationStorage := sqlite.NewEvaluationStorage(db, log)

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	wsServer.SetMessageHandler(api.NewWebSocketHandler(transcriptStorage, cfg, log))

	// Start WebSocket server
	go wsServer.Run()

	// Create the normalization engine
	processor := salt.NewProcessor(log)

	// Create templating service (if enabled)
	var templateService *templating.Service
	if cfg.Templating.Enabled {
		templateService = templating.NewService(cfg.Templating, log)
	} else {
		log.Info("Templating disabled, refiner will use the built-in prompt")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create ingest service
	ingestService := ingest.NewService(
		ctx,
		processor,
		transcriptStorage,
		evaluationStorage,
		wsServer,
		cfg.Ingest,
		cfg.Evaluation,
		cfg.Storage.OutputDir,
		log,
	)

	if err := ingestService.Start(); err != nil {
		log.Error("Failed to start ingest service", logger.Error(err))
		os.Exit(1)
	}

	// Create refinement service (if enabled)
	var refinerService *refiner.Refiner
	if cfg.Refinement.Enabled {
		chatProvider, err := newChatProvider(ctx, cfg.Refinement, log)
		if err != nil {
			log.Error("Failed to create chat provider", logger.Error(err))
			os.Exit(1)
		}

		var renderer refiner.TemplateRenderer
		if templateService != nil {
			renderer = templateService
		}

		refinerService, err = refiner.NewRefiner(
			ctx,
			transcriptStorage,
			chatProvider,
			wsServer,
			renderer,
			cfg.Refinement,
			log,
		)
		if err != nil {
			log.Error("Failed to create refinement service", logger.Error(err))
			os.Exit(1)
		}
		if err := refinerService.Start(); err != nil {
			log.Error("Failed to start refinement service", logger.Error(err))
			os.Exit(1)
		}
	} else {
		log.Info("Refinement service disabled in configuration")
	}

	// Create API router
	router := api.NewRouter(ingestService, cfg, log, wsServer, transcriptStorage, evaluationStorage, templateService)

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	// Start a server for each configured port
	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router.Routes(), // All servers use the same main router
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Stop background services first
	log.Info("Stopping ingest service...")
	ingestService.Stop()
	log.Info("Ingest service stopped.")

	if refinerService != nil {
		log.Info("Stopping refinement service...")
		refinerService.Stop()
		log.Info("Refinement service stopped.")
	}

	// Cancel the main context
	cancel()

	// Shutdown all HTTP servers
	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}

// newChatProvider builds the configured LLM client for the refiner
func newChatProvider(ctx context.Context, cfg config.RefinementConfig, log *logger.Logger) (ai.ChatProvider, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Provider {
	case "gemini":
		return gemini.NewClient(ctx, cfg.APIKey, log)
	case "openai", "ollama":
		return openai.NewClient(cfg.APIKey, log, cfg.BaseURL, timeout), nil
	default:
		return nil, fmt.Errorf("unknown refinement provider: %s", cfg.Provider)
	}
}
