package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server     ServerConfig     `toml:"server"`     // HTTP server settings
	Logging    LoggingConfig    `toml:"logging"`    // Application logging settings
	Storage    StorageConfig    `toml:"storage"`    // Data persistence settings
	Ingest     IngestConfig     `toml:"ingest"`     // Transcript intake settings
	Refinement RefinementConfig `toml:"refinement"` // LLM transcript refinement settings
	Evaluation EvaluationConfig `toml:"evaluation"` // Transcript evaluation settings
	Templating TemplatingConfig `toml:"templating"` // Shared templating system settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts    []int    `toml:"additional_ports"`      // Additional HTTP ports to listen on (useful for multiple interfaces)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type              string `toml:"type"`                // Storage backend type (currently only "sqlite" is supported)
	SQLiteBasePath    string `toml:"sqlite_base_path"`    // Base path for SQLite database files (actual filename will be generated as saltd-YYYY-MM-DD.db)
	MaxTranscriptsAPI int    `toml:"max_transcripts_api"` // Maximum number of transcripts to return in list API responses
	OutputDir         string `toml:"output_dir"`          // Directory where formatted transcript files are written (empty = no file output)
}

// IngestConfig contains settings for the transcript intake scanner
type IngestConfig struct {
	Enabled          bool     `toml:"enabled"`               // Enable or disable the directory scanner
	WatchDir         string   `toml:"watch_dir"`             // Directory scanned for new transcript files
	ScanIntervalSecs int      `toml:"scan_interval_seconds"` // How often to scan the watch directory (in seconds)
	Extensions       []string `toml:"extensions"`            // File extensions accepted by the scanner (e.g., [".txt", ".docx"])
}

// RefinementConfig contains settings for LLM refinement of processed transcripts
type RefinementConfig struct {
	Enabled          bool    `toml:"enabled"`            // Enable or disable background refinement
	Provider         string  `toml:"provider"`           // LLM provider: "gemini", "openai", or "ollama"
	Model            string  `toml:"model"`              // Model name (e.g., "gemini-2.0-flash", "llama3.1:8b")
	APIKey           string  `toml:"api_key"`            // API key for the provider (not required for ollama)
	BaseURL          string  `toml:"base_url"`           // Base URL override for OpenAI-compatible providers (e.g., http://localhost:11434 for ollama)
	IntervalSeconds  int     `toml:"interval_seconds"`   // How often to run the refinement batch loop (in seconds)
	BatchSize        int     `toml:"batch_size"`         // Maximum number of transcripts to refine in each batch
	TimeoutSeconds   int     `toml:"timeout_seconds"`    // HTTP timeout for LLM API requests in seconds
	SystemPromptPath string  `toml:"system_prompt_path"` // Path to the refinement prompt template
	Temperature      float64 `toml:"temperature"`        // Sampling temperature for refinement requests
	MaxOutputTokens  int     `toml:"max_output_tokens"`  // Maximum tokens per refinement response (0 = provider default)
}

// EvaluationConfig contains settings for transcript quality evaluation
type EvaluationConfig struct {
	Enabled          bool    `toml:"enabled"`           // Enable or disable evaluation endpoints
	ReferenceDir     string  `toml:"reference_dir"`     // Directory holding reference transcripts for comparison
	PassingThreshold float64 `toml:"passing_threshold"` // Overall score at or above which a transcript is considered passing
}

// TemplatingConfig contains settings for the shared templating system
type TemplatingConfig struct {
	Enabled         bool   `toml:"enabled"`          // Enable or disable templating system
	TemplateDir     string `toml:"template_dir"`     // Directory holding prompt templates
	ReloadTemplates bool   `toml:"reload_templates"` // Whether to reload templates from disk on every render (development mode)
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// applyDefaults fills in values that have a sensible default when the
// config file leaves them unset.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.SQLiteBasePath == "" {
		c.Storage.SQLiteBasePath = "data"
	}
	if c.Storage.MaxTranscriptsAPI <= 0 {
		c.Storage.MaxTranscriptsAPI = 100
	}
	if len(c.Ingest.Extensions) == 0 {
		c.Ingest.Extensions = []string{".txt", ".docx"}
	}
	if c.Ingest.ScanIntervalSecs <= 0 {
		c.Ingest.ScanIntervalSecs = 30
	}
	if c.Refinement.IntervalSeconds <= 0 {
		c.Refinement.IntervalSeconds = 60
	}
	if c.Refinement.BatchSize <= 0 {
		c.Refinement.BatchSize = 5
	}
	if c.Refinement.TimeoutSeconds <= 0 {
		c.Refinement.TimeoutSeconds = 120
	}
	if c.Refinement.Temperature == 0 {
		c.Refinement.Temperature = 0.2
	}
	if c.Evaluation.PassingThreshold == 0 {
		c.Evaluation.PassingThreshold = 0.8
	}
	if c.Templating.TemplateDir == "" {
		c.Templating.TemplateDir = "prompts"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}

	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if err := c.ValidateIngest(); err != nil {
		return err
	}
	if err := c.ValidateRefinement(); err != nil {
		return err
	}

	return nil
}

// ValidateIngest validates the intake scanner configuration
func (c *Config) ValidateIngest() error {
	if !c.Ingest.Enabled {
		return nil
	}
	if c.Ingest.WatchDir == "" {
		return fmt.Errorf("ingest is enabled but watch_dir is not set")
	}
	return nil
}

// ValidateRefinement validates the refinement configuration
func (c *Config) ValidateRefinement() error {
	if !c.Refinement.Enabled {
		return nil
	}

	switch c.Refinement.Provider {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("unsupported refinement provider: %q (expected gemini, openai, or ollama)", c.Refinement.Provider)
	}

	if c.Refinement.Model == "" {
		return fmt.Errorf("refinement is enabled but model is not set")
	}

	if c.Refinement.Provider != "ollama" && c.Refinement.APIKey == "" {
		fmt.Printf("WARN: Refinement is enabled but no API key provided - refinement will be disabled\n")
	}

	return nil
}
