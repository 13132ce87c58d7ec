package templating

import (
	"github.com/speechpath/saltd/internal/config"
	"github.com/speechpath/saltd/pkg/logger"
)

// Service provides the main templating functionality
type Service struct {
	engine *Engine
	logger *logger.Logger
}

// NewService creates a new templating service
func NewService(cfg config.TemplatingConfig, logger *logger.Logger) *Service {
	engine := NewEngine(cfg.ReloadTemplates, logger)

	return &Service{
		engine: engine,
		logger: logger.Named("templating-service"),
	}
}

// RenderRefinerTemplate renders the refinement prompt template
func (s *Service) RenderRefinerTemplate(templatePath string, data TemplateData) (string, error) {
	data.Title = FormatTitle(data.Title)
	return s.engine.RenderTemplate(templatePath, data, RefinerFormattingOptions())
}

// ReloadAllTemplates forces all cached templates to be reloaded
func (s *Service) ReloadAllTemplates() error {
	return s.engine.ReloadAllTemplates()
}

// GetCacheStats returns statistics about the template cache
func (s *Service) GetCacheStats() map[string]any {
	return s.engine.GetCacheStats()
}
