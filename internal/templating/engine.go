package templating

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"text/template"
	"time"

	"github.com/speechpath/saltd/pkg/logger"
)

// Engine handles template loading, caching, and rendering
type Engine struct {
	templateCache map[string]*template.Template
	cacheMutex    sync.RWMutex
	reload        bool // Reload templates from disk on every render (development mode)
	logger        *logger.Logger
}

// NewEngine creates a new template engine
func NewEngine(reload bool, logger *logger.Logger) *Engine {
	return &Engine{
		templateCache: make(map[string]*template.Template),
		reload:        reload,
		logger:        logger.Named("template-engine"),
	}
}

// RenderTemplate renders a template with the given data
func (e *Engine) RenderTemplate(templatePath string, data TemplateData, opts FormattingOptions) (string, error) {
	e.logger.Debug("Rendering template",
		logger.String("template_path", templatePath))

	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now().UTC()
	}
	if data.Time == "" {
		data.Time = data.Timestamp.Format(opts.TimeFormat)
	}
	data.Transcript = FormatTranscript(data.Transcript, opts.MaxTranscriptBytes)

	// Load template if not in cache
	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to get template: %w", err)
	}

	// Render the template
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	rendered := buf.String()
	e.logger.Debug("Template rendered successfully",
		logger.String("template_path", templatePath),
		logger.Int("rendered_length", len(rendered)))

	return rendered, nil
}

// getTemplate retrieves a template from cache or loads it from file
func (e *Engine) getTemplate(templatePath string) (*template.Template, error) {
	if e.reload {
		return e.loadTemplate(templatePath)
	}

	// Check cache first (read lock)
	e.cacheMutex.RLock()
	if tmpl, exists := e.templateCache[templatePath]; exists {
		e.cacheMutex.RUnlock()
		return tmpl, nil
	}
	e.cacheMutex.RUnlock()

	// Template not in cache, load it (write lock)
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	// Double-check in case another goroutine loaded it while we were waiting
	if tmpl, exists := e.templateCache[templatePath]; exists {
		return tmpl, nil
	}

	// Load template from file
	tmpl, err := e.loadTemplate(templatePath)
	if err != nil {
		return nil, err
	}

	// Cache the template
	e.templateCache[templatePath] = tmpl
	e.logger.Debug("Template loaded and cached",
		logger.String("template_path", templatePath))

	return tmpl, nil
}

// loadTemplate loads a template from file
func (e *Engine) loadTemplate(templatePath string) (*template.Template, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file '%s': %w", templatePath, err)
	}

	tmpl, err := template.New(templatePath).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template file '%s': %w", templatePath, err)
	}

	return tmpl, nil
}

// ReloadAllTemplates forces all cached templates to be reloaded from files
func (e *Engine) ReloadAllTemplates() error {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	var errors []string
	reloadedCount := 0

	for templatePath := range e.templateCache {
		tmpl, err := e.loadTemplate(templatePath)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", templatePath, err))
			continue
		}
		e.templateCache[templatePath] = tmpl
		reloadedCount++
	}

	if len(errors) > 0 {
		e.logger.Error("Some templates failed to reload",
			logger.Int("successful", reloadedCount),
			logger.Int("failed", len(errors)))
		return fmt.Errorf("failed to reload %d templates: %v", len(errors), errors)
	}

	e.logger.Info("All templates reloaded successfully",
		logger.Int("count", reloadedCount))

	return nil
}

// GetCacheStats returns statistics about the template cache
func (e *Engine) GetCacheStats() map[string]any {
	e.cacheMutex.RLock()
	defer e.cacheMutex.RUnlock()

	templates := make([]string, 0, len(e.templateCache))
	for path := range e.templateCache {
		templates = append(templates, path)
	}

	return map[string]any{
		"cached_template_count": len(e.templateCache),
		"cached_templates":      templates,
	}
}
