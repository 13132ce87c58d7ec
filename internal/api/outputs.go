package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/speechpath/saltd/pkg/logger"
)

// OutputFileHandler serves the formatted .slt transcript files written by
// the ingest pipeline, so a coded transcript can be downloaded directly
// without going through the JSON API.
type OutputFileHandler struct {
	outputDir string
	logger    *logger.Logger
}

// NewOutputFileHandler creates a handler over the configured output directory
func NewOutputFileHandler(outputDir string, logger *logger.Logger) *OutputFileHandler {
	return &OutputFileHandler{
		outputDir: outputDir,
		logger:    logger.Named("output-files"),
	}
}

// ServeHTTP serves one output file by base name. Only .slt files directly
// inside the output directory are reachable.
func (h *OutputFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || filepath.Ext(name) != ".slt" {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.outputDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		h.logger.Debug("Output file not found", logger.String("name", name))
		http.NotFound(w, r)
		return
	}

	h.logger.Debug("Serving output file", logger.String("path", path))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, path)
}
