package templating

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/speechpath/saltd/pkg/logger"
)

func testEngine(t *testing.T, reload bool) *Engine {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewEngine(reload, log)
}

func writeTemplate(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

func TestRenderTemplate(t *testing.T) {
	path := writeTemplate(t, "Title: {{.Title}}\n\n{{.Transcript}}")
	engine := testEngine(t, false)

	got, err := engine.RenderTemplate(path, TemplateData{
		Title:      "Session 1",
		Transcript: "P: Hello.\n",
	}, DefaultFormattingOptions())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(got, "Title: Session 1") {
		t.Errorf("title missing from render: %q", got)
	}
	if !strings.Contains(got, "P: Hello.") {
		t.Errorf("transcript missing from render: %q", got)
	}
}

func TestRenderTemplate_CachesParsedTemplate(t *testing.T) {
	path := writeTemplate(t, "{{.Title}}")
	engine := testEngine(t, false)

	if _, err := engine.RenderTemplate(path, TemplateData{Title: "a"}, DefaultFormattingOptions()); err != nil {
		t.Fatalf("render: %v", err)
	}

	stats := engine.GetCacheStats()
	if stats["cached_template_count"].(int) != 1 {
		t.Errorf("expected 1 cached template, got %v", stats["cached_template_count"])
	}

	// Removing the file must not break subsequent renders from cache.
	os.Remove(path)
	if _, err := engine.RenderTemplate(path, TemplateData{Title: "b"}, DefaultFormattingOptions()); err != nil {
		t.Errorf("render from cache: %v", err)
	}
}

func TestRenderTemplate_ReloadMode(t *testing.T) {
	path := writeTemplate(t, "v1 {{.Title}}")
	engine := testEngine(t, true)

	if _, err := engine.RenderTemplate(path, TemplateData{Title: "x"}, DefaultFormattingOptions()); err != nil {
		t.Fatalf("render: %v", err)
	}

	if err := os.WriteFile(path, []byte("v2 {{.Title}}"), 0o644); err != nil {
		t.Fatalf("rewrite template: %v", err)
	}

	got, err := engine.RenderTemplate(path, TemplateData{Title: "x"}, DefaultFormattingOptions())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(got, "v2") {
		t.Errorf("reload mode must pick up template changes, got %q", got)
	}
}

func TestRenderTemplate_MissingFile(t *testing.T) {
	engine := testEngine(t, false)
	if _, err := engine.RenderTemplate(filepath.Join(t.TempDir(), "nope.tmpl"), TemplateData{}, DefaultFormattingOptions()); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestFormatTranscript_Truncation(t *testing.T) {
	body := strings.Repeat("P: A line of speech.\n", 100)

	got := FormatTranscript(body, 200)
	if len(got) > 200+len(truncationNotice)+1 {
		t.Errorf("truncated transcript too long: %d bytes", len(got))
	}
	if !strings.HasSuffix(got, truncationNotice) {
		t.Errorf("expected truncation notice, got %q", got[len(got)-40:])
	}
	// Cut must land on a line boundary.
	beforeNotice := strings.TrimSuffix(got, "\n"+truncationNotice)
	if strings.HasSuffix(beforeNotice, "speec") {
		t.Errorf("transcript cut mid-line: %q", beforeNotice[len(beforeNotice)-30:])
	}
}

func TestFormatTranscript_NoTruncationNeeded(t *testing.T) {
	if got := FormatTranscript("\nP: Hi.\n", 1024); got != "P: Hi." {
		t.Errorf("got %q", got)
	}
}
