package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConsoleHandlerRendersComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	WithComponent(logger, "store").Info("episode saved", slog.Int64(FieldEpisodeID, 7))

	line := buf.String()
	if !strings.Contains(line, "[store]") {
		t.Fatalf("expected component tag in %q", line)
	}
	if !strings.Contains(line, "episode_id=7") {
		t.Fatalf("expected attr in %q", line)
	}
	if strings.Contains(line, colorReset) {
		t.Fatalf("expected no color codes for non-terminal writer: %q", line)
	}
}

func TestConsoleHandlerQuotesSpacedValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar), false))

	logger.Info("created", slog.String("title", "The Beginning"))

	if !strings.Contains(buf.String(), `title="The Beginning"`) {
		t.Fatalf("expected quoted value in %q", buf.String())
	}
}

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "interlude.log")

	logger, err := New(Options{Level: "debug", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hello", slog.String("k", "v"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("expected JSON record, got %q", string(data))
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Fatalf("unexpected level: %v", got)
	}
	if got := parseLevel("WARN"); got != slog.LevelWarn {
		t.Fatalf("unexpected level: %v", got)
	}
}
