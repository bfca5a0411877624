package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"animehub/internal/logging"
)

func TestNewConsoleWritesCompactLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "materialize")
	logger.Info("applied",
		logging.String(logging.FieldOutcome, "anime_created"),
		logging.Float64(logging.FieldConfidence, 0.85),
	)

	line := buf.String()
	if !strings.Contains(line, "[materialize]") {
		t.Fatalf("expected component tag in output, got %q", line)
	}
	if !strings.Contains(line, "outcome=anime_created") {
		t.Fatalf("expected outcome attr in output, got %q", line)
	}
	if !strings.Contains(line, "confidence=0.85") {
		t.Fatalf("expected confidence attr in output, got %q", line)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("event", logging.String(logging.FieldEventType, "FileResolved"))
	if !strings.Contains(buf.String(), `"event_type":"FileResolved"`) {
		t.Fatalf("expected JSON attr, got %q", buf.String())
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("no-op logger should not enable any level")
	}
}
