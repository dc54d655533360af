package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "WARN")
	logger.Info("hidden")
	logger.Warn("shown", "user_id", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record must be filtered: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "user_id=7") {
		t.Fatalf("expected warn record, got %s", out)
	}
}

func TestLevelFromStringDefaultsToInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "verbose")
	logger.Debug("dropped")
	logger.Info("kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
