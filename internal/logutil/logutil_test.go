package logutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/decred/slog"
)

// TestPrefixLogger asserts every message is prefixed and the level is
// shared with the underlying logger.
func TestPrefixLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.NewBackend(&buf).Logger("TEST")
	log.SetLevel(slog.LevelDebug)
	plog := PrefixLogger(log, "[abcd]")

	plog.Infof("recorded %d samples", 10)
	plog.Debug("stopped", 2)
	plog.Trace("hidden")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected nb of lines: %q", lines)
	}
	if !strings.HasSuffix(lines[0], "TEST: [abcd] recorded 10 samples") {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "TEST: [abcd] stopped 2") {
		t.Fatalf("unexpected line %q", lines[1])
	}

	plog.SetLevel(slog.LevelWarn)
	if log.Level() != slog.LevelWarn {
		t.Fatalf("level not propagated")
	}
}
