package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yeisme/filesort/pkg/log"
)

func TestGinWriterForwardsLines(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf)
	w := log.NewGinWriter(&l, zerolog.WarnLevel)

	n, err := w.Write([]byte("[GIN-debug] route registered\n"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	if n != len("[GIN-debug] route registered\n") {
		t.Errorf("expected full length written, got %d", n)
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "route registered") {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestGinWriterSkipsBlank(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf)
	w := log.NewGinWriter(&l, zerolog.InfoLevel)

	if _, err := w.Write([]byte("   \n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("expected no output for blank line, got %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := log.SetLevel("debug"); err != nil {
		t.Fatalf("set level: %v", err)
	}

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %s", zerolog.GlobalLevel())
	}

	if err := log.SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
