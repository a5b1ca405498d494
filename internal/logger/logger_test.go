package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestTestLoggerCapturesEntries(t *testing.T) {
	l, logs := TestLogger()
	l.Warn("unknown model", zap.String("model", "x"))

	if logs.Len() != 1 {
		t.Fatalf("logs.Len() = %d, want 1", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "unknown model" {
		t.Errorf("Message = %q, want %q", entry.Message, "unknown model")
	}
	if got := entry.ContextMap()["model"]; got != "x" {
		t.Errorf("model field = %v, want x", got)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Fatal("OrNop(l) did not return l")
	}
}
