package logging

import (
	"context"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
}

func TestRunIDRoundTrip(t *testing.T) {
	ctx := ContextWithRunID(context.Background(), "run-123")
	if got := RunIDFromContext(ctx); got != "run-123" {
		t.Fatalf("RunIDFromContext = %q, want run-123", got)
	}
}

func TestRunIDFromContext_Absent(t *testing.T) {
	if got := RunIDFromContext(context.Background()); got != "" {
		t.Fatalf("RunIDFromContext = %q, want empty", got)
	}
}

func TestWithRunID_NoID(t *testing.T) {
	logger := NewLogger()
	if got := WithRunID(context.Background(), logger); got != logger {
		t.Fatal("expected the same logger when no run ID is set")
	}
}
