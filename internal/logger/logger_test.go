package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/vusallyv/ds-practice-2025/internal/config"
)

func TestNewProvidesJSONLogger(t *testing.T) {
	l := New(nil)
	if l == nil {
		t.Fatal("expected logger, got nil")
	}

	if !l.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("expected info level to be enabled")
	}
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("did not expect debug level to be enabled")
	}

	if _, ok := l.Handler().(*slog.JSONHandler); !ok {
		t.Fatalf("expected JSON handler, got %T", l.Handler())
	}
}

func TestLoggerCarriesNodeIdentity(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, &config.Config{NodeID: 3, Roles: []string{config.RoleExecutor, config.RoleQueue}})
	l.Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json output: %v", err)
	}
	if entry["node_id"] != float64(3) {
		t.Fatalf("expected node_id 3, got %v", entry["node_id"])
	}
	if entry["roles"] != "executor,queue" {
		t.Fatalf("unexpected roles attribute %v", entry["roles"])
	}
}
