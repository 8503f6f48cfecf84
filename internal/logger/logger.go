package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vusallyv/ds-practice-2025/internal/config"
)

// New creates a JSON slog.Logger tagged with the node identity.
func New(cfg *config.Config) *slog.Logger {
	return newWithWriter(os.Stdout, cfg)
}

func newWithWriter(w io.Writer, cfg *config.Config) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	l := slog.New(handler)
	if cfg == nil {
		return l
	}
	return l.With(
		slog.Int("node_id", cfg.NodeID),
		slog.String("roles", strings.Join(cfg.Roles, ",")),
	)
}
