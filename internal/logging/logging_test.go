package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	req := require.New(t)

	req.Equal(slog.LevelDebug, ParseLevel("DEBUG"))
	req.Equal(slog.LevelWarn, ParseLevel("warn"))
	req.Equal(slog.LevelError, ParseLevel(" error "))
	req.Equal(slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewFiltersByLevel(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	log := New("warn", &buf)
	req.False(log.Enabled(context.Background(), slog.LevelInfo))

	log.Info("hidden")
	log.Warn("shown", "path", "/x")
	req.NotContains(buf.String(), "hidden")
	req.Contains(buf.String(), `"msg":"shown"`)
	req.Contains(buf.String(), `"path":"/x"`)
}
