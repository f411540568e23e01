package statichttp

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourname/static_lite/internal/config"
)

func newHandler(t *testing.T, mutate func(*config.Config)) (http.Handler, string, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("world!"), 0o644))

	cfg := config.Default()
	cfg.Root = root
	if mutate != nil {
		mutate(&cfg)
	}

	var logs bytes.Buffer
	h, err := New(&cfg, slog.New(slog.NewJSONHandler(&logs, nil)))
	require.NoError(t, err)

	return h, root, &logs
}

func TestHealth(t *testing.T) {
	req := require.New(t)
	h, _, _ := newHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	req.Equal(http.StatusOK, rec.Code)

	var got healthStats
	req.NoError(json.NewDecoder(rec.Body).Decode(&got))
	req.Equal(healthStats{OK: true, Files: 2, TotalBytes: 11}, got)
}

func TestHealthMissingRoot(t *testing.T) {
	h, _, _ := newHandler(t, func(c *config.Config) {
		c.Root = filepath.Join(c.Root, "gone")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMountPrefix(t *testing.T) {
	req := require.New(t)
	h, _, _ := newHandler(t, func(c *config.Config) {
		c.MountPrefix = "/static/"
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/a.txt", nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("hello", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/sub", nil))
	req.Equal(http.StatusMovedPermanently, rec.Code)
	req.Equal("/static/sub/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a.txt", nil))
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestHealthRouteWinsOverRootFile(t *testing.T) {
	req := require.New(t)
	h, root, _ := newHandler(t, nil)
	req.NoError(os.WriteFile(filepath.Join(root, "health"), []byte("file"), 0o644))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("application/json", rec.Header().Get("Content-Type"))

	// под префиксом файл снова доступен
	h, root, _ = newHandler(t, func(c *config.Config) {
		c.MountPrefix = "/static/"
	})
	req.NoError(os.WriteFile(filepath.Join(root, "health"), []byte("file"), 0o644))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/health", nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("file", rec.Body.String())
}

func TestAccessLog(t *testing.T) {
	req := require.New(t)
	h, _, logs := newHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sub/b.txt", nil))
	req.Equal(http.StatusOK, rec.Code)

	var line map[string]any
	req.NoError(json.Unmarshal(logs.Bytes(), &line))
	req.Equal("request", line["msg"])
	req.Equal("/sub/b.txt", line["path"])
	req.EqualValues(200, line["status"])
	req.EqualValues(6, line["bytes"])
	req.NotEmpty(line["request_id"])
}

func TestBadSymlinkPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Symlinks = "sometimes"

	_, err := New(&cfg, nil)
	require.Error(t, err)
}
