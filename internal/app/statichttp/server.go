package statichttp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yourname/static_lite/internal/config"
	"github.com/yourname/static_lite/pkg/staticfile"
)

// Server serves files from a single root directory.
type Server struct {
	root   string
	prefix string
	static *staticfile.Static
	log    *slog.Logger
}

// New создаёт HTTP-обработчик файлового сервера по конфигурации.
func New(cfg *config.Config, log *slog.Logger) (http.Handler, error) {
	policy, err := staticfile.ParseSymlinkPolicy(cfg.Symlinks)
	if err != nil {
		return nil, fmt.Errorf("symlinks: %w", err)
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	prefix := strings.TrimRight(cfg.MountPrefix, "/")
	srv := &Server{
		root:   cfg.Root,
		prefix: prefix,
		log:    log,
	}
	srv.static = staticfile.New(staticfile.DirFS{Root: cfg.Root, Symlinks: policy}, staticfile.Options{
		Prefix:         prefix,
		IndexFile:      cfg.IndexFile,
		CacheMaxAge:    cfg.CacheMaxAge,
		RedirectStatus: cfg.RedirectStatus,
		MaxRanges:      cfg.MaxRanges,
		ChunkSize:      cfg.ChunkSize,
		RateLimit:      cfg.RateLimitBytes,
		SniffUnknown:   cfg.SniffUnknown,
		Log:            log,
	})

	return srv.routes(), nil
}

// routes регистрирует /health и раздачу файлов под префиксом.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog(a.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", a.health)

	if a.prefix == "" {
		r.Handle("/*", a.static)
		return r
	}

	// Путь без слэша на конце тоже наш: Static ответит редиректом на каталог.
	files := http.StripPrefix(a.prefix, a.static)
	r.Handle(a.prefix, files)
	r.Handle(a.prefix+"/*", files)

	return r
}
