package staticfile

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// DefaultMaxRanges ограничивает число диапазонов в одном Range.
const DefaultMaxRanges = 64

// Options настраивает Static. Нулевые значения означают значения по умолчанию.
type Options struct {
	// Prefix is the mount point stripped before ServeHTTP; it is only used to build redirects.
	Prefix    string
	IndexFile string
	// CacheMaxAge in seconds; zero disables Cache-Control.
	CacheMaxAge    int
	RedirectStatus int
	MaxRanges      int
	ChunkSize      int
	// RateLimit caps body throughput per response in bytes per second; zero disables it.
	RateLimit    int
	SniffUnknown bool
	MIME         MIMELookup
	// Fallback receives requests that did not match a file and non-GET/HEAD methods.
	Fallback http.Handler
	Log      *slog.Logger
}

// Static — сервис раздачи файлов из FileSystem. Безопасен для конкурентного использования.
type Static struct {
	resolver Resolver
	builder  Builder
	stream   StreamOptions
	limit    int
	fallback http.Handler
	log      *slog.Logger
}

var _ http.Handler = (*Static)(nil)

// New собирает сервис поверх fsys.
func New(fsys FileSystem, opts Options) *Static {
	log := opts.Log
	if log == nil {
		log = discardLogger
	}
	if opts.MaxRanges == 0 {
		opts.MaxRanges = DefaultMaxRanges
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.MIME == nil {
		opts.MIME = DefaultMIME
	}

	return &Static{
		resolver: Resolver{
			FS:        fsys,
			IndexFile: opts.IndexFile,
			Prefix:    opts.Prefix,
			Log:       log,
		},
		builder: Builder{
			MIME:           opts.MIME,
			SniffUnknown:   opts.SniffUnknown,
			CacheMaxAge:    opts.CacheMaxAge,
			RedirectStatus: opts.RedirectStatus,
			Ranges:         RangeParser{MaxRanges: opts.MaxRanges},
			Log:            log,
		},
		stream:   StreamOptions{ChunkSize: opts.ChunkSize},
		limit:    opts.RateLimit,
		fallback: opts.Fallback,
		log:      log,
	}
}

// NewDir — New поверх каталога на диске с политикой симлинков по умолчанию.
func NewDir(root string, opts Options) *Static {
	return New(DirFS{Root: root}, opts)
}

// Request — та часть HTTP-запроса, от которой зависит ответ.
type Request struct {
	Method string
	// Path is percent-encoded, as it appears on the request line.
	Path     string
	RawQuery string
	Header   http.Header
}

// RequestFrom извлекает Request из *http.Request.
func RequestFrom(r *http.Request) Request {
	return Request{
		Method:   r.Method,
		Path:     r.URL.EscapedPath(),
		RawQuery: r.URL.RawQuery,
		Header:   r.Header,
	}
}

// Serve разрешает путь и собирает ответ. Вызывающий обязан либо отдать тело
// через WriteResponse, либо вызвать Response.Close.
func (s *Static) Serve(ctx context.Context, req Request) *Response {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		resp := &Response{Status: http.StatusMethodNotAllowed}
		resp.Header.set("Allow", "GET, HEAD")
		return resp
	}
	if !strings.HasPrefix(req.Path, "/") && req.Path != "" {
		// absolute-form и authority-form не сопоставляются с файлами
		return &Response{Status: http.StatusNotFound}
	}

	res := s.resolver.Resolve(ctx, req.Path, req.RawQuery)
	header := req.Header
	if header == nil {
		header = http.Header{}
	}

	return s.builder.Respond(req.Method, header, res)
}

// ServeHTTP отдаёт файл или передаёт запрос в Fallback.
func (s *Static) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.fallback != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.fallback.ServeHTTP(w, r)
		return
	}
	if r.URL.IsAbs() {
		s.notFound(w, r)
		return
	}

	req := RequestFrom(r)
	if req.Path != "" && !strings.HasPrefix(req.Path, "/") {
		// http.StripPrefix с префиксом на "/" оставляет относительный путь.
		req.Path = "/" + req.Path
	}

	resp := s.Serve(r.Context(), req)
	if resp.Status == http.StatusNotFound && s.fallback != nil {
		_ = resp.Close()
		s.fallback.ServeHTTP(w, r)
		return
	}

	opts := s.stream
	if s.limit > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(s.limit), min(s.limit, opts.ChunkSize))
	}

	WriteResponse(r.Context(), w, resp, opts, s.log)
}

func (s *Static) notFound(w http.ResponseWriter, r *http.Request) {
	if s.fallback != nil {
		s.fallback.ServeHTTP(w, r)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}
