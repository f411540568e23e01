package staticfile

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"syscall"
)

// DefaultIndexFile отдаётся при запросе каталога со слэшем на конце.
const DefaultIndexFile = "index.html"

// ErrBadRequestPath — путь не декодируется, содержит ".." или недопустимые символы.
var ErrBadRequestPath = errors.New("request path rejected")

// ResolveKind — закрытый набор исходов разрешения пути.
type ResolveKind int

const (
	ResolveFound ResolveKind = iota
	ResolveRedirect
	ResolveNotFound
	ResolveForbidden
	ResolvePermissionDenied
	ResolveError
)

func (k ResolveKind) String() string {
	switch k {
	case ResolveFound:
		return "found"
	case ResolveRedirect:
		return "redirect"
	case ResolveNotFound:
		return "not_found"
	case ResolveForbidden:
		return "forbidden"
	case ResolvePermissionDenied:
		return "permission_denied"
	default:
		return "error"
	}
}

// Resolved — результат Resolve для одного запроса.
// При ResolveFound File открыт и принадлежит вызывающему.
type Resolved struct {
	Kind     ResolveKind
	Name     string
	File     File
	Meta     Metadata
	Location string
	Err      error
}

// Close освобождает дескриптор, если он есть.
func (r *Resolved) Close() error {
	if r.File == nil {
		return nil
	}
	err := r.File.Close()
	r.File = nil

	return err
}

// Resolver сопоставляет URL-путь с файлом внутри FS.
type Resolver struct {
	FS        FileSystem
	IndexFile string
	// Prefix is prepended to redirect targets when the handler is mounted below "/".
	Prefix string
	Log    *slog.Logger
}

// Resolve разбирает requestPath (в percent-кодировке, как в URL) и открывает файл.
func (r *Resolver) Resolve(ctx context.Context, requestPath, rawQuery string) Resolved {
	name, dirRequest, ok := cleanRequestPath(requestPath)
	if !ok {
		return r.report(requestPath, Resolved{Kind: ResolveForbidden, Err: ErrBadRequestPath})
	}
	if err := ctx.Err(); err != nil {
		return Resolved{Kind: ResolveError, Err: err}
	}

	res := r.open(name)
	if res.Kind != ResolveFound {
		return r.report(requestPath, res)
	}

	switch {
	case res.Meta.IsDir && !dirRequest:
		_ = res.Close()
		return Resolved{Kind: ResolveRedirect, Location: r.redirectTarget(name, rawQuery)}
	case !res.Meta.IsDir && dirRequest:
		// Для файла слэш на конце не имеет смысла.
		_ = res.Close()
		return Resolved{Kind: ResolveNotFound}
	case !res.Meta.IsDir:
		return r.checkRegular(res)
	}

	_ = res.Close()
	if err := ctx.Err(); err != nil {
		return Resolved{Kind: ResolveError, Err: err}
	}

	index := r.IndexFile
	if index == "" {
		index = DefaultIndexFile
	}
	res = r.open(path.Join(name, index))
	if res.Kind != ResolveFound {
		return r.report(requestPath, res)
	}
	if res.Meta.IsDir {
		_ = res.Close()
		return Resolved{Kind: ResolveNotFound}
	}

	return r.checkRegular(res)
}

// open выполняет единственный stat на дескрипторе, метаданные переиспользуются дальше.
func (r *Resolver) open(name string) Resolved {
	f, err := r.FS.Open(name)
	if err != nil {
		return Resolved{Kind: classifyOpenErr(err), Name: name, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return Resolved{Kind: classifyOpenErr(err), Name: name, Err: err}
	}

	return Resolved{Kind: ResolveFound, Name: name, File: f, Meta: metadataOf(info)}
}

// checkRegular не пускает устройства, сокеты и FIFO.
func (r *Resolver) checkRegular(res Resolved) Resolved {
	if res.Meta.Regular {
		return res
	}
	_ = res.Close()

	return Resolved{Kind: ResolveNotFound, Name: res.Name}
}

func (r *Resolver) report(requestPath string, res Resolved) Resolved {
	log := r.Log
	if log == nil {
		return res
	}

	switch res.Kind {
	case ResolveError:
		log.Error("resolve failed", "path", requestPath, "err", res.Err)
	case ResolvePermissionDenied:
		log.Error("permission denied", "path", requestPath, "err", res.Err)
	case ResolveForbidden:
		log.Warn("path rejected", "path", requestPath, "err", res.Err)
	}

	return res
}

func (r *Resolver) redirectTarget(name, rawQuery string) string {
	p := strings.TrimRight(r.Prefix, "/") + "/"
	if name != "." {
		p += name + "/"
	}

	target := (&url.URL{Path: p}).EscapedPath()
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	return target
}

func classifyOpenErr(err error) ResolveKind {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return ResolveNotFound
	case errors.Is(err, ErrEscapesRoot), errors.Is(err, ErrSymlinkDenied), errors.Is(err, fs.ErrInvalid):
		return ResolveForbidden
	case errors.Is(err, fs.ErrPermission):
		return ResolvePermissionDenied
	default:
		return ResolveError
	}
}

// cleanRequestPath декодирует путь и возвращает его в виде, пригодном для fs.ValidPath.
// Любой сегмент ".." после декодирования делает путь недопустимым.
func cleanRequestPath(requestPath string) (name string, dirRequest bool, ok bool) {
	decoded, err := url.PathUnescape(requestPath)
	if err != nil {
		return "", false, false
	}
	if strings.ContainsAny(decoded, "\x00\\") {
		return "", false, false
	}

	dirRequest = strings.HasSuffix(requestPath, "/")

	segments := make([]string, 0, strings.Count(decoded, "/")+1)
	for _, seg := range strings.Split(decoded, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", false, false
		}
		segments = append(segments, seg)
	}

	name = strings.Join(segments, "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", false, false
	}

	return name, dirRequest, true
}
