package staticfile

import (
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// OctetStream — тип по умолчанию для неизвестных расширений.
const OctetStream = "application/octet-stream"

const sniffLen = 3072

// MIMELookup сопоставляет расширение (с точкой, например ".html") типу содержимого.
// Реализации должны быть чистыми и всегда возвращать значение.
type MIMELookup interface {
	Lookup(ext string) string
}

// MIMETable — неизменяемая таблица расширений. Читается конкурентно без блокировок.
type MIMETable map[string]string

// DefaultMIME покрывает типичную статику; остальное берётся из mime.TypeByExtension.
var DefaultMIME = MIMETable{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "text/javascript",
	".mjs":   "text/javascript",
	".json":  "application/json",
	".map":   "application/json",
	".txt":   "text/plain",
	".md":    "text/markdown",
	".xml":   "application/xml",
	".svg":   "image/svg+xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".ico":   "image/x-icon",
	".avif":  "image/avif",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".pdf":   "application/pdf",
	".wasm":  "application/wasm",
	".zip":   "application/zip",
	".gz":    "application/gzip",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".mp3":   "audio/mpeg",
	".ogg":   "audio/ogg",
	".wav":   "audio/wav",
}

// Lookup ищет ext без учёта регистра и откатывается на OctetStream.
func (t MIMETable) Lookup(ext string) string {
	if ext == "" {
		return OctetStream
	}
	ext = strings.ToLower(ext)
	if ct, ok := t[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}

	return OctetStream
}

func contentTypeFor(lookup MIMELookup, name string) string {
	if lookup == nil {
		lookup = DefaultMIME
	}

	return lookup.Lookup(path.Ext(name))
}

// sniffContentType определяет тип по первым байтам файла.
func sniffContentType(f io.ReaderAt, size int64) (string, error) {
	buf := make([]byte, min(size, sniffLen))
	n, err := f.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	return mimetype.Detect(buf[:n]).String(), nil
}

// NewBoundary генерирует буквенно-цифровой разделитель multipart: 32 hex-символа UUIDv4.
func NewBoundary() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
