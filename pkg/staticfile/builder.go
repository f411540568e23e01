package staticfile

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// HeaderField — одна строка заголовка ответа.
type HeaderField struct {
	Name  string
	Value string
}

// Headers — упорядоченный список заголовков; имена не повторяются.
type Headers []HeaderField

// Get возвращает значение name без учёта регистра или пустую строку.
func (h Headers) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}

	return ""
}

// Has сообщает, присутствует ли заголовок.
func (h Headers) Has(name string) bool {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}

	return false
}

func (h *Headers) set(name, value string) {
	if value == "" {
		return
	}
	for i := range *h {
		if strings.EqualFold((*h)[i].Name, name) {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, HeaderField{Name: name, Value: value})
}

// Response — описание ответа: статус, заголовки и тело.
type Response struct {
	Status int
	Header Headers
	Body   Body
}

// Close освобождает дескриптор, если тело не было отправлено.
func (r *Response) Close() error {
	return r.Body.Close()
}

// Builder собирает Response из результатов Resolve, Validate и ParseRange.
// Builder только читается во время Build и может разделяться между запросами.
type Builder struct {
	MIME MIMELookup
	// SniffUnknown detects the type from file content when the extension maps to OctetStream.
	SniffUnknown bool
	// CacheMaxAge > 0 adds "Cache-Control: public, max-age=N".
	CacheMaxAge int
	// RedirectStatus is 301 by default; 308 keeps the request method.
	RedirectStatus int
	Ranges         RangeParser
	// Boundary generates multipart delimiters; NewBoundary when nil.
	Boundary func() string
	Log      *slog.Logger
}

// Respond проходит весь конвейер для найденного результата Resolve:
// проверка условий, If-Range, разбор Range и сборка ответа.
func (b *Builder) Respond(method string, h http.Header, res Resolved) *Response {
	if res.Kind != ResolveFound {
		return b.Build(method, res, ConditionRespond, RangeResult{})
	}

	v := ValidatorsFor(res.Meta)
	cond := Validate(v, h)

	rng := RangeResult{Kind: RangeNone}
	if raw := h.Get("Range"); raw != "" && cond == ConditionRespond && EvalIfRange(v, h) {
		rng = b.Ranges.Parse(raw, res.Meta.Size)
	}

	return b.Build(method, res, cond, rng)
}

// Build формирует ответ. Для тел, которые не будут отправлены (HEAD, 304, 412, 416),
// дескриптор закрывается сразу.
func (b *Builder) Build(method string, res Resolved, cond Condition, rng RangeResult) *Response {
	switch res.Kind {
	case ResolveFound:
		return b.buildFile(method, res, cond, rng)
	case ResolveRedirect:
		status := b.RedirectStatus
		if status == 0 {
			status = http.StatusMovedPermanently
		}
		resp := &Response{Status: status}
		resp.Header.set("Location", res.Location)
		return resp
	case ResolveNotFound:
		return &Response{Status: http.StatusNotFound}
	case ResolveForbidden:
		return &Response{Status: http.StatusForbidden}
	default:
		return &Response{Status: http.StatusInternalServerError}
	}
}

func (b *Builder) buildFile(method string, res Resolved, cond Condition, rng RangeResult) *Response {
	v := ValidatorsFor(res.Meta)
	size := res.Meta.Size

	resp := &Response{}
	switch cond {
	case ConditionPreconditionFailed:
		_ = res.Close()
		resp.Status = http.StatusPreconditionFailed
		return resp
	case ConditionNotModified:
		_ = res.Close()
		resp.Status = http.StatusNotModified
		b.setValidators(&resp.Header, v)
		return resp
	}

	if rng.Kind == RangeUnsatisfiable {
		_ = res.Close()
		resp.Status = http.StatusRequestedRangeNotSatisfiable
		resp.Header.set("Content-Range", UnsatisfiedContentRange(size))
		return resp
	}

	contentType := b.contentType(res)

	switch {
	case rng.Kind == RangeSatisfiable && len(rng.Ranges) == 1:
		br := rng.Ranges[0]
		resp.Status = http.StatusPartialContent
		resp.Body = singleBody(res.File, br)
		resp.Header.set("Content-Type", contentType)
		resp.Header.set("Content-Range", br.ContentRange(size))
	case rng.Kind == RangeSatisfiable:
		boundary := b.newBoundary()
		body, err := multipartBody(res.File, rng.Ranges, size, boundary, contentType)
		if err != nil {
			b.logger().Error("multipart framing failed", "name", res.Name, "err", err)
			_ = res.Close()
			return &Response{Status: http.StatusInternalServerError}
		}
		resp.Status = http.StatusPartialContent
		resp.Body = body
		resp.Header.set("Content-Type", "multipart/byteranges; boundary="+boundary)
	default:
		resp.Status = http.StatusOK
		resp.Body = wholeBody(res.File, size)
		resp.Header.set("Content-Type", contentType)
	}
	resp.Header.set("Content-Length", strconv.FormatInt(resp.Body.Length, 10))
	b.setValidators(&resp.Header, v)

	if method == http.MethodHead {
		_ = resp.Body.Close()
		resp.Body = Body{Kind: BodyEmpty, Length: resp.Body.Length}
	}

	return resp
}

// setValidators выставляет заголовки, общие для 200, 206 и 304.
func (b *Builder) setValidators(h *Headers, v Validators) {
	h.set("Accept-Ranges", "bytes")
	h.set("ETag", v.ETag)
	h.set("Last-Modified", v.LastModifiedHeader())
	if b.CacheMaxAge > 0 {
		h.set("Cache-Control", "public, max-age="+strconv.Itoa(b.CacheMaxAge))
	}
}

func (b *Builder) contentType(res Resolved) string {
	ct := contentTypeFor(b.MIME, res.Name)
	if ct != OctetStream || !b.SniffUnknown || res.Meta.Size == 0 {
		return ct
	}

	sniffed, err := sniffContentType(res.File, res.Meta.Size)
	if err != nil {
		b.logger().Warn("content sniffing failed", "name", res.Name, "err", err)
		return ct
	}

	return sniffed
}

func (b *Builder) newBoundary() string {
	if b.Boundary != nil {
		return b.Boundary()
	}

	return NewBoundary()
}

func (b *Builder) logger() *slog.Logger {
	if b.Log != nil {
		return b.Log
	}

	return discardLogger
}

var discardLogger = slog.New(slog.DiscardHandler)
