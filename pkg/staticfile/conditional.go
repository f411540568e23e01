package staticfile

import (
	"fmt"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Validators — ETag и Last-Modified, вычисленные из метаданных файла.
type Validators struct {
	ETag string
	// LastModified is truncated to whole seconds; zero when the filesystem reports no mtime.
	LastModified time.Time
}

// ValidatorsFor детерминированно выводит валидаторы из размера и времени изменения.
func ValidatorsFor(meta Metadata) Validators {
	v := Validators{ETag: ETagFor(meta)}
	if !meta.ModTime.IsZero() {
		v.LastModified = meta.ModTime.UTC().Truncate(time.Second)
	}

	return v
}

// ETagFor возвращает сильный тег вида "<size>-<sec>.<nsec>" в шестнадцатеричной записи.
func ETagFor(meta Metadata) string {
	var sec, nsec int64
	if !meta.ModTime.IsZero() {
		sec = meta.ModTime.Unix()
		nsec = int64(meta.ModTime.Nanosecond())
	}

	return fmt.Sprintf(`"%x-%x.%x"`, meta.Size, sec, nsec)
}

// LastModifiedHeader форматирует Last-Modified; пустая строка, если время неизвестно.
func (v Validators) LastModifiedHeader() string {
	if v.LastModified.IsZero() {
		return ""
	}

	return v.LastModified.Format(http.TimeFormat)
}

// Condition — исход проверки условных заголовков.
type Condition int

const (
	ConditionRespond Condition = iota
	ConditionNotModified
	ConditionPreconditionFailed
)

func (c Condition) String() string {
	switch c {
	case ConditionNotModified:
		return "not_modified"
	case ConditionPreconditionFailed:
		return "precondition_failed"
	default:
		return "respond"
	}
}

// Validate применяет If-Match, If-Unmodified-Since, If-None-Match и If-Modified-Since
// в порядке RFC 9110 §13.2.2. Некорректные даты игнорируются.
func Validate(v Validators, h http.Header) Condition {
	if values := h.Values("If-Match"); len(values) > 0 {
		if !matchesAny(v.ETag, values) {
			return ConditionPreconditionFailed
		}
	} else if t, ok := headerTime(h, "If-Unmodified-Since"); ok && !v.LastModified.IsZero() {
		if v.LastModified.After(t) {
			return ConditionPreconditionFailed
		}
	}

	if values := h.Values("If-None-Match"); len(values) > 0 {
		if matchesAny(v.ETag, values) {
			return ConditionNotModified
		}
	} else if t, ok := headerTime(h, "If-Modified-Since"); ok && !v.LastModified.IsZero() {
		if !v.LastModified.After(t) {
			return ConditionNotModified
		}
	}

	return ConditionRespond
}

// EvalIfRange сообщает, можно ли выполнять Range. Без If-Range — всегда да;
// иначе валидатор (тег или дата) должен точно совпасть с текущими метаданными.
func EvalIfRange(v Validators, h http.Header) bool {
	raw := textproto.TrimString(h.Get("If-Range"))
	if raw == "" {
		return true
	}

	if strings.HasPrefix(raw, `"`) || strings.HasPrefix(raw, "W/") {
		tag, _, ok := scanETag(raw)
		return ok && !isWeak(tag) && tag == v.ETag
	}

	t, err := http.ParseTime(raw)
	if err != nil || v.LastModified.IsZero() {
		return false
	}

	return v.LastModified.Equal(t)
}

// matchesAny сравнивает теги только на точное равенство; "*" совпадает с любым существующим файлом.
func matchesAny(etag string, values []string) bool {
	tags, star := parseETagList(values)
	if star {
		return true
	}

	return lo.Contains(tags, etag)
}

func parseETagList(values []string) (tags []string, star bool) {
	for _, value := range values {
		rest := value
		for {
			rest = textproto.TrimString(strings.TrimLeft(rest, ", \t"))
			if rest == "" {
				break
			}
			if rest[0] == '*' {
				star = true
				rest = rest[1:]
				continue
			}

			tag, remain, ok := scanETag(rest)
			if !ok {
				// Мусор до следующей запятой пропускаем.
				_, remain, _ = strings.Cut(rest, ",")
			} else {
				tags = append(tags, tag)
			}
			rest = remain
		}
	}

	return tags, star
}

// scanETag выделяет entity-tag (с префиксом W/ или без) из начала s.
func scanETag(s string) (tag, rest string, ok bool) {
	start := 0
	if strings.HasPrefix(s, "W/") {
		start = 2
	}
	if len(s) <= start || s[start] != '"' {
		return "", s, false
	}

	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return "", "", false
	}
	end += start + 2

	return s[:end], s[end:], true
}

func isWeak(tag string) bool {
	return strings.HasPrefix(tag, "W/")
}

func headerTime(h http.Header, key string) (time.Time, bool) {
	raw := textproto.TrimString(h.Get(key))
	if raw == "" {
		return time.Time{}, false
	}

	t, err := http.ParseTime(raw)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}
