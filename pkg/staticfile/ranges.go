package staticfile

import (
	"errors"
	"math"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ByteRange — включительный диапазон [Start, End] внутри тела длиной total.
type ByteRange struct {
	Start int64
	End   int64
}

// Length возвращает число байт в диапазоне.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange форматирует значение заголовка Content-Range.
func (r ByteRange) ContentRange(total int64) string {
	return "bytes " + strconv.FormatInt(r.Start, 10) + "-" + strconv.FormatInt(r.End, 10) + "/" + strconv.FormatInt(total, 10)
}

// UnsatisfiedContentRange — Content-Range для ответа 416.
func UnsatisfiedContentRange(total int64) string {
	return "bytes */" + strconv.FormatInt(total, 10)
}

// RangeKind — исход разбора заголовка Range.
type RangeKind int

const (
	RangeNone RangeKind = iota
	RangeSatisfiable
	RangeUnsatisfiable
)

func (k RangeKind) String() string {
	switch k {
	case RangeSatisfiable:
		return "satisfiable"
	case RangeUnsatisfiable:
		return "unsatisfiable"
	default:
		return "none"
	}
}

// RangeResult — диапазоны в порядке запроса; без сортировки и слияния.
type RangeResult struct {
	Kind   RangeKind
	Ranges []ByteRange
}

// TotalLength суммирует длины всех диапазонов.
func (r RangeResult) TotalLength() int64 {
	return lo.SumBy(r.Ranges, func(br ByteRange) int64 { return br.Length() })
}

// RangeParser разбирает Range. MaxRanges > 0 ограничивает число спецификаций:
// заголовок с большим числом диапазонов игнорируется целиком.
type RangeParser struct {
	MaxRanges int
}

var errMalformedRange = errors.New("malformed range spec")

// ParseRange разбирает header без ограничения на число диапазонов.
func ParseRange(header string, total int64) RangeResult {
	return RangeParser{}.Parse(header, total)
}

// Parse поддерживает только единицу bytes. Битый заголовок даёт RangeNone,
// а не ошибку: клиент получит тело целиком.
func (p RangeParser) Parse(header string, total int64) RangeResult {
	unit, set, ok := strings.Cut(textproto.TrimString(header), "=")
	if !ok || !strings.EqualFold(textproto.TrimString(unit), "bytes") {
		return RangeResult{Kind: RangeNone}
	}

	var (
		specs  int
		ranges []ByteRange
	)
	for _, raw := range strings.Split(set, ",") {
		raw = textproto.TrimString(raw)
		if raw == "" {
			continue
		}
		specs++
		if p.MaxRanges > 0 && specs > p.MaxRanges {
			return RangeResult{Kind: RangeNone}
		}

		br, keep, err := parseSpec(raw, total)
		if err != nil {
			return RangeResult{Kind: RangeNone}
		}
		if keep {
			ranges = append(ranges, br)
		}
	}

	switch {
	case specs == 0:
		return RangeResult{Kind: RangeNone}
	case len(ranges) == 0:
		return RangeResult{Kind: RangeUnsatisfiable}
	}

	return RangeResult{Kind: RangeSatisfiable, Ranges: ranges}
}

// parseSpec разбирает одну спецификацию. keep=false — синтаксически верный,
// но невыполнимый диапазон, который просто отбрасывается.
func parseSpec(raw string, total int64) (br ByteRange, keep bool, err error) {
	first, last, ok := strings.Cut(raw, "-")
	if !ok {
		return ByteRange{}, false, errMalformedRange
	}
	first, last = textproto.TrimString(first), textproto.TrimString(last)

	if first == "" {
		n, err := parseDigits(last)
		if err != nil {
			return ByteRange{}, false, err
		}
		if n == 0 || total == 0 {
			return ByteRange{}, false, nil
		}

		return ByteRange{Start: total - min(n, total), End: total - 1}, true, nil
	}

	start, err := parseDigits(first)
	if err != nil {
		return ByteRange{}, false, err
	}

	end := total - 1
	if last != "" {
		e, err := parseDigits(last)
		if err != nil {
			return ByteRange{}, false, err
		}
		if start > e {
			return ByteRange{}, false, nil
		}
		end = min(end, e)
	}
	if start >= total {
		return ByteRange{}, false, nil
	}

	return ByteRange{Start: start, End: end}, true, nil
}

// parseDigits принимает только ASCII-цифры; переполнение насыщается до MaxInt64.
func parseDigits(s string) (int64, error) {
	if s == "" {
		return 0, errMalformedRange
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errMalformedRange
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt64, nil
	}

	return n, err
}
