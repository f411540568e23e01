package staticfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"golang.org/x/time/rate"
)

// DefaultChunkSize — размер одного чтения из файла.
const DefaultChunkSize = 8 * 1024

var (
	// ErrTruncated означает, что файл стал короче, чем обещали метаданные.
	ErrTruncated = errors.New("file truncated while streaming")
	// ErrStreamClosed возвращается при чтении из закрытого потока.
	ErrStreamClosed = errors.New("body stream closed")
)

// BodyKind — вид тела ответа.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyWhole
	BodySingle
	BodyMultipart
)

func (k BodyKind) String() string {
	switch k {
	case BodyWhole:
		return "whole"
	case BodySingle:
		return "single"
	case BodyMultipart:
		return "multipart"
	default:
		return "empty"
	}
}

// segment — либо готовые байты разметки, либо отрезок файла [off, off+n).
type segment struct {
	framing []byte
	off     int64
	n       int64
}

func (s segment) length() int64 {
	if s.framing != nil {
		return int64(len(s.framing))
	}

	return s.n
}

// Body описывает, что именно отправить. Дескриптор принадлежит Body до вызова
// Stream, после чего переходит потоку.
type Body struct {
	Kind     BodyKind
	Length   int64
	Range    ByteRange
	Ranges   []ByteRange
	Boundary string

	file     File
	segments []segment
}

func wholeBody(f File, size int64) Body {
	return Body{
		Kind:     BodyWhole,
		Length:   size,
		file:     f,
		segments: []segment{{off: 0, n: size}},
	}
}

func singleBody(f File, br ByteRange) Body {
	return Body{
		Kind:     BodySingle,
		Length:   br.Length(),
		Range:    br,
		file:     f,
		segments: []segment{{off: br.Start, n: br.Length()}},
	}
}

// multipartBody заранее строит всю разметку, поэтому длина тела известна точно.
func multipartBody(f File, ranges []ByteRange, total int64, boundary, contentType string) (Body, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(boundary); err != nil {
		return Body{}, fmt.Errorf("set boundary: %w", err)
	}

	segments := make([]segment, 0, 2*len(ranges)+1)
	for _, br := range ranges {
		buf.Reset()
		_, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":  {contentType},
			"Content-Range": {br.ContentRange(total)},
		})
		if err != nil {
			return Body{}, fmt.Errorf("part header: %w", err)
		}
		segments = append(segments,
			segment{framing: bytes.Clone(buf.Bytes())},
			segment{off: br.Start, n: br.Length()},
		)
	}

	buf.Reset()
	if err := mw.Close(); err != nil {
		return Body{}, fmt.Errorf("close multipart: %w", err)
	}
	segments = append(segments, segment{framing: bytes.Clone(buf.Bytes())})

	var length int64
	for _, s := range segments {
		length += s.length()
	}

	return Body{
		Kind:     BodyMultipart,
		Length:   length,
		Ranges:   ranges,
		Boundary: boundary,
		file:     f,
		segments: segments,
	}, nil
}

// Close освобождает дескриптор, если тело так и не было передано в поток.
func (b *Body) Close() error {
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil

	return err
}

// StreamOptions настраивает чтение тела.
type StreamOptions struct {
	ChunkSize int
	// Limiter throttles file reads; chunks are clipped to its burst.
	Limiter *rate.Limiter
}

// Stream передаёт дескриптор потоку. Повторный вызов вернёт пустой поток.
func (b *Body) Stream(opts StreamOptions) *BodyStream {
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	if opts.Limiter != nil && opts.Limiter.Burst() > 0 {
		chunk = min(chunk, opts.Limiter.Burst())
	}

	s := &BodyStream{
		file:     b.file,
		segments: b.segments,
		limiter:  opts.Limiter,
	}
	if b.file != nil {
		s.buf = make([]byte, chunk)
	}
	b.file = nil
	b.segments = nil

	return s
}

// BodyStream — ленивая однопроходная последовательность чанков тела.
// Чтения ограничены длинами отрезков, вычисленными из stat при открытии,
// поэтому рост файла во время отдачи не виден клиенту.
type BodyStream struct {
	file     File
	segments []segment
	idx      int
	pos      int64
	buf      []byte
	limiter  *rate.Limiter
	err      error
}

// Next возвращает очередной чанк. Срез действителен до следующего вызова.
// После последнего чанка возвращается io.EOF, дескриптор к этому моменту уже закрыт.
func (s *BodyStream) Next(ctx context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, s.fail(err)
	}

	for s.idx < len(s.segments) {
		seg := s.segments[s.idx]
		if seg.framing != nil {
			s.advance()
			if len(seg.framing) > 0 {
				return seg.framing, nil
			}
			continue
		}

		remaining := seg.n - s.pos
		if remaining <= 0 {
			s.advance()
			continue
		}
		if s.file == nil {
			return nil, s.fail(ErrStreamClosed)
		}

		n := int(min(int64(len(s.buf)), remaining))
		if s.limiter != nil {
			if err := s.limiter.WaitN(ctx, n); err != nil {
				return nil, s.fail(err)
			}
		}

		offset := seg.off + s.pos
		k, err := s.file.ReadAt(s.buf[:n], offset)
		chunk := s.buf[:k]
		s.pos += int64(k)
		if k < n {
			if err == nil || errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: want %d bytes at offset %d, got %d", ErrTruncated, n, offset, k)
			}
			_ = s.fail(err)
			if k > 0 {
				return chunk, nil
			}

			return nil, s.err
		}

		return chunk, nil
	}

	_ = s.release()
	s.err = io.EOF

	return nil, io.EOF
}

// CopyTo пишет оставшиеся чанки в w. Возвращает nil при полном успехе.
func (s *BodyStream) CopyTo(ctx context.Context, w io.Writer) (int64, error) {
	var written int64
	for {
		chunk, err := s.Next(ctx)
		if len(chunk) > 0 {
			n, werr := w.Write(chunk)
			written += int64(n)
			if werr != nil {
				return written, s.fail(werr)
			}
		}
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// Close прерывает поток и освобождает дескриптор. Безопасен при повторном вызове.
func (s *BodyStream) Close() error {
	if s.err == nil {
		s.err = ErrStreamClosed
	}

	return s.release()
}

func (s *BodyStream) advance() {
	s.idx++
	s.pos = 0
}

func (s *BodyStream) fail(err error) error {
	if s.err == nil || errors.Is(s.err, io.EOF) {
		s.err = err
	}
	_ = s.release()

	return s.err
}

func (s *BodyStream) release() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.buf = nil

	return err
}
