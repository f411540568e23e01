package staticfile

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memFile — File поверх среза байт, считает закрытия.
type memFile struct {
	data    []byte
	modTime time.Time
	closed  int
	// reportSize overrides the size returned by Stat to simulate truncation.
	reportSize int64
}

func newMemFile(data []byte) *memFile {
	return &memFile{data: data, modTime: time.Unix(1700000000, 123), reportSize: int64(len(data))}
}

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	if m.closed > 0 {
		return 0, fs.ErrClosed
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (m *memFile) Close() error {
	m.closed++
	return nil
}

func (m *memFile) Stat() (fs.FileInfo, error) {
	return memInfo{size: m.reportSize, modTime: m.modTime}, nil
}

func (m *memFile) meta() Metadata {
	info, _ := m.Stat()
	return metadataOf(info)
}

type memInfo struct {
	size    int64
	modTime time.Time
}

func (i memInfo) Name() string       { return "mem" }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return 0o644 }
func (i memInfo) ModTime() time.Time { return i.modTime }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }

// payload возвращает n байт с предсказуемым содержимым.
func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + i%26)
	}

	return b
}

// writeTree создаёт файлы в dir; ключ — путь через "/".
func writeTree(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
}

func found(t *testing.T, name string, f *memFile) Resolved {
	t.Helper()
	return Resolved{Kind: ResolveFound, Name: name, File: f, Meta: f.meta()}
}
