package staticfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrEscapesRoot is returned by DirFS when a path leads outside the root.
	ErrEscapesRoot = errors.New("path escapes root")
	// ErrSymlinkDenied is returned by DirFS under SymlinkDeny when a path crosses a symlink.
	ErrSymlinkDenied = errors.New("symlink not allowed")
)

// Metadata описывает файл ровно так, как его увидел stat в момент открытия.
type Metadata struct {
	Size    int64
	ModTime time.Time
	IsDir   bool
	Regular bool
}

func metadataOf(info fs.FileInfo) Metadata {
	return Metadata{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
		Regular: info.Mode().IsRegular(),
	}
}

// File — открытый дескриптор: stat и чтение по смещению без общего курсора.
type File interface {
	io.ReaderAt
	io.Closer
	Stat() (fs.FileInfo, error)
}

// FileSystem открывает файлы относительно своего корня.
// name — слэш-путь, уже прошедший проверку в Resolver.
type FileSystem interface {
	Open(name string) (File, error)
}

// SymlinkPolicy определяет, как DirFS обходится с символическими ссылками.
type SymlinkPolicy int

const (
	// SymlinkWithinRoot follows links whose target stays under the root.
	SymlinkWithinRoot SymlinkPolicy = iota
	// SymlinkFollow follows every link.
	SymlinkFollow
	// SymlinkDeny rejects any path that crosses a link below the root.
	SymlinkDeny
)

// ParseSymlinkPolicy разбирает значение из конфига: follow, within_root, deny.
func ParseSymlinkPolicy(s string) (SymlinkPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "within_root":
		return SymlinkWithinRoot, nil
	case "follow":
		return SymlinkFollow, nil
	case "deny":
		return SymlinkDeny, nil
	}

	return 0, fmt.Errorf("unknown symlink policy %q", s)
}

func (p SymlinkPolicy) String() string {
	switch p {
	case SymlinkFollow:
		return "follow"
	case SymlinkDeny:
		return "deny"
	default:
		return "within_root"
	}
}

// DirFS обслуживает файлы из каталога на локальном диске.
type DirFS struct {
	Root     string
	Symlinks SymlinkPolicy
}

var _ FileSystem = DirFS{}

// Open открывает name внутри Root с учётом политики симлинков.
func (d DirFS) Open(name string) (File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if d.Symlinks == SymlinkFollow {
		f, err := os.Open(filepath.Join(d.Root, filepath.FromSlash(name)))
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	root, rel, err := d.checkLinks(name)
	if err != nil {
		return nil, err
	}
	// Открываем уже разрешённую цель: os.Root не ходит по ссылкам с абсолютным путём,
	// а повторная проверка ловит подмену ссылки после checkLinks.
	f, err := os.OpenInRoot(root, rel)
	if err != nil {
		if isRootEscape(err) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: ErrEscapesRoot}
		}
		return nil, err
	}

	return f, nil
}

// checkLinks классифицирует путь заранее, чтобы выход за корень отличался от прочих ошибок ОС.
// Возвращает корень без ссылок и путь цели относительно него.
func (d DirFS) checkLinks(name string) (root, rel string, err error) {
	root, err = filepath.EvalSymlinks(d.Root)
	if err != nil {
		return "", "", err
	}

	want := filepath.Join(root, filepath.FromSlash(name))
	resolved, err := filepath.EvalSymlinks(want)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", "", err
		}
		// висячая ссылка наружу отвечает так же, как существующая цель снаружи
		escapes, crossed := walkLinks(root, name)
		switch {
		case escapes:
			return "", "", &fs.PathError{Op: "open", Path: name, Err: ErrEscapesRoot}
		case crossed && d.Symlinks == SymlinkDeny:
			return "", "", &fs.PathError{Op: "open", Path: name, Err: ErrSymlinkDenied}
		}
		return "", "", err
	}

	if !within(root, resolved) {
		return "", "", &fs.PathError{Op: "open", Path: name, Err: ErrEscapesRoot}
	}
	if d.Symlinks == SymlinkDeny && resolved != want {
		return "", "", &fs.PathError{Op: "open", Path: name, Err: ErrSymlinkDenied}
	}

	rel, err = filepath.Rel(root, resolved)
	if err != nil {
		return "", "", err
	}

	return root, rel, nil
}

const maxLinkHops = 255

// walkLinks проходит name от root по одной компоненте, читая ссылки без требования,
// чтобы их цели существовали. Останавливается на первой отсутствующей компоненте.
func walkLinks(root, name string) (escapes, crossed bool) {
	pending := strings.Split(name, "/")
	cur := root
	hops := 0
	for len(pending) > 0 {
		next := filepath.Join(cur, pending[0])
		pending = pending[1:]

		info, err := os.Lstat(next)
		if err != nil {
			return false, crossed
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			cur = next
			continue
		}

		crossed = true
		hops++
		if hops > maxLinkHops {
			return false, crossed
		}
		target, err := os.Readlink(next)
		if err != nil {
			return false, crossed
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(cur, target)
		}
		target = resolveExisting(filepath.Clean(target))
		if !within(root, target) {
			return true, crossed
		}

		rel, err := filepath.Rel(root, target)
		if err != nil {
			return false, crossed
		}
		pending = append(strings.Split(filepath.ToSlash(rel), "/"), pending...)
		cur = root
	}

	return false, crossed
}

// resolveExisting раскрывает ссылки в самом длинном существующем префиксе p
// и дописывает к нему недостающий хвост.
func resolveExisting(p string) string {
	var tail []string
	for dir := p; ; {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return p
		}
		tail = append([]string{filepath.Base(dir)}, tail...)
		dir = parent
	}
}

// isRootEscape распознаёт отказ os.Root: отдельного значения ошибки пакет os не экспортирует.
func isRootEscape(err error) bool {
	return err != nil && strings.Contains(err.Error(), "path escapes from parent")
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}

	return rel == "." || filepath.IsLocal(rel)
}
