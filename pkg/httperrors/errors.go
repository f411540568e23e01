package httperrors

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/yourname/static_lite/pkg/staticfile"
)

// Status сопоставляет ошибку HTTP-статусу.
func Status(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, staticfile.ErrEscapesRoot), errors.Is(err, staticfile.ErrSymlinkDenied):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Write отвечает статусом для err. Текст ошибки клиенту не отдаётся:
// в нём бывают пути на диске.
func Write(w http.ResponseWriter, err error) {
	code := Status(err)
	http.Error(w, http.StatusText(code), code)
}
