package httperrors

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourname/static_lite/pkg/staticfile"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fs.ErrNotExist, http.StatusNotFound},
		{&fs.PathError{Op: "open", Path: "/srv/x", Err: fs.ErrPermission}, http.StatusInternalServerError},
		{fmt.Errorf("open: %w", staticfile.ErrEscapesRoot), http.StatusForbidden},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Status(tt.err), tt.err.Error())
	}
}

func TestWriteHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, &fs.PathError{Op: "open", Path: "/srv/secret/file", Err: fs.ErrPermission})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "/srv/secret")
	require.Contains(t, rec.Body.String(), http.StatusText(http.StatusInternalServerError))
}
