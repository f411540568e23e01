package statichttp

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/yourname/static_lite/pkg/httperrors"
)

// healthStats — payload ответа /health.
type healthStats struct {
	OK         bool  `json:"ok"`
	Files      int64 `json:"files"`
	TotalBytes int64 `json:"total_bytes"`
}

// health проверяет, что корень доступен, и отдаёт агрегированную статистику по нему.
func (a *Server) health(w http.ResponseWriter, r *http.Request) {
	var stats healthStats
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := r.Context().Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.Files++
		stats.TotalBytes += info.Size()

		return nil
	})

	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Без корня раздавать нечего: сервис жив, но не готов.
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(healthStats{})
		return
	case err != nil:
		a.log.Error("health walk failed", "root", a.root, "err", err)
		httperrors.Write(w, err)
		return
	}

	stats.OK = true
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		a.log.Warn("health encode failed", "err", err)
	}
}
