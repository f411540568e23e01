package staticfile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// WriteResponse копирует заголовки и статус в w и отдаёт тело.
// Если поток обрывается после отправки заголовков, соединение прерывается через
// http.ErrAbortHandler: клиент не должен принять укороченное тело за полное.
func WriteResponse(ctx context.Context, w http.ResponseWriter, resp *Response, opts StreamOptions, log *slog.Logger) {
	if log == nil {
		log = discardLogger
	}

	stream := resp.Body.Stream(opts)
	defer stream.Close()

	h := w.Header()
	for _, f := range resp.Header {
		h.Set(f.Name, f.Value)
	}
	w.WriteHeader(resp.Status)

	if resp.Body.Kind == BodyEmpty {
		return
	}

	n, err := stream.CopyTo(ctx, w)
	if err == nil {
		return
	}

	if errors.Is(err, context.Canceled) {
		log.Debug("client went away", "sent", n, "length", resp.Body.Length)
	} else {
		log.Warn("body stream aborted", "sent", n, "length", resp.Body.Length, "err", err)
	}
	panic(http.ErrAbortHandler)
}
