package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// loggingTransport logs each outgoing call with method, path, status,
// duration and request id. A request id is attached when the caller did not
// set one.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	id := r.Header.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
		r = r.Clone(r.Context())
		r.Header.Set(requestIDHeader, id)
	}

	resp, err := t.next.RoundTrip(r)

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", id),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		t.logger.LogAttrs(r.Context(), slog.LevelError, "api request", attrs...)
		return nil, err
	}

	attrs = append(attrs, slog.Int("status", resp.StatusCode))
	switch {
	case resp.StatusCode >= 500:
		t.logger.LogAttrs(r.Context(), slog.LevelError, "api request", attrs...)
	case resp.StatusCode >= 400:
		t.logger.LogAttrs(r.Context(), slog.LevelWarn, "api request", attrs...)
	default:
		t.logger.LogAttrs(r.Context(), slog.LevelInfo, "api request", attrs...)
	}
	return resp, nil
}
