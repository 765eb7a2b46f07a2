package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/bizledger/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type requestFieldsKey struct{}

// requestFields collects attributes that handlers deeper in the chain learn
// about the caller, so the completion line can carry them.
type requestFields struct {
	attrs []any
}

// annotateRequest adds attrs to the line Logging writes when the request
// completes. It is a no-op outside Logging.
func annotateRequest(ctx context.Context, attrs ...any) {
	if f, ok := ctx.Value(requestFieldsKey{}).(*requestFields); ok {
		f.attrs = append(f.attrs, attrs...)
	}
}

// Logging writes one line per request. Server errors are logged at error
// level. Health and metrics probes are skipped.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		fields := &requestFields{}
		ctx := context.WithValue(r.Context(), requestFieldsKey{}, fields)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logging.FromContext(ctx).With(fields.attrs...).Log(ctx, level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
