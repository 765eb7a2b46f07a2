package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/bizledger/internal/handler"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/metrics"
)

// Recovery turns a handler panic into a 500 envelope and counts it by
// route. It must sit inside Tracing so the log line carries the request id.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}
			metrics.RecordPanic(r.Pattern)
			logging.FromContext(r.Context()).Error("panic recovered",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			handler.RespondAppError(w, handler.ErrInternalError, nil)
		}()
		next.ServeHTTP(w, r)
	})
}
