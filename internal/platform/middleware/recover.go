package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/speedx-dev/speedx/internal/platform/requestid"
)

// Recover converts a panic in a handler into a 500 response so a single bad
// request never takes the process down.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("handler panic",
						"panic", rec,
						"path", r.URL.Path,
						"request_id", requestid.FromContext(r.Context()),
						"stack", string(debug.Stack()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"Internal Server Error","status_code":500,"message":"An unexpected error occurred."}` + "\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
