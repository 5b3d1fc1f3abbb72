package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"qualidoc/internal/httputil"
)

// Recovery turns a handler panic into a problem+json 500, logging the stack.
// It sits inside the request-logging middleware so the request still gets a
// log line with its status.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)

					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
