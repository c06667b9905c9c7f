package logging

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware logs one line per request and attaches the logger to the request context.
func Middleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
			ctx := logger.WithContext(r.Context())
			next.ServeHTTP(rec, r.WithContext(ctx))

			ev := logger.Info()
			if rec.Status >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.Status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
