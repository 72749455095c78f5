package middleware

import (
	"net/http"
	"time"

	"treatment-cases/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLog loguea cada request con el request id de chi.
// Va después de chimw.RequestID en la cadena.
func RequestLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := map[string]any{
				"request_id": chimw.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"latency_ms": time.Since(start).Milliseconds(),
				"remote_ip":  r.RemoteAddr,
			}
			if ww.Status() >= http.StatusInternalServerError {
				log.Error("request", fields)
				return
			}
			log.Info("request", fields)
		})
	}
}
