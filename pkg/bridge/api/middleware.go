package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/toolback/tokenbridge/internal/metric"
)

// metricsMiddleware records request counts and latency per route.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		metric.RecordRequest(r.Method, r.URL.Path)
		metric.RecordRequestDuration(r.Method, r.URL.Path, time.Since(start))
	})
}

// requireAdmin gates administrative routes on the X-Admin-Key header. An
// empty configured key disables the whole admin surface.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminKey == "" {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin surface disabled"})
			return
		}
		key := r.Header.Get("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid admin key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
