package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"cinetrack/utils"
)

// CORSMiddleware reflects trusted origins and answers preflight requests.
// Trust is decided by utils.IsAllowedOrigin: LAN origins plus the configured
// extra allow-list.
func CORSMiddleware(extraOrigins []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && utils.IsAllowedOrigin(origin, extraOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
