package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/HatimBenzahra/rework-sub001/internal/api/handlers"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Handlers groups the endpoint handlers the router mounts.
type Handlers struct {
	Admin   *handlers.AdminHandler
	Ranking *handlers.RankingHandler
	Badges  *handlers.BadgeHandler
}

// NewRouter creates and configures the HTTP router
// SSOT: routes are declared only in this function
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Read endpoints
	api.HandleFunc("/rankings/{periodType}/{periodKey}", h.Ranking.GetLeaderboard).Methods("GET")
	api.HandleFunc("/badges", h.Badges.ListBadges).Methods("GET")
	api.HandleFunc("/participants/{kind}/{id}/awards", h.Badges.ListAwards).Methods("GET")

	// Admin endpoints
	adm := api.PathPrefix("/admin").Subrouter()
	adm.HandleFunc("/awards", h.Admin.AwardBadge).Methods("POST")
	adm.HandleFunc("/awards/{id}", h.Admin.RevokeAward).Methods("DELETE")
	adm.HandleFunc("/rankings/recompute", h.Admin.RecomputeRanking).Methods("POST")
	adm.HandleFunc("/badges/seed", h.Admin.SeedBadges).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "gamification-engine",
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			entry := log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("HTTP request")
				return
			}
			entry.Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
