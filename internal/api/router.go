package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"stockpick/internal/api/handlers"
	"stockpick/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	analysisHandler *handlers.AnalysisHandler,
	simulationHandler *handlers.SimulationHandler,
	indexHandler *handlers.IndexHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Analysis endpoints
	api.HandleFunc("/analysis", analysisHandler.GetAnalysis).Methods("GET")
	api.HandleFunc("/analysis/fields", analysisHandler.GetFields).Methods("GET")

	// Simulation endpoints
	api.HandleFunc("/simulations", simulationHandler.RunSimulation).Methods("POST")
	api.HandleFunc("/simulations", simulationHandler.ListSimulations).Methods("GET")
	api.HandleFunc("/simulations/{id}", simulationHandler.GetSimulation).Methods("GET")

	// Index endpoints
	api.HandleFunc("/indexes/{index}/price", indexHandler.GetPrice).Methods("GET")
	api.HandleFunc("/indexes/{index}/constituents", indexHandler.GetConstituents).Methods("GET")

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
		"service": "stockpick-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
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
