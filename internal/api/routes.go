package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, accessLogMiddleware(handler.log, handler.metrics))

	// Health check and metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if handler.metrics != nil {
		r.Handle("/metrics", handler.metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Stateless computation
	api.HandleFunc("/analyze", handler.Analyze).Methods("POST")
	api.HandleFunc("/indicators/{name}", handler.CalculateIndicator).Methods("POST")

	// Stored history
	api.HandleFunc("/stocks/{symbol}", handler.DeleteStock).Methods("DELETE")
	api.HandleFunc("/stocks/{symbol}/prices", handler.IngestPrices).Methods("POST")
	api.HandleFunc("/stocks/{symbol}/prices", handler.GetPriceRange).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/analysis", handler.AnalyzeStock).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/analysis/latest", handler.GetLatestAnalysis).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/analysis/history", handler.GetAnalysisHistory).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/indicators", handler.GetIndicatorHistory).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/indicators/latest", handler.GetLatestIndicators).Methods("GET")
	if handler.snapshots != nil {
		api.HandleFunc("/stocks/{symbol}/snapshot", handler.GetSnapshot).Methods("GET")
	}

	return r
}
