package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recall/pkg/api/handlers"
)

// RateLimit configures the per-remote token bucket.
type RateLimit struct {
	RPS   float64
	Burst int
}

// NewRouter assembles the full HTTP surface: health, metrics and the
// /v1 API with logging and rate-limit middleware.
func NewRouter(deps handlers.Deps, rl RateLimit) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.New(deps).Register(v1)
	v1.Use(requestLogger, rateLimiter(rl), countRequests)

	return r
}
