// Package ops exposes the operational HTTP listener: liveness and readiness
// probes plus Prometheus metrics. The donation features themselves have no
// HTTP surface.
package ops

import (
	"encoding/json"
	"net/http"

	"github.com/donorflow/donation-api/internal/database"
	"github.com/donorflow/donation-api/internal/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router builds the ops HTTP handler.
type Router struct {
	logger  *zap.Logger
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewRouter creates a new ops Router
func NewRouter(logger *zap.Logger, db *gorm.DB, m *metrics.Metrics) *Router {
	return &Router{
		logger:  logger,
		db:      db,
		metrics: m,
	}
}

// Setup assembles the ops routes.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery(rt.logger))
	r.Use(Logging(rt.logger))

	// Liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Readiness probe with pool statistics
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		stats, err := database.HealthCheck(rt.db)
		if err != nil {
			rt.logger.Error("database health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "healthy",
			"database": stats,
		})
	})

	r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	return r
}
