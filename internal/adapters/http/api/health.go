package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/mealspin/pkg/metrics"
)

// HealthHandler serves GET /healthz as a Prometheus scrape of the service
// registry. A 200 doubles as the liveness signal.
type HealthHandler struct {
	metrics http.Handler
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
