package api

import (
	"net/http"

	"github.com/okian/lodge/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandleHealth handles GET /healthz by serving the Prometheus exposition of
// the service registry.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
