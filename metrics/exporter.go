package metrics

import (
	"net/http"

	"github.com/pior/terrastore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter serves the metrics of one client on its own registry.
type Exporter struct {
	registry *prometheus.Registry
}

// NewExporter creates an exporter with a collector for client.
func NewExporter(client *terrastore.Client) *Exporter {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollectorFor(client))
	return &Exporter{registry: registry}
}

// Registry returns the registry metrics are registered on.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
