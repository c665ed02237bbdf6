// Package metrics exports client and node statistics to Prometheus.
package metrics

import (
	"github.com/pior/terrastore"
	"github.com/pior/terrastore/rest"
	"github.com/prometheus/client_golang/prometheus"
)

// NodeStatser is implemented by *rest.Connection.
type NodeStatser interface {
	Stats() []rest.NodeStats
}

var (
	operationsDesc = prometheus.NewDesc(
		"terrastore_client_operations_total",
		"Total number of terrastore operations",
		[]string{"op"}, nil,
	)
	errorsDesc = prometheus.NewDesc(
		"terrastore_client_errors_total",
		"Total number of failed terrastore operations",
		[]string{"kind"}, nil, // all, not_found, condition_not_satisfied
	)
	getHitsDesc = prometheus.NewDesc(
		"terrastore_client_get_hits_total",
		"Get operations that returned a value",
		nil, nil,
	)
	inflightDesc = prometheus.NewDesc(
		"terrastore_node_inflight_requests",
		"Requests in flight per node",
		[]string{"node"}, nil,
	)
	circuitStateDesc = prometheus.NewDesc(
		"terrastore_node_circuit_breaker_state",
		"Circuit breaker state (0=closed, 1=half-open, 2=open)",
		[]string{"node"}, nil,
	)
	nodeRequestsDesc = prometheus.NewDesc(
		"terrastore_node_requests_total",
		"Requests sent per node",
		[]string{"node"}, nil,
	)
	nodeFailuresDesc = prometheus.NewDesc(
		"terrastore_node_failures_total",
		"Failed requests per node",
		[]string{"node"}, nil,
	)
)

// Collector implements prometheus.Collector by reading stats snapshots at scrape time.
type Collector struct {
	client *terrastore.Client
	nodes  NodeStatser
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for client. nodes may be nil.
func NewCollector(client *terrastore.Client, nodes NodeStatser) *Collector {
	return &Collector{client: client, nodes: nodes}
}

// NewCollectorFor creates a collector for client, including node metrics when the client
// is bound to a *rest.Connection.
func NewCollectorFor(client *terrastore.Client) *Collector {
	nodes, _ := client.Connection().(NodeStatser)
	return NewCollector(client, nodes)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- operationsDesc
	ch <- errorsDesc
	ch <- getHitsDesc
	if c.nodes != nil {
		ch <- inflightDesc
		ch <- circuitStateDesc
		ch <- nodeRequestsDesc
		ch <- nodeFailuresDesc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.client.Stats()

	ops := []struct {
		op    string
		count uint64
	}{
		{"get", s.Gets},
		{"put", s.Puts},
		{"remove", s.Removes},
		{"query", s.Queries},
		{"update", s.Updates},
		{"backup", s.Backups},
	}
	for _, o := range ops {
		ch <- prometheus.MustNewConstMetric(operationsDesc, prometheus.CounterValue, float64(o.count), o.op)
	}

	ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(s.Errors), "all")
	ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(s.NotFound), "not_found")
	ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(s.ConditionFailures), "condition_not_satisfied")
	ch <- prometheus.MustNewConstMetric(getHitsDesc, prometheus.CounterValue, float64(s.GetHits))

	if c.nodes == nil {
		return
	}
	for _, n := range c.nodes.Stats() {
		ch <- prometheus.MustNewConstMetric(inflightDesc, prometheus.GaugeValue, float64(n.InFlight), n.Addr)
		ch <- prometheus.MustNewConstMetric(circuitStateDesc, prometheus.GaugeValue, float64(n.CircuitBreakerState), n.Addr)
		ch <- prometheus.MustNewConstMetric(nodeRequestsDesc, prometheus.CounterValue, float64(n.Requests), n.Addr)
		ch <- prometheus.MustNewConstMetric(nodeFailuresDesc, prometheus.CounterValue, float64(n.Failures), n.Addr)
	}
}
