package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pior/terrastore"
	"github.com/pior/terrastore/internal/terrastoretest"
	"github.com/pior/terrastore/rest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *terrastore.Client {
	t.Helper()

	srv := terrastoretest.NewServer()
	t.Cleanup(srv.Close)
	srv.Put("users", "sergio", `{"name":"Sergio"}`)

	client, err := rest.NewClient(srv.URL, rest.Config{}, terrastore.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Bucket("users").Key("sergio").Get(ctx, nil))
	require.Error(t, client.Bucket("users").Key("ghost").Get(ctx, nil))
	require.NoError(t, client.Bucket("users").Key("sven").Put(ctx, map[string]string{"name": "Sven"}))
	return client
}

func TestCollector(t *testing.T) {
	client := newClient(t)

	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollectorFor(client))

	families, err := registry.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			name := f.GetName()
			for _, l := range m.GetLabel() {
				name += "," + l.GetName() + "=" + l.GetValue()
			}
			if m.GetCounter() != nil {
				values[name] = m.GetCounter().GetValue()
			} else {
				values[name] = m.GetGauge().GetValue()
			}
		}
	}

	node := ",node=" + client.ServerHost()
	require.Equal(t, 2.0, values["terrastore_client_operations_total,op=get"])
	require.Equal(t, 1.0, values["terrastore_client_operations_total,op=put"])
	require.Equal(t, 1.0, values["terrastore_client_get_hits_total"])
	require.Equal(t, 1.0, values["terrastore_client_errors_total,kind=all"])
	require.Equal(t, 1.0, values["terrastore_client_errors_total,kind=not_found"])
	require.Equal(t, 3.0, values["terrastore_node_requests_total"+node])
	require.Equal(t, 1.0, values["terrastore_node_failures_total"+node])
	require.Equal(t, 0.0, values["terrastore_node_inflight_requests"+node])
	require.Equal(t, 0.0, values["terrastore_node_circuit_breaker_state"+node])
}

func TestCollector_WithoutNodes(t *testing.T) {
	client := newClient(t)

	// 6 operation counters, 3 error counters, 1 hit counter
	require.Equal(t, 10, testutil.CollectAndCount(NewCollector(client, nil)))
}

func TestExporter_Handler(t *testing.T) {
	client := newClient(t)

	srv := httptest.NewServer(NewExporter(client).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `terrastore_client_operations_total{op="get"} 2`))
}
