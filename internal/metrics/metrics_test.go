package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/metrics"
)

func TestMetrics_Observe(t *testing.T) {
	m := metrics.New()
	m.ObserveLogin("success")
	m.ObserveLogin("success")
	m.ObserveLogin("failure")
	m.ObserveCatalogMutation("add", "success")

	count, err := testutil.GatherAndCount(m.Registry(), "storefront_auth_logins_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count) // two label sets

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `storefront_auth_logins_total{result="success"} 2`)
	assert.Contains(t, string(body), `storefront_catalog_mutations_total{operation="add",result="success"} 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveLogin("success")
		m.ObserveRegistration("duplicate")
		m.ObserveCatalogMutation("delete", "not_found")
		m.ObserveRequest("GET", "/", 200)
	})
}
