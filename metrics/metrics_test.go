package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.SetModelSize(3, 7, 5)
	c.ObserveQuery("connections", 2*time.Millisecond, 4)
	c.ObserveQuery("connections", time.Millisecond, 0)
	c.ObserveQuery("stops", time.Millisecond, 2)
	c.LoadFailed("corrupt")

	body := scrape(t, c)
	assert.Contains(t, body, "transit_graph_vertices 7")
	assert.Contains(t, body, "transit_graph_edges 5")
	assert.Contains(t, body, "transit_model_stops 3")
	assert.Contains(t, body, `transit_queries_total{kind="connections"} 2`)
	assert.Contains(t, body, `transit_queries_total{kind="stops"} 1`)
	assert.Contains(t, body, "transit_connections_found_count 2")
	assert.Contains(t, body, "transit_connections_found_sum 4")
	assert.Contains(t, body, `transit_model_load_errors_total{reason="corrupt"} 1`)
}

func TestBuildDuration(t *testing.T) {
	c := NewCollector()
	c.ObserveBuild(time.Second)
	assert.Contains(t, scrape(t, c), "transit_build_duration_seconds_count 1")
}
