package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/ttpr0/go-transit/metrics"
	"github.com/ttpr0/go-transit/parser"
	"github.com/ttpr0/go-transit/preproc"
	"github.com/ttpr0/go-transit/structs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp serves the model built from the gtfs fixture. T1 runs S1 8:00,
// S2 8:10/8:11, S3 8:20 on weekdays of 2024 except 2024-01-03.
func testApp(t *testing.T, walk_edges bool) (*httprouter.Router, *ModelManager) {
	tt, err := parser.ParseGtfsDir("parser/testdata/simple")
	require.NoError(t, err)
	config := DefaultConfig()
	config.Build.WalkEdges = walk_edges
	model, err := preproc.BuildModel(tt, config.BuildOptions())
	require.NoError(t, err)
	manager := NewModelManagerFor(model, config, metrics.NewCollector())
	t.Cleanup(func() { manager.Close() })

	app := httprouter.New()
	RegisterRoutes(app, manager)
	return app, manager
}

func doRequest[T any](t *testing.T, app http.Handler, req *http.Request, status int) T {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, status, rec.Code, rec.Body.String())
	var resp T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestConnectionsByStop(t *testing.T) {
	app, _ := testApp(t, false)

	resp := doRequest[ConnectionsResponse](t, app, httptest.NewRequest("GET", "/v0/connections?from=S1&to=S3&date=2024-01-02", nil), http.StatusOK)
	assert.Equal(t, structs.NewDate(2024, 1, 2), resp.Date)
	require.Len(t, resp.Connections, 1)
	conn := resp.Connections[0]
	assert.Equal(t, "8:00", conn.Departure)
	assert.Equal(t, "8:20", conn.Arrival)
	assert.Equal(t, int32(8*3600), conn.StartTime)
	assert.Equal(t, int32(8*3600+1200), conn.EndTime)
	require.Len(t, conn.Segments, 1)
	assert.Equal(t, "S1", conn.Segments[0].From.ID)
	assert.Equal(t, "Hauptbahnhof", conn.Segments[0].From.Name)
	assert.Equal(t, "S3", conn.Segments[0].To.ID)
	assert.Equal(t, "1", conn.Segments[0].Route)

	// excluded date
	resp = doRequest[ConnectionsResponse](t, app, httptest.NewRequest("GET", "/v0/connections?from=S1&to=S3&date=20240103", nil), http.StatusOK)
	assert.Empty(t, resp.Connections)
}

func TestConnectionsByCoordinate(t *testing.T) {
	app, _ := testApp(t, false)

	// S1 and S2 are both within walking distance of the origin
	resp := doRequest[ConnectionsResponse](t, app, httptest.NewRequest("GET", "/v0/connections?from_lon=8&from_lat=50&to=S3&date=2024-01-02", nil), http.StatusOK)
	require.Len(t, resp.Connections, 1)
	conn := resp.Connections[0]
	assert.Equal(t, int32(8*3600+570), conn.StartTime)
	require.Len(t, conn.Segments, 1)
	assert.Equal(t, "S2", conn.Segments[0].From.ID)
	assert.Equal(t, "8:11", conn.Segments[0].Departure)
}

func TestConnectionsErrors(t *testing.T) {
	app, _ := testApp(t, false)

	doRequest[ErrorResponse](t, app, httptest.NewRequest("GET", "/v0/connections?from=S1&to=XX&date=2024-01-02", nil), http.StatusNotFound)
	doRequest[ErrorResponse](t, app, httptest.NewRequest("GET", "/v0/connections?from=S1&to=S3&date=tomorrow", nil), http.StatusBadRequest)
	doRequest[ErrorResponse](t, app, httptest.NewRequest("GET", "/v0/connections?from=S1&to=S3", nil), http.StatusBadRequest)
	doRequest[ErrorResponse](t, app, httptest.NewRequest("GET", "/v0/connections?from=S1&to_lon=abc&date=2024-01-02", nil), http.StatusBadRequest)
	// nothing near null island
	doRequest[ErrorResponse](t, app, httptest.NewRequest("GET", "/v0/connections?from=S1&date=2024-01-02", nil), http.StatusNotFound)
}

func TestConnectionsPost(t *testing.T) {
	app, _ := testApp(t, false)

	body := `{"date": "2024-01-02", "from": [{"stop": "S1", "offset": 0}], "to": [{"stop": "S3", "offset": 0}]}`
	resp := doRequest[ConnectionsResponse](t, app, httptest.NewRequest("POST", "/v0/connections", bytes.NewBufferString(body)), http.StatusOK)
	require.Len(t, resp.Connections, 1)
	assert.Equal(t, "8:00", resp.Connections[0].Departure)

	body = `{"date": "2024-01-02", "from": [], "to": [{"stop": "S3", "offset": 0}]}`
	doRequest[ErrorResponse](t, app, httptest.NewRequest("POST", "/v0/connections", bytes.NewBufferString(body)), http.StatusBadRequest)

	body = `{"date": "2024-01-02", "from": [{"stop": "S9"}], "to": [{"stop": "S3"}]}`
	doRequest[ErrorResponse](t, app, httptest.NewRequest("POST", "/v0/connections", bytes.NewBufferString(body)), http.StatusNotFound)

	doRequest[ErrorResponse](t, app, httptest.NewRequest("POST", "/v0/connections", bytes.NewBufferString("{")), http.StatusBadRequest)
}

func TestNearStops(t *testing.T) {
	app, _ := testApp(t, true)

	resp := doRequest[NearStopsResponse](t, app, httptest.NewRequest("GET", "/v0/stops/near?lon=8&lat=50&radius=200", nil), http.StatusOK)
	require.Len(t, resp.Stops, 2)
	assert.Equal(t, "S1", resp.Stops[0].Stop.ID)
	assert.Equal(t, int32(0), resp.Stops[0].Offset)
	assert.Equal(t, "S2", resp.Stops[1].Stop.ID)
	assert.InDelta(t, 90, resp.Stops[1].Offset, 1)

	resp = doRequest[NearStopsResponse](t, app, httptest.NewRequest("GET", "/v0/stops/near?lon=8&lat=50&radius=50", nil), http.StatusOK)
	require.Len(t, resp.Stops, 1)

	doRequest[ErrorResponse](t, app, httptest.NewRequest("GET", "/v0/stops/near?lon=200&lat=50", nil), http.StatusBadRequest)
}

func TestPrintConnections(t *testing.T) {
	_, manager := testApp(t, false)
	date := structs.NewDate(2024, 1, 2)
	from, err := ResolveStops(manager.Model(), "S1")
	require.NoError(t, err)
	to, err := ResolveStops(manager.Model(), "S3, S2")
	require.NoError(t, err)
	assert.Len(t, to, 2)

	var buf bytes.Buffer
	PrintConnections(&buf, manager.Model(), date, manager.FindConnections(date, from, to))
	assert.Contains(t, buf.String(), "1. 8:00 -> 8:10 (1 rides)")
	assert.Contains(t, buf.String(), "Hauptbahnhof")

	buf.Reset()
	PrintConnections(&buf, manager.Model(), date+1, manager.FindConnections(date+1, from, to))
	assert.Equal(t, "no connections on 2024-01-03\n", buf.String())

	_, err = ResolveStops(manager.Model(), "S1,nope")
	assert.Error(t, err)
	_, err = ResolveStops(manager.Model(), " , ")
	assert.Error(t, err)
}
