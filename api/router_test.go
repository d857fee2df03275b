package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/telematics/core/alert"
	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/core/processor"
	"github.com/kilianp07/telematics/core/retention"
	"github.com/kilianp07/telematics/core/trip"
	"github.com/kilianp07/telematics/core/vehiclestate"
	"github.com/kilianp07/telematics/infra/logger"
	"github.com/kilianp07/telematics/infra/metrics"
)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch([]model.Alert) {}

func newTestRouter(t *testing.T, key string) (http.Handler, *vehiclestate.MemoryStore) {
	t.Helper()
	engine, err := alert.NewEngine(alert.Config{})
	require.NoError(t, err)
	store := vehiclestate.NewMemoryStore(4)
	tracker := trip.NewTracker()
	proc := processor.New(store, engine, tracker, nopDispatcher{}, logger.NopLogger{})
	reg := prometheus.NewRegistry()
	_, err = metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	h := NewRouter(Deps{
		Processor: proc,
		Store:     store,
		Trips:     tracker,
		Sweeper:   retention.NewSweeper(store, retention.Config{}, nil, logger.NopLogger{}),
		Metrics:   metrics.Handler(reg),
		Logger:    logger.NopLogger{},
	}, Options{APIKey: key})
	return h, store
}

func do(h http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterAPIKey(t *testing.T) {
	h, _ := newTestRouter(t, "secret")

	rr := do(h, http.MethodGet, "/data/CAR-1234", "", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Forbidden: Invalid API Key", body["error"])

	rr = do(h, http.MethodGet, "/data/CAR-1234", "wrong", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(h, http.MethodGet, "/data/CAR-1234", "secret", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/status", "", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/metrics", "", "").Code)
}

func TestRouterWithoutAPIKey(t *testing.T) {
	h, _ := newTestRouter(t, "")
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/data/CAR-1234", "", "").Code)
}

func TestRouterEndToEnd(t *testing.T) {
	h, store := newTestRouter(t, "k")
	now := time.Now().UTC()
	ts := func(d time.Duration) string { return now.Add(d).Format(time.RFC3339) }

	rr := do(h, http.MethodPost, "/events", "k", `{"type":"ignition_on","vehicleId":"CAR-1234","timestamp":"`+ts(0)+`","lat":40.7128,"lon":-74.006}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(h, http.MethodPost, "/events", "k", `{"type":"data","vehicleId":"CAR-1234","timestamp":"`+ts(time.Minute)+`","lat":40.72,"lon":-74.0,"speed":70,"fuelLevel":5,"engineTemp":90,"isUrbanArea":true}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var accepted struct {
		Message string        `json:"message"`
		Alerts  []model.Alert `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))
	assert.Equal(t, "data event received successfully", accepted.Message)
	assert.Len(t, accepted.Alerts, 2)

	rr = do(h, http.MethodGet, "/status", "", "")
	var status map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, float64(1), status["vehicleCount"])
	assert.Equal(t, float64(1), status["activeTrips"])

	rr = do(h, http.MethodPost, "/events", "k", `{"type":"ignition_off","vehicleId":"CAR-1234","timestamp":"`+ts(10*time.Minute)+`"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(h, http.MethodGet, "/trips/CAR-1234", "k", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var trips struct {
		TripHistory []map[string]any `json:"tripHistory"`
		CurrentTrip any              `json:"currentTrip"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &trips))
	require.Len(t, trips.TripHistory, 1)
	assert.Equal(t, float64(10), trips.TripHistory[0]["durationMin"])
	assert.Nil(t, trips.CurrentTrip)

	rr = do(h, http.MethodPost, "/events", "k", `{"type":"data","vehicleId":"INVALIDID","speed":1,"fuelLevel":1,"engineTemp":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Equal(t, 3, store.Count("CAR-1234"))
	rr = do(h, http.MethodPost, "/admin/cleanup?olderThan="+ts(time.Hour), "k", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var cleanup map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cleanup))
	assert.Equal(t, float64(3), cleanup["eventsRemoved"])
	assert.False(t, store.Exists("CAR-1234"))
}

func TestRouterMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t, "")
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/events", "", "").Code)
}

func TestRouterStatusTrailingSlash(t *testing.T) {
	h, _ := newTestRouter(t, "secret")
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/status/", "", "").Code)
}
