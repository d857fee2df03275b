package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct{ vehicles, trips int }

func (c counts) Vehicles() int    { return c.vehicles }
func (c counts) ActiveCount() int { return c.trips }

type fakeSweeper struct {
	defaultRuns int
	cutoffs     []time.Time
	removed     int
}

func (f *fakeSweeper) Sweep() int {
	f.defaultRuns++
	return f.removed
}

func (f *fakeSweeper) SweepBefore(cutoff time.Time) int {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.removed
}

func TestStatusHandler(t *testing.T) {
	c := counts{vehicles: 3, trips: 1}
	h := NewStatusHandler(c, c, time.Now().Add(-2*time.Second))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var out statusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.True(t, out.ServerStatus)
	assert.GreaterOrEqual(t, out.UptimeSeconds, 2.0)
	assert.Equal(t, 3, out.VehicleCount)
	assert.Equal(t, 1, out.ActiveTrips)
}

func TestCleanupHandlerDefaultRetention(t *testing.T) {
	s := &fakeSweeper{removed: 7}
	rr := httptest.NewRecorder()
	NewCleanupHandler(s).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "Cleanup process finished.", out["message"])
	assert.Equal(t, float64(7), out["eventsRemoved"])
	assert.NotContains(t, out, "cutoff")
	assert.Equal(t, 1, s.defaultRuns)
}

func TestCleanupHandlerOlderThan(t *testing.T) {
	s := &fakeSweeper{removed: 2}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/cleanup?olderThan=2024-05-01T12:00:00%2B02:00", nil)
	NewCleanupHandler(s).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, s.cutoffs, 1)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), s.cutoffs[0])
	assert.Zero(t, s.defaultRuns)
}

func TestCleanupHandlerBadCutoff(t *testing.T) {
	s := &fakeSweeper{}
	rr := httptest.NewRecorder()
	NewCleanupHandler(s).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/cleanup?olderThan=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, s.cutoffs)
	assert.Zero(t, s.defaultRuns)
}
