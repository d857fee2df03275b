// Package admin exposes service status and maintenance endpoints.
package admin

import (
	"math"
	"net/http"
	"time"

	"github.com/kilianp07/telematics/api/respond"
)

// VehicleCounter reports how many vehicles have stored events.
type VehicleCounter interface {
	Vehicles() int
}

// TripCounter reports how many vehicles are on an open trip.
type TripCounter interface {
	ActiveCount() int
}

// Sweeper runs retention sweeps on demand.
type Sweeper interface {
	Sweep() int
	SweepBefore(cutoff time.Time) int
}

type statusResponse struct {
	ServerStatus  bool    `json:"serverStatus"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	VehicleCount  int     `json:"vehicleCount"`
	ActiveTrips   int     `json:"activeTrips"`
}

// NewStatusHandler returns the GET /status handler. Uptime is measured from started.
func NewStatusHandler(vehicles VehicleCounter, trips TripCounter, started time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(started).Seconds()
		respond.JSON(w, http.StatusOK, statusResponse{
			ServerStatus:  true,
			UptimeSeconds: math.Round(uptime*1000) / 1000,
			VehicleCount:  vehicles.Vehicles(),
			ActiveTrips:   trips.ActiveCount(),
		})
	})
}

type cleanupResponse struct {
	Message       string     `json:"message"`
	EventsRemoved int        `json:"eventsRemoved"`
	Cutoff        *time.Time `json:"cutoff,omitempty"`
}

// NewCleanupHandler returns the POST /admin/cleanup handler. The optional
// olderThan query parameter (RFC3339) overrides the configured retention.
func NewCleanupHandler(s Sweeper) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var removed int
		var cutoff *time.Time
		if v := r.URL.Query().Get("olderThan"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				respond.Error(w, http.StatusBadRequest, "invalid olderThan parameter: expected RFC3339 timestamp")
				return
			}
			t = t.UTC()
			cutoff = &t
			removed = s.SweepBefore(t)
		} else {
			removed = s.Sweep()
		}
		respond.JSON(w, http.StatusOK, cleanupResponse{
			Message:       "Cleanup process finished.",
			EventsRemoved: removed,
			Cutoff:        cutoff,
		})
	})
}
