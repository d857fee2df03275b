// Package vehicles exposes per-vehicle read endpoints: recent events and trips.
package vehicles

import (
	"errors"
	"net/http"
	"strconv"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/kilianp07/telematics/api/respond"
	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/core/trip"
	"github.com/kilianp07/telematics/pkg/export"
)

// EventReader is the read side of the vehicle state store.
type EventReader interface {
	Exists(id model.VehicleID) bool
	Count(id model.VehicleID) int
	Recent(id model.VehicleID, n int) []model.Event
}

// TripReader is the read side of the trip tracker.
type TripReader interface {
	TripsFor(id model.VehicleID) (trip.Summary, error)
}

// Handler serves GET /data/{vehicleId} and GET /trips/{vehicleId}.
type Handler struct {
	events       EventReader
	trips        TripReader
	defaultLimit int
	maxLimit     int
}

// NewHandler returns a Handler. Non-positive limits fall back to 10 and 100.
func NewHandler(events EventReader, trips TripReader, defaultLimit, maxLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Handler{events: events, trips: trips, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

type dataResponse struct {
	VehicleID    model.VehicleID `json:"vehicleId"`
	Count        int             `json:"count"`
	RecentEvents []model.Event   `json:"recentEvents"`
}

// Data returns the most recent events of a vehicle, oldest first.
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseVehicleID(r.PathValue("vehicleId"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid vehicle ID format in URL.")
		return
	}
	limit := h.defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respond.Error(w, http.StatusBadRequest, "invalid limit parameter: must be a positive integer")
			return
		}
		limit = min(n, h.maxLimit)
	}
	if !h.events.Exists(id) {
		respond.Error(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	respond.JSON(w, http.StatusOK, dataResponse{
		VehicleID:    id,
		Count:        h.events.Count(id),
		RecentEvents: h.events.Recent(id, limit),
	})
}

type tripView struct {
	model.CompletedTrip
	DurationMin float64 `json:"durationMin"`
}

type activeView struct {
	*model.ActiveTrip
	CurrentDistanceKm float64 `json:"currentDistanceKm"`
}

type tripsResponse struct {
	VehicleID   model.VehicleID `json:"vehicleId"`
	TripHistory []tripView      `json:"tripHistory"`
	CurrentTrip *activeView     `json:"currentTrip"`
}

// Trips returns the completed trips and the active trip of a vehicle. With
// ?format=csv the history is returned as a CSV attachment.
func (h *Handler) Trips(w http.ResponseWriter, r *http.Request) {
	id := model.VehicleID(r.PathValue("vehicleId"))
	sum, err := h.trips.TripsFor(id)
	if errors.Is(err, trip.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "No trip data found for this vehicle.")
		return
	}
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trips-`+string(id)+`.csv"`)
		if err := export.WriteCSV(w, sum.History); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	resp := tripsResponse{VehicleID: id, TripHistory: make([]tripView, 0, len(sum.History))}
	for _, t := range sum.History {
		resp.TripHistory = append(resp.TripHistory, tripView{
			CompletedTrip: t,
			DurationMin:   scalar.Round(t.DurationMinutes(), 2),
		})
	}
	if sum.Active != nil {
		resp.CurrentTrip = &activeView{
			ActiveTrip:        sum.Active,
			CurrentDistanceKm: trip.Distance(sum.Active.StartPosition, sum.Active.LastKnownPosition),
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}
