// Package events exposes the telemetry ingestion endpoint.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/telematics/api/respond"
	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/core/processor"
	"github.com/kilianp07/telematics/core/validation"
)

// DefaultMaxBody bounds the size of a request body.
const DefaultMaxBody int64 = 1 << 20

// Processor handles one decoded payload.
type Processor interface {
	Process(ctx context.Context, payload validation.Payload) processor.Outcome
}

type rejected struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type accepted struct {
	Message   string               `json:"message"`
	Alerts    []model.Alert        `json:"alerts"`
	Warnings  []validation.Warning `json:"warnings"`
	VehicleID model.VehicleID      `json:"vehicleId"`
}

// NewHandler returns the POST /events handler. maxBody <= 0 selects
// DefaultMaxBody.
func NewHandler(proc Processor, maxBody int64) http.Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		var p validation.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respond.JSON(w, http.StatusRequestEntityTooLarge, rejected{Error: "Request body too large", Reason: err.Error()})
				return
			}
			respond.JSON(w, http.StatusBadRequest, rejected{Error: "Invalid JSON", Reason: err.Error()})
			return
		}

		out := proc.Process(r.Context(), p)
		if !out.Accepted {
			respond.JSON(w, http.StatusBadRequest, rejected{Error: "Invalid event data", Reason: out.Reason})
			return
		}
		alerts := out.Alerts
		if alerts == nil {
			alerts = []model.Alert{}
		}
		warnings := out.Warnings
		if warnings == nil {
			warnings = []validation.Warning{}
		}
		respond.JSON(w, http.StatusCreated, accepted{
			Message:   string(out.Type) + " event received successfully",
			Alerts:    alerts,
			Warnings:  warnings,
			VehicleID: out.VehicleID,
		})
	})
}
