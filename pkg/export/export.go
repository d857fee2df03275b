// Package export renders completed trips for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/telematics/core/model"
)

var csvHeader = []string{
	"vehicle_id", "start_time", "end_time", "duration_ms", "distance_km",
	"start_lat", "start_lon", "end_lat", "end_lon",
	"avg_speed_kmh", "max_speed_kmh", "samples", "alert_count",
}

// WriteJSON writes the trip history to w in JSON format.
func WriteJSON(w io.Writer, trips []model.CompletedTrip) error {
	enc := json.NewEncoder(w)
	return enc.Encode(trips)
}

// WriteCSV writes the trip history to w in CSV format, one row per trip.
// Missing positions are written as empty cells.
func WriteCSV(w io.Writer, trips []model.CompletedTrip) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range trips {
		rec := []string{
			string(t.VehicleID),
			t.StartTime.Format(time.RFC3339Nano),
			t.EndTime.Format(time.RFC3339Nano),
			strconv.FormatInt(t.DurationMs, 10),
			formatFloat(t.DistanceKm),
		}
		rec = append(rec, position(t.StartPosition)...)
		rec = append(rec, position(t.EndPosition)...)
		rec = append(rec,
			formatFloat(t.AvgSpeedKmh),
			formatFloat(t.MaxSpeedKmh),
			strconv.Itoa(t.Samples),
			strconv.Itoa(t.AlertCount),
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func position(p *model.Position) []string {
	if p == nil {
		return []string{"", ""}
	}
	return []string{formatFloat(p.Lat), formatFloat(p.Lon)}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
