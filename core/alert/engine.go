// Package alert evaluates data events against the configured thresholds.
package alert

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/telematics/core/model"
)

// rule raises at most one alert for a reading. Check returns the triggering
// value and the limit it was compared with.
type rule struct {
	Kind     model.AlertKind
	Severity model.Severity
	Check    func(c Config, r model.Reading) (value, limit float64, hit bool)
	Message  func(id model.VehicleID, value, limit float64) string
}

var rules = []rule{
	{
		Kind:     model.AlertSpeeding,
		Severity: model.SeverityWarning,
		Check: func(c Config, r model.Reading) (float64, float64, bool) {
			limit := c.SpeedLimitKmh
			if r.IsUrbanArea {
				limit = c.UrbanSpeedLimitKmh
			}
			return r.Speed, limit, r.Speed > limit
		},
		Message: func(id model.VehicleID, v, l float64) string {
			return "Vehicle " + id.String() + " is speeding: " + num(v) + " km/h (Limit: " + num(l) + " km/h)"
		},
	},
	{
		Kind:     model.AlertLowFuel,
		Severity: model.SeverityInfo,
		Check: func(c Config, r model.Reading) (float64, float64, bool) {
			return r.FuelLevel, c.MinFuelPercent, r.FuelLevel < c.MinFuelPercent
		},
		Message: func(id model.VehicleID, v, _ float64) string {
			return "Vehicle " + id.String() + " low fuel: " + num(v) + "%"
		},
	},
	{
		Kind:     model.AlertOverheating,
		Severity: model.SeverityCritical,
		Check: func(c Config, r model.Reading) (float64, float64, bool) {
			return r.EngineTemp, c.MaxEngineTempC, r.EngineTemp > c.MaxEngineTempC
		},
		Message: func(id model.VehicleID, v, _ float64) string {
			return "Vehicle " + id.String() + " overheating: " + num(v) + "°C"
		},
	},
}

// Engine evaluates data events. It is stateless and safe for concurrent use.
type Engine struct {
	cfg Config
	now func() time.Time
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, now: time.Now}, nil
}

// Config returns the effective thresholds.
func (e *Engine) Config() Config { return e.cfg }

// Evaluate returns the alerts raised by ev in rule order. Non-data events
// never raise alerts.
func (e *Engine) Evaluate(ev model.Event) []model.Alert {
	if ev.Type != model.EventData || ev.Reading == nil {
		return nil
	}
	var out []model.Alert
	for _, r := range rules {
		value, limit, hit := r.Check(e.cfg, *ev.Reading)
		if !hit {
			continue
		}
		out = append(out, model.Alert{
			ID:        uuid.NewString(),
			VehicleID: ev.VehicleID,
			Kind:      r.Kind,
			Severity:  r.Severity,
			Message:   r.Message(ev.VehicleID, value, limit),
			Value:     value,
			Limit:     limit,
			Forward:   e.forward(r.Kind),
			RaisedAt:  e.now().UTC(),
		})
	}
	return out
}

func (e *Engine) forward(k model.AlertKind) bool {
	if k == model.AlertOverheating {
		return e.cfg.ForwardOverheating
	}
	return true
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
