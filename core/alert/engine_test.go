package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/telematics/core/model"
)

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func dataEvent(r model.Reading) model.Event {
	return model.Event{Type: model.EventData, VehicleID: "CAR-1234", Reading: &r}
}

func kinds(alerts []model.Alert) []model.AlertKind {
	out := make([]model.AlertKind, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Kind)
	}
	return out
}

func TestEvaluate_UrbanSpeeding(t *testing.T) {
	e := newEngine(t, Config{})
	alerts := e.Evaluate(dataEvent(model.Reading{Speed: 70, FuelLevel: 50, EngineTemp: 90, IsUrbanArea: true}))
	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, model.AlertSpeeding, a.Kind)
	assert.Equal(t, model.SeverityWarning, a.Severity)
	assert.Equal(t, "Vehicle CAR-1234 is speeding: 70 km/h (Limit: 60 km/h)", a.Message)
	assert.Equal(t, 70.0, a.Value)
	assert.Equal(t, 60.0, a.Limit)
	assert.True(t, a.Forward)
	assert.NotEmpty(t, a.ID)
}

func TestEvaluate_AllRulesInOrder(t *testing.T) {
	e := newEngine(t, Config{})
	alerts := e.Evaluate(dataEvent(model.Reading{Speed: 130, FuelLevel: 5, EngineTemp: 100}))
	assert.Equal(t, []model.AlertKind{model.AlertSpeeding, model.AlertLowFuel, model.AlertOverheating}, kinds(alerts))
	assert.Equal(t, "Vehicle CAR-1234 low fuel: 5%", alerts[1].Message)
	assert.Equal(t, model.SeverityInfo, alerts[1].Severity)
	assert.Equal(t, "Vehicle CAR-1234 overheating: 100°C", alerts[2].Message)
	assert.Equal(t, model.SeverityCritical, alerts[2].Severity)
	assert.False(t, alerts[2].Forward, "overheating is not forwarded by default")
}

func TestEvaluate_StrictThresholds(t *testing.T) {
	e := newEngine(t, Config{})
	assert.Empty(t, e.Evaluate(dataEvent(model.Reading{Speed: 120, FuelLevel: 10, EngineTemp: 95})))
	assert.Empty(t, e.Evaluate(dataEvent(model.Reading{Speed: 60, FuelLevel: 10, EngineTemp: 95, IsUrbanArea: true})))
	assert.Equal(t, []model.AlertKind{model.AlertSpeeding},
		kinds(e.Evaluate(dataEvent(model.Reading{Speed: 120.5, FuelLevel: 50, EngineTemp: 80}))))
}

func TestEvaluate_DecimalFormatting(t *testing.T) {
	e := newEngine(t, Config{})
	alerts := e.Evaluate(dataEvent(model.Reading{Speed: 50, FuelLevel: 9.5, EngineTemp: 80}))
	require.Len(t, alerts, 1)
	assert.Equal(t, "Vehicle CAR-1234 low fuel: 9.5%", alerts[0].Message)
}

func TestEvaluate_NonDataEvents(t *testing.T) {
	e := newEngine(t, Config{})
	assert.Empty(t, e.Evaluate(model.Event{Type: model.EventIgnitionOn, VehicleID: "CAR-1234"}))
}

func TestEvaluate_ForwardOverheating(t *testing.T) {
	e := newEngine(t, Config{ForwardOverheating: true})
	alerts := e.Evaluate(dataEvent(model.Reading{Speed: 10, FuelLevel: 50, EngineTemp: 120}))
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Forward)
}

func TestConfig_Validate(t *testing.T) {
	_, err := NewEngine(Config{SpeedLimitKmh: 50, UrbanSpeedLimitKmh: 80})
	assert.Error(t, err)
	_, err = NewEngine(Config{MinFuelPercent: 150})
	assert.Error(t, err)
	_, err = NewEngine(Config{SpeedLimitKmh: -1})
	assert.Error(t, err)

	cfg := Config{}
	cfg.SetDefaults()
	assert.Equal(t, 120.0, cfg.SpeedLimitKmh)
	assert.Equal(t, 60.0, cfg.UrbanSpeedLimitKmh)
	assert.Equal(t, 10.0, cfg.MinFuelPercent)
	assert.Equal(t, 95.0, cfg.MaxEngineTempC)
	assert.NoError(t, cfg.Validate())
}
