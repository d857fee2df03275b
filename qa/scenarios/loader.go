package scenarios

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/telematics/core/validation"
)

// Expect is the outcome expected for one step. Nil fields are not checked.
type Expect struct {
	Accepted *bool    `yaml:"accepted,omitempty"`
	Alerts   []string `yaml:"alerts,omitempty"`
	Warnings *int     `yaml:"warnings,omitempty"`
}

// Step is one event submission. Offset is added to the run's base time to
// build the timestamp unless the payload carries its own.
type Step struct {
	Offset  time.Duration  `yaml:"offset"`
	Payload map[string]any `yaml:"payload"`
	Expect  Expect         `yaml:"expect"`
}

// TripExpect describes the trip state of a vehicle after the last step.
type TripExpect struct {
	Vehicle    string   `yaml:"vehicle"`
	Completed  int      `yaml:"completed"`
	Active     bool     `yaml:"active"`
	DurationMs *int64   `yaml:"duration_ms,omitempty"`
	DistanceKm *float64 `yaml:"distance_km,omitempty"`
}

type Expected struct {
	Trips []TripExpect `yaml:"trips,omitempty"`
	// NotFound lists vehicles the trip tracker must not know.
	NotFound []string `yaml:"not_found,omitempty"`
}

type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Steps       []Step   `yaml:"steps"`
	Expected    Expected `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}

// Body returns the JSON document submitted for the step.
func (s Step) Body(base time.Time) ([]byte, error) {
	doc := make(map[string]any, len(s.Payload)+1)
	for k, v := range s.Payload {
		doc[k] = v
	}
	if _, ok := doc["timestamp"]; !ok {
		doc["timestamp"] = base.Add(s.Offset).UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(doc)
}

// DecodedPayload decodes the step body the way the HTTP handler does.
func (s Step) DecodedPayload(base time.Time) (validation.Payload, error) {
	var p validation.Payload
	body, err := s.Body(base)
	if err != nil {
		return p, err
	}
	err = json.Unmarshal(body, &p)
	return p, err
}
