// Package notify provides the built-in notification sinks and registers
// them with the core notifier factory.
package notify

import (
	"context"

	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/infra/logger"
)

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier logs under the given component name.
func NewLogNotifier(component string) *LogNotifier {
	if component == "" {
		component = "notifications"
	}
	return &LogNotifier{log: logger.New(component)}
}

func (n *LogNotifier) Send(_ context.Context, id model.VehicleID, message string) error {
	n.log.Infof("NOTIFY %s: %s", id, message)
	return nil
}

func (n *LogNotifier) SendAlert(_ context.Context, a model.Alert) error {
	n.log.Debugw("NOTIFY "+a.Message, map[string]any{
		"vehicle_id": a.VehicleID.String(),
		"kind":       string(a.Kind),
		"severity":   string(a.Severity),
		"value":      a.Value,
		"limit":      a.Limit,
	})
	n.log.Infof("NOTIFY %s: %s", a.VehicleID, a.Message)
	return nil
}
