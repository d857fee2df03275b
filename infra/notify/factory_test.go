package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/telematics/core/factory"
	"github.com/kilianp07/telematics/core/model"
	corenotify "github.com/kilianp07/telematics/core/notify"
)

func TestRegisteredNotifiers(t *testing.T) {
	n, err := corenotify.NewNotifier([]factory.ModuleConfig{{Type: "log", Conf: map[string]any{"component": "alerts"}}})
	require.NoError(t, err)
	ln, ok := n.(*LogNotifier)
	require.True(t, ok)
	assert.NoError(t, ln.Send(context.Background(), "CAR-1234", "Vehicle CAR-1234 low fuel: 5%"))
	assert.NoError(t, ln.SendAlert(context.Background(), model.Alert{VehicleID: "CAR-1234", Message: "x"}))

	n, err = corenotify.NewNotifier([]factory.ModuleConfig{{Type: "nop"}, {Type: "log"}})
	require.NoError(t, err)
	assert.IsType(t, &corenotify.MultiNotifier{}, n)
}

func TestMQTTNotifierRequiresBroker(t *testing.T) {
	_, err := corenotify.NewNotifier([]factory.ModuleConfig{{Type: "mqtt", Conf: map[string]any{"topic": "x/{vehicleId}"}}})
	assert.Error(t, err)
}
