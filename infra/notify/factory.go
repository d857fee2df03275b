package notify

import (
	"github.com/kilianp07/telematics/core/factory"
	corenotify "github.com/kilianp07/telematics/core/notify"
	"github.com/kilianp07/telematics/infra/mqtt"
)

// MQTTConfig configures the "mqtt" notifier.
type MQTTConfig struct {
	mqtt.Config `json:",squash"`
	Topic       string `json:"topic"`
}

// init registers built-in notifiers.
func init() {
	_ = corenotify.RegisterNotifier("nop", func(map[string]any) (corenotify.Notifier, error) {
		return corenotify.NopNotifier{}, nil
	})

	_ = corenotify.RegisterNotifier("log", func(conf map[string]any) (corenotify.Notifier, error) {
		var c struct {
			Component string `json:"component"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewLogNotifier(c.Component), nil
	})

	_ = corenotify.RegisterNotifier("mqtt", func(conf map[string]any) (corenotify.Notifier, error) {
		var c MQTTConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		cli, err := mqtt.Dial(c.Config, "notify")
		if err != nil {
			return nil, err
		}
		return mqtt.NewNotifier(cli, c.Topic), nil
	})
}
