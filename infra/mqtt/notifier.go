package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/kilianp07/telematics/core/model"
)

// DefaultNotifyTopic is the alert topic template; {vehicleId} is replaced
// with the vehicle identifier.
const DefaultNotifyTopic = "vehicles/{vehicleId}/alerts"

// Notification is the JSON document published for each alert.
type Notification struct {
	ID        string          `json:"id,omitempty"`
	VehicleID model.VehicleID `json:"vehicleId"`
	Kind      model.AlertKind `json:"kind,omitempty"`
	Severity  model.Severity  `json:"severity,omitempty"`
	Message   string          `json:"message"`
	Value     float64         `json:"triggeringValue,omitempty"`
	Limit     float64         `json:"limit,omitempty"`
	SentAt    time.Time       `json:"sentAt"`
}

// publisher is implemented by Client.
type publisher interface {
	Publish(ctx context.Context, topic string, qos byte, payload []byte) error
}

// Notifier publishes alerts to a per-vehicle topic.
type Notifier struct {
	pub   publisher
	topic string
	qos   byte
	now   func() time.Time
}

// NewNotifier publishes through c using the topic template.
func NewNotifier(c *Client, topic string) *Notifier {
	return newNotifier(c, topic, c.QoS("notify"))
}

func newNotifier(p publisher, topic string, qos byte) *Notifier {
	if topic == "" {
		topic = DefaultNotifyTopic
	}
	return &Notifier{pub: p, topic: topic, qos: qos, now: time.Now}
}

// Topic returns the topic alerts of id are published to.
func (n *Notifier) Topic(id model.VehicleID) string {
	return strings.ReplaceAll(n.topic, "{vehicleId}", id.String())
}

// Send publishes a bare message.
func (n *Notifier) Send(ctx context.Context, id model.VehicleID, message string) error {
	return n.publish(ctx, Notification{VehicleID: id, Message: message})
}

// SendAlert publishes the alert with its kind and values.
func (n *Notifier) SendAlert(ctx context.Context, a model.Alert) error {
	return n.publish(ctx, Notification{
		ID:        a.ID,
		VehicleID: a.VehicleID,
		Kind:      a.Kind,
		Severity:  a.Severity,
		Message:   a.Message,
		Value:     a.Value,
		Limit:     a.Limit,
	})
}

func (n *Notifier) publish(ctx context.Context, msg Notification) error {
	msg.SentAt = n.now().UTC()
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.pub.Publish(ctx, n.Topic(msg.VehicleID), n.qos, payload)
}

// Close disconnects the underlying client.
func (n *Notifier) Close() {
	if c, ok := n.pub.(interface{ Close() }); ok {
		c.Close()
	}
}
