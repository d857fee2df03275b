package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/telematics/core/processor"
	"github.com/kilianp07/telematics/core/validation"
	"github.com/kilianp07/telematics/infra/logger"
)

// DefaultIngestTopic is the topic filter telemetry is read from. The
// second level carries the vehicle id.
const DefaultIngestTopic = "telemetry/+/events"

// IngestConfig enables telemetry ingestion over MQTT.
type IngestConfig struct {
	Enabled bool   `json:"enabled"`
	Topic   string `json:"topic"`
}

// SetDefaults applies DefaultIngestTopic.
func (c *IngestConfig) SetDefaults() {
	if c.Topic == "" {
		c.Topic = DefaultIngestTopic
	}
}

// Ingestor processes a decoded payload.
type Ingestor interface {
	Process(ctx context.Context, p validation.Payload) processor.Outcome
}

type subscriber interface {
	Subscribe(topic string, qos byte, h paho.MessageHandler) error
}

// Subscriber feeds telemetry published on MQTT into an Ingestor.
type Subscriber struct {
	sub   subscriber
	topic string
	qos   byte
	proc  Ingestor
	log   logger.Logger
}

// NewSubscriber reads cfg.Topic through c.
func NewSubscriber(c *Client, cfg IngestConfig, proc Ingestor) *Subscriber {
	cfg.SetDefaults()
	return &Subscriber{sub: c, topic: cfg.Topic, qos: c.QoS("ingest"), proc: proc, log: logger.New("mqtt_ingest")}
}

// Run subscribes and blocks until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	if err := s.sub.Subscribe(s.topic, s.qos, func(_ paho.Client, msg paho.Message) {
		s.handle(ctx, msg.Topic(), msg.Payload())
	}); err != nil {
		return err
	}
	s.log.Infof("ingesting telemetry from %s", s.topic)
	<-ctx.Done()
	return nil
}

func (s *Subscriber) handle(ctx context.Context, topic string, body []byte) {
	var p validation.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		s.log.Warnf("discarding malformed payload on %s: %v", topic, err)
		return
	}
	if p.VehicleID == nil {
		if id := vehicleFromTopic(topic); id != "" {
			p.VehicleID = id
		}
	}
	out := s.proc.Process(ctx, p)
	if !out.Accepted {
		s.log.Warnf("rejected payload on %s: %s", topic, out.Reason)
	}
}

// vehicleFromTopic returns the second topic level, e.g. CAR-1234 for
// telemetry/CAR-1234/events.
func vehicleFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
