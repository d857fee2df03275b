package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var mqttClientFactory = realMQTTClient

func realMQTTClient(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}

// MQTTPublisher publishes events to a per-vehicle topic.
type MQTTPublisher struct {
	client paho.Client
	topic  string
}

// NewMQTTPublisher connects to broker. topic may contain {vehicleId}.
func NewMQTTPublisher(broker, clientID, topic string) (*MQTTPublisher, error) {
	cli, err := mqttClientFactory(broker, clientID)
	if err != nil {
		return nil, err
	}
	return &MQTTPublisher{client: cli, topic: topic}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	topic := strings.ReplaceAll(p.topic, "{vehicleId}", ev.VehicleID)
	token := p.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MQTTPublisher) Close() { p.client.Disconnect(250) }

// HTTPPublisher posts events to the /events endpoint.
type HTTPPublisher struct {
	client *http.Client
	url    string
	apiKey string
}

func NewHTTPPublisher(client *http.Client, server, apiKey string) *HTTPPublisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPublisher{client: client, url: strings.TrimSuffix(server, "/") + "/events", apiKey: apiKey}
}

func (p *HTTPPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return nil
}
