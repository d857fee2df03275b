// Package util starts the containers and polls the endpoints the
// integration and e2e suites depend on.
package util

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	HTTPReadyTimeout      = 5 * time.Second
	MosquittoReadyTimeout = 5 * time.Second
	MetricTimeout         = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
log_dest stdout
connection_messages true
`

// InfluxSetup is the organisation, bucket and admin token an InfluxDB
// container is initialised with.
type InfluxSetup struct {
	Org    string
	Bucket string
	Token  string
}

// poll calls ok until it returns true or ctx is done.
func poll(ctx context.Context, what string, ok func() bool) error {
	for {
		if ok() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

// WaitForHTTP polls url until it answers 200.
func WaitForHTTP(ctx context.Context, url string) error {
	return poll(ctx, url+" not ready", func() bool {
		code, _, err := get(ctx, url)
		return err == nil && code == http.StatusOK
	})
}

// WaitForMetric polls a Prometheus exposition until substr shows up.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	return poll(ctx, fmt.Sprintf("metric %q not found", substr), func() bool {
		_, body, err := get(ctx, metricsURL)
		return err == nil && strings.Contains(string(body), substr)
	})
}

// FreeAddr returns a loopback address whose port was free when checked.
func FreeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}

func endpoint(ctx context.Context, c tc.Container, port nat.Port, scheme string) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s://%s:%s", scheme, host, mapped.Port()), nil
}

// StartMosquitto runs an anonymous Mosquitto broker and returns its URL
// once a client can connect. cleanup terminates the container.
func StartMosquitto(ctx context.Context) (broker string, cleanup func(), err error) {
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			Reader:            strings.NewReader(mosquittoConf),
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { _ = cont.Terminate(context.Background()) }

	broker, err = endpoint(ctx, cont, "1883/tcp", "tcp")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := waitForMQTTReady(waitCtx, broker); err != nil {
		cleanup()
		return "", nil, err
	}
	return broker, cleanup, nil
}

// StartInflux runs InfluxDB 2.7 initialised with s and returns its base URL.
func StartInflux(ctx context.Context, s InfluxSetup) (url string, cleanup func(), err error) {
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "telematics",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "telematics-password",
			"DOCKER_INFLUXDB_INIT_ORG":         s.Org,
			"DOCKER_INFLUXDB_INIT_BUCKET":      s.Bucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": s.Token,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { _ = cont.Terminate(context.Background()) }
	url, err = endpoint(ctx, cont, "8086/tcp", "http")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return url, cleanup, nil
}

func waitForMQTTReady(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).
		SetClientID("ready-" + strconv.FormatInt(time.Now().UnixNano(), 36)).
		SetConnectTimeout(time.Second)
	return poll(ctx, "mqtt broker not ready", func() bool {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() != nil {
			return false
		}
		cli.Disconnect(100)
		return true
	})
}
