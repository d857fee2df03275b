package scenarios

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/telematics/core/alert"
	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/core/notify"
	"github.com/kilianp07/telematics/core/processor"
	"github.com/kilianp07/telematics/core/trip"
	"github.com/kilianp07/telematics/core/vehiclestate"
	"github.com/kilianp07/telematics/infra/logger"
	"github.com/kilianp07/telematics/infra/metrics"
	"github.com/kilianp07/telematics/internal/eventbus"
)

// RunScenario feeds the steps of sc through an in-process pipeline and checks
// every expectation.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	engine, err := alert.NewEngine(alert.Config{})
	require.NoError(t, err)

	bus := eventbus.NewWithBuffer(1024)
	ctx, cancel := context.WithCancel(context.Background())
	collected := metrics.StartEventCollector(ctx, bus, sink, logger.NopLogger{})
	defer func() {
		cancel()
		<-collected
	}()

	dispatcher := notify.NewDispatcher(notify.NopNotifier{}, notify.Config{}, logger.NopLogger{}, bus)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	store := vehiclestate.NewMemoryStore(4)
	tracker := trip.NewTracker()
	proc := processor.New(store, engine, tracker, dispatcher, logger.NopLogger{}, processor.WithBus(bus))

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	accepted := 0
	for i, step := range sc.Steps {
		p, err := step.DecodedPayload(base)
		require.NoError(t, err, "step %d", i)
		out := proc.Process(ctx, p)
		if out.Accepted {
			accepted++
		}
		checkStep(t, i, step.Expect, out)
	}

	for _, te := range sc.Expected.Trips {
		sum, err := tracker.TripsFor(model.VehicleID(te.Vehicle))
		require.NoError(t, err, te.Vehicle)
		require.Len(t, sum.History, te.Completed, "%s completed trips", te.Vehicle)
		assert.Equal(t, te.Active, sum.Active != nil, "%s active trip", te.Vehicle)
		if te.Completed == 0 {
			continue
		}
		last := sum.History[len(sum.History)-1]
		if te.DurationMs != nil {
			assert.Equal(t, *te.DurationMs, last.DurationMs, "%s duration", te.Vehicle)
		}
		if te.DistanceKm != nil {
			assert.InDelta(t, *te.DistanceKm, last.DistanceKm, 1e-9, "%s distance", te.Vehicle)
		}
	}
	for _, id := range sc.Expected.NotFound {
		_, err := tracker.TripsFor(model.VehicleID(id))
		assert.ErrorIs(t, err, trip.ErrNotFound, id)
	}

	require.Eventually(t, func() bool {
		n, err := acceptedEvents(reg)
		return err == nil && n == accepted
	}, time.Second, 5*time.Millisecond, "accepted events recorded")
}

func acceptedEvents(reg prometheus.Gatherer) (int, error) {
	mfs, err := reg.Gather()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, mf := range mfs {
		if mf.GetName() != "telematics_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "accepted" && l.GetValue() == "true" {
					n += int(m.GetCounter().GetValue())
				}
			}
		}
	}
	return n, nil
}

func checkStep(t *testing.T, i int, exp Expect, out processor.Outcome) {
	t.Helper()
	if exp.Accepted != nil {
		require.Equal(t, *exp.Accepted, out.Accepted, "step %d accepted (reason %q)", i, out.Reason)
	}
	if exp.Alerts != nil {
		kinds := make([]string, 0, len(out.Alerts))
		for _, a := range out.Alerts {
			kinds = append(kinds, string(a.Kind))
		}
		assert.ElementsMatch(t, exp.Alerts, kinds, "step %d alerts", i)
	}
	if exp.Warnings != nil {
		assert.Len(t, out.Warnings, *exp.Warnings, "step %d warnings", i)
	}
}

// Post submits the steps of sc to server in order and writes one line per
// response to w. Steps whose status does not match the expectation are
// reported in the returned error.
func Post(ctx context.Context, client *http.Client, server, apiKey string, sc *Scenario, base time.Time, w io.Writer) error {
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimSuffix(server, "/") + "/events"
	var errs []error
	for i, step := range sc.Steps {
		body, err := step.Body(base)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			req.Header.Set("X-API-Key", apiKey)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		respBody, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		fmt.Fprintf(w, "%s step %d: %d %s\n", sc.Name, i, resp.StatusCode, bytes.TrimSpace(respBody))

		if step.Expect.Accepted != nil {
			want := http.StatusBadRequest
			if *step.Expect.Accepted {
				want = http.StatusCreated
			}
			if resp.StatusCode != want {
				errs = append(errs, fmt.Errorf("step %d: expected status %d, got %d", i, want, resp.StatusCode))
			}
		}
	}
	return errors.Join(errs...)
}
