// Package app wires the telemetry pipeline, its HTTP surface and background
// workers into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/telematics/api"
	"github.com/kilianp07/telematics/config"
	"github.com/kilianp07/telematics/core/alert"
	coremetrics "github.com/kilianp07/telematics/core/metrics"
	"github.com/kilianp07/telematics/core/notify"
	"github.com/kilianp07/telematics/core/processor"
	"github.com/kilianp07/telematics/core/retention"
	"github.com/kilianp07/telematics/core/trip"
	"github.com/kilianp07/telematics/core/vehiclestate"
	"github.com/kilianp07/telematics/infra/logger"
	"github.com/kilianp07/telematics/infra/metrics"
	"github.com/kilianp07/telematics/infra/mqtt"
	_ "github.com/kilianp07/telematics/infra/notify" // notifier factories
	"github.com/kilianp07/telematics/internal/eventbus"
)

// Service owns every long-lived component of the process.
type Service struct {
	cfg        *config.Config
	Store      *vehiclestate.MemoryStore
	Trips      *trip.Tracker
	Processor  *processor.Processor
	Dispatcher *notify.Dispatcher
	Sweeper    *retention.Sweeper
	Handler    http.Handler

	bus      *eventbus.Bus
	sink     coremetrics.MetricsSink
	notifier notify.Notifier
	ingest   *mqtt.Client
	log      logger.Logger
	started  time.Time
}

// New creates a Service from the configuration. Nothing is started until Run.
func New(cfg *config.Config) (*Service, error) {
	logger.Setup(cfg.Logging)
	logg := logger.New("service")

	engine, err := alert.NewEngine(cfg.Alerts)
	if err != nil {
		return nil, fmt.Errorf("alert engine: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	notifier, err := notify.NewNotifier(cfg.Notify.Sinks)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}

	bus := eventbus.NewWithBuffer(eventbus.DefaultBuffer * 4)
	store := vehiclestate.NewMemoryStore(cfg.Store.Shards)
	tracker := trip.NewTracker()
	dispatcher := notify.NewDispatcher(notifier, cfg.Notify, logger.New("notify"), bus)
	proc := processor.New(store, engine, tracker, dispatcher, logger.New("processor"),
		processor.WithBus(bus), processor.WithLocks(cfg.Store.Shards*2))
	sweeper := retention.NewSweeper(store, cfg.Retention, bus, logger.New("retention"))

	svc := &Service{
		cfg:        cfg,
		Store:      store,
		Trips:      tracker,
		Processor:  proc,
		Dispatcher: dispatcher,
		Sweeper:    sweeper,
		bus:        bus,
		sink:       sink,
		notifier:   notifier,
		log:        logg,
		started:    time.Now(),
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Path != "" {
		metricsHandler = metrics.Handler(nil)
	}
	svc.Handler = api.NewRouter(api.Deps{
		Processor:   proc,
		Store:       store,
		Trips:       tracker,
		Sweeper:     sweeper,
		Metrics:     metricsHandler,
		MetricsPath: cfg.Metrics.Path,
		Logger:      logger.New("http"),
		Started:     svc.started,
	}, api.Options{
		APIKey:         cfg.HTTP.APIKey,
		RecentLimit:    cfg.HTTP.RecentLimit,
		MaxRecentLimit: cfg.HTTP.MaxRecentLimit,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	})

	if cfg.Ingest.Enabled {
		cli, err := mqtt.Dial(cfg.MQTT, "ingest")
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("mqtt ingest: %w", err)
		}
		svc.ingest = cli
	}
	return svc, nil
}

// Run starts every worker and blocks until ctx is canceled or one of them
// fails.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	collected := metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics"))
	s.Dispatcher.Start(context.WithoutCancel(ctx))

	g.Go(func() error { return s.serveHTTP(ctx) })
	g.Go(func() error { return s.Sweeper.Run(ctx) })
	if s.ingest != nil {
		sub := mqtt.NewSubscriber(s.ingest, s.cfg.Ingest, s.Processor)
		g.Go(func() error { return sub.Run(ctx) })
	}
	if s.cfg.Metrics.Addr != "" {
		g.Go(func() error { return metrics.StartPromServer(ctx, s.cfg.Metrics.Addr, nil) })
	}

	err := g.Wait()
	s.Dispatcher.Stop()
	<-collected
	return err
}

func (s *Service) serveHTTP(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("telemetry server listening on %s", s.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	timeout := time.Duration(s.cfg.HTTP.ShutdownTimeoutMS) * time.Millisecond
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Infof("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

// Close releases connections held by the service.
func (s *Service) Close() {
	if s.ingest != nil {
		s.ingest.Close()
	}
	if c, ok := s.notifier.(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.bus.Close()
}
