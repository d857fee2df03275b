package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kilianp07/telematics/infra/logger"
)

func main() {
	cfg := parseFlags()
	log := logger.New("simulator")
	if err := cfg.Validate(); err != nil {
		log.Errorf("invalid config: %v", err)
		os.Exit(2)
	}
	level := "info"
	if cfg.Verbose {
		level = "debug"
	}
	logger.Setup(logger.Config{Level: level, Format: logger.FormatConsole})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(cfg.Seed))
	profiles, err := loadProfiles(cfg, rng)
	if err != nil {
		log.Errorf("fleet: %v", err)
		os.Exit(1)
	}

	pub, closeFn, err := newPublisher(cfg)
	if err != nil {
		log.Errorf("publisher: %v", err)
		os.Exit(1)
	}
	defer closeFn()

	log.Infof("simulating %d vehicles over %s", len(profiles), cfg.Mode)
	runVehicles(ctx, profiles, cfg, pub, log)
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Mode, "mode", ModeMQTT, "transport: mqtt or http")
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&cfg.Topic, "topic", "telemetry/{vehicleId}/events", "MQTT topic template")
	flag.StringVar(&cfg.Server, "server", "http://localhost:3000", "API base URL in http mode")
	flag.StringVar(&cfg.APIKey, "api-key", "", "X-API-Key header in http mode")
	flag.IntVar(&cfg.FleetSize, "fleet-size", 5, "number of generated vehicles")
	flag.StringVar(&cfg.FleetFile, "fleet-file", "", "YAML fleet file overriding fleet-size")
	flag.DurationVar(&cfg.Interval, "interval", 5*time.Second, "delay between data samples")
	flag.IntVar(&cfg.Samples, "samples", 10, "data samples per trip")
	flag.DurationVar(&cfg.Pause, "pause", 30*time.Second, "parking time between trips")
	flag.IntVar(&cfg.Trips, "trips", 0, "trips per vehicle, 0 runs until interrupted")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "random seed")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable debug logging")
	flag.Parse()
	return cfg
}

func loadProfiles(cfg Config, rng *rand.Rand) ([]Profile, error) {
	if cfg.FleetFile != "" {
		return LoadFleetFile(cfg.FleetFile)
	}
	return GenerateFleet(cfg.FleetSize, rng), nil
}

func newPublisher(cfg Config) (Publisher, func(), error) {
	if cfg.Mode == ModeHTTP {
		return NewHTTPPublisher(&http.Client{Timeout: 10 * time.Second}, cfg.Server, cfg.APIKey), func() {}, nil
	}
	p, err := NewMQTTPublisher(cfg.Broker, fmt.Sprintf("telematics-sim-%d", os.Getpid()), cfg.Topic)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}

func runVehicles(ctx context.Context, profiles []Profile, cfg Config, pub Publisher, log logger.Logger) {
	var wg sync.WaitGroup
	for i, p := range profiles {
		v := NewSimulatedVehicle(p, pub, rand.New(rand.NewSource(cfg.Seed+int64(i)+1)), log)
		v.Samples = cfg.Samples
		v.Interval = cfg.Interval
		v.Pause = cfg.Pause
		v.Trips = cfg.Trips
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := v.Run(ctx); err != nil {
				log.Errorf("%s: %v", p.ID, err)
			}
		}()
	}
	wg.Wait()
}
