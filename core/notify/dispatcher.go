package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/telematics/core/events"
	"github.com/kilianp07/telematics/core/logger"
	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/internal/eventbus"
)

// Dispatcher delivers forwarded alerts through a bounded queue served by a
// pool of workers.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	workers  int
	log      logger.Logger
	bus      eventbus.EventBus

	mu      sync.RWMutex
	queue   chan model.Alert
	closed  bool
	wg      sync.WaitGroup
	started bool
}

// NewDispatcher returns a dispatcher for n. Call Start before dispatching.
// log must not be nil.
func NewDispatcher(n Notifier, cfg Config, log logger.Logger, bus eventbus.EventBus) *Dispatcher {
	cfg.SetDefaults()
	if n == nil {
		n = NopNotifier{}
	}
	if bus == nil {
		bus = eventbus.Nop{}
	}
	return &Dispatcher{
		notifier: n,
		timeout:  cfg.Timeout(),
		workers:  cfg.Workers,
		log:      log,
		bus:      bus,
		queue:    make(chan model.Alert, cfg.QueueSize),
	}
}

// Start launches the workers. They run until Stop is called; ctx bounds
// individual sends.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
}

// Stop closes the queue and waits for queued alerts to be delivered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

// Dispatch enqueues the alerts marked for forwarding. It never blocks: when
// the queue is full or the dispatcher is stopped the alert is dropped.
func (d *Dispatcher) Dispatch(alerts []model.Alert) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range alerts {
		if !a.Forward {
			continue
		}
		if d.closed {
			d.drop(a, "dispatcher stopped")
			continue
		}
		select {
		case d.queue <- a:
		default:
			d.drop(a, "queue full")
		}
	}
}

func (d *Dispatcher) drop(a model.Alert, why string) {
	d.log.Warnf("dropping %s alert for %s: %s", a.Kind, a.VehicleID, why)
	d.bus.Publish(events.DeliveryResult{VehicleID: a.VehicleID, Kind: a.Kind, Dropped: true})
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for a := range d.queue {
		start := time.Now()
		err := d.send(ctx, a)
		res := events.DeliveryResult{VehicleID: a.VehicleID, Kind: a.Kind, Delivered: err == nil, Err: err, Latency: time.Since(start)}
		if err != nil {
			d.log.Errorf("%v", err)
		}
		d.bus.Publish(res)
	}
}

func (d *Dispatcher) send(ctx context.Context, a model.Alert) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errc <- fmt.Errorf("notifier panic: %v", r)
			}
		}()
		errc <- deliver(sendCtx, d.notifier, a)
	}()
	var err error
	select {
	case err = <-errc:
	case <-sendCtx.Done():
		err = sendCtx.Err()
	}
	if err != nil {
		return &DeliveryError{VehicleID: a.VehicleID, Kind: a.Kind, Err: err}
	}
	return nil
}
