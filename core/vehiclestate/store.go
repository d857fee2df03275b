package vehiclestate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/telematics/core/model"
	"github.com/kilianp07/telematics/internal/keylock"
)

// Store keeps the append-only event log of every vehicle.
type Store interface {
	// Append records ev, creating the vehicle record on demand.
	Append(ev model.Event) model.Event
	// Recent returns up to n most recent events, oldest first. Unknown
	// vehicles yield an empty slice.
	Recent(id model.VehicleID, n int) []model.Event
	Exists(id model.VehicleID) bool
	Count(id model.VehicleID) int
	Vehicles() int
	// SweepOlderThan drops events older than cutoff and returns how many
	// were removed. Records left empty are deleted.
	SweepOlderThan(cutoff time.Time) int
}

type record struct {
	events []model.Event
}

type shard struct {
	mu      sync.RWMutex
	records map[model.VehicleID]*record
}

// MemoryStore is an in-memory Store sharded by vehicle id.
type MemoryStore struct {
	shards []*shard
	now    func() time.Time
}

// Option customises a MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the clock used for receipt instants.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore returns an empty store with the given number of shards.
func NewMemoryStore(shards int, opts ...Option) *MemoryStore {
	if shards <= 0 {
		shards = keylock.DefaultStripes
	}
	s := &MemoryStore{shards: make([]*shard, shards), now: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{records: map[model.VehicleID]*record{}}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *MemoryStore) shardFor(id model.VehicleID) *shard {
	return s.shards[keylock.Index(string(id), len(s.shards))]
}

func (s *MemoryStore) Append(ev model.Event) model.Event {
	ev.ID = uuid.NewString()
	ev.ReceivedAt = s.now().UTC()
	sh := s.shardFor(ev.VehicleID)
	sh.mu.Lock()
	rec, ok := sh.records[ev.VehicleID]
	if !ok {
		rec = &record{}
		sh.records[ev.VehicleID] = rec
	}
	rec.events = append(rec.events, ev)
	sh.mu.Unlock()
	return ev
}

func (s *MemoryStore) Recent(id model.VehicleID, n int) []model.Event {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	rec, ok := sh.records[id]
	if !ok || n <= 0 {
		return []model.Event{}
	}
	start := len(rec.events) - n
	if start < 0 {
		start = 0
	}
	out := make([]model.Event, len(rec.events)-start)
	copy(out, rec.events[start:])
	return out
}

func (s *MemoryStore) Exists(id model.VehicleID) bool {
	sh := s.shardFor(id)
	sh.mu.RLock()
	_, ok := sh.records[id]
	sh.mu.RUnlock()
	return ok
}

func (s *MemoryStore) Count(id model.VehicleID) int {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if rec, ok := sh.records[id]; ok {
		return len(rec.events)
	}
	return 0
}

func (s *MemoryStore) Vehicles() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.records)
		sh.mu.RUnlock()
	}
	return total
}

func (s *MemoryStore) SweepOlderThan(cutoff time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, rec := range sh.records {
			kept := rec.events[:0]
			for _, ev := range rec.events {
				if ev.RetentionTime().Before(cutoff) {
					removed++
					continue
				}
				kept = append(kept, ev)
			}
			clear(rec.events[len(kept):])
			rec.events = kept
			if len(rec.events) == 0 {
				delete(sh.records, id)
			}
		}
		sh.mu.Unlock()
	}
	return removed
}
