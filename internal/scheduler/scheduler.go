package scheduler

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/openarcade/roomhost/internal/dependencies/clock"
	"github.com/openarcade/roomhost/internal/model"
)

// DefaultTickInterval is the target cadence: 60 Hz
const DefaultTickInterval = time.Second / 60

// TickFunc runs one tick for a room. now is the tick's wall-clock instant;
// implementations derive the elapsed delta from it.
type TickFunc func(now time.Time)

// Scheduler drives each room's simulation on its own fixed-cadence timer.
// Rooms are isolated: a panicking tick is recovered and logged without
// affecting any other room's timer.
type Scheduler struct {
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[model.RoomID]*entry
}

type entry struct {
	ticker clock.Ticker
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

// New creates a scheduler ticking rooms at the given interval
func New(clk clock.Clock, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{
		clock:    clk,
		interval: interval,
		logger:   logger.With(slog.String("component", "scheduler")),
		entries:  make(map[model.RoomID]*entry),
	}
}

// Start begins ticking a room. Starting an already-scheduled room is a
// no-op.
func (s *Scheduler) Start(roomID model.RoomID, fn TickFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[roomID]; exists {
		return
	}
	e := &entry{
		ticker: s.clock.NewTicker(s.interval),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	s.entries[roomID] = e
	go s.run(roomID, e, fn)
	s.logger.Info("room scheduled", slog.String("room", string(roomID)))
}

func (s *Scheduler) run(roomID model.RoomID, e *entry, fn TickFunc) {
	defer close(e.exited)
	for {
		select {
		case <-e.done:
			return
		case now := <-e.ticker.C():
			s.safeTick(roomID, fn, now)
		}
	}
}

// safeTick recovers a panicking tick so one malformed game type can never
// stall the whole service
func (s *Scheduler) safeTick(roomID model.RoomID, fn TickFunc, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tick panic recovered",
				slog.String("room", string(roomID)),
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	fn(now)
}

// Stop cancels a room's timer and waits for its loop to exit, so no tick
// for that room can fire after Stop returns. Safe to call on an
// already-stopped or never-started room.
func (s *Scheduler) Stop(roomID model.RoomID) {
	s.mu.Lock()
	e, ok := s.entries[roomID]
	if ok {
		delete(s.entries, roomID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	e.once.Do(func() {
		close(e.done)
		e.ticker.Stop()
	})
	<-e.exited
	s.logger.Info("room unscheduled", slog.String("room", string(roomID)))
}

// StopAll cancels every room's timer; used at shutdown
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	ids := make([]model.RoomID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Stop(id)
	}
}

// Scheduled reports whether a room currently has a timer
func (s *Scheduler) Scheduled(roomID model.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[roomID]
	return ok
}
