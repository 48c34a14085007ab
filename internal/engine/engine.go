package engine

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/myelinproj/myelin/internal/store"
)

// ErrInvalidState is returned when an approval-gate call targets an event
// that is no longer pending.
var ErrInvalidState = errors.New("event is not pending")

// ErrCycleInFlight is returned when a cycle is triggered while one is
// already running for this engine. Callers skip, they do not queue.
var ErrCycleInFlight = errors.New("evolution cycle already in flight")

// DefaultCycleInterval is how often the evolution cycle runs per station.
const DefaultCycleInterval = 15 * time.Minute

// Engine owns fitness recomputation, maturation, and structural evolution
// of one station's capability graph. It is the only writer of derived
// fields (fitness_score, myelination) and of evolution events.
type Engine struct {
	DB       *store.DB
	Interval time.Duration
	Metrics  *Metrics

	cycleRunning atomic.Bool
	stopCh       chan struct{}
}

// New creates an Engine with the default cycle interval.
func New(db *store.DB) *Engine {
	return &Engine{
		DB:       db,
		Interval: DefaultCycleInterval,
		stopCh:   make(chan struct{}),
	}
}

// StartCycleTimer runs one evolution cycle immediately and then on the
// configured interval until Stop is called. An in-flight cycle is never
// interrupted mid-write; shutdown waits for the current tick's work by
// letting the running call return on its own.
func (e *Engine) StartCycleTimer(stationID string) {
	run := func() {
		summary, err := e.RunCycle(context.Background(), stationID)
		switch {
		case errors.Is(err, ErrCycleInFlight):
			log.Printf("evolution: cycle for %s skipped, previous still running", stationID)
		case err != nil:
			log.Printf("evolution: cycle for %s failed: %v", stationID, err)
		default:
			log.Printf("evolution: %s phase=%s myelinated=%d proposed=%d",
				stationID, summary.Phase, summary.EdgesUpdated, summary.PendingEventsCreated)
		}
	}

	run()

	go func() {
		ticker := time.NewTicker(e.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				run()
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	close(e.stopCh)
}
