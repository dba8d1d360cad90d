// Package dispatch starts side effects for fired events and joins their
// completions behind a barrier.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	xglog "github.com/sweeney/golden-hour/internal/log"
	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/state"
)

// Trigger describes one fired event handed to every side effect.
type Trigger struct {
	Event logic.EventType
	RunID string
	// At is the instant the event was evaluated against.
	At time.Time
	// Payload is the pre-rendered {currentState, previousState} document.
	Payload []byte
}

// Effect is one kind of side effect. Run must not panic; failures are
// reported in the returned outcome.
type Effect interface {
	Source() string
	Run(ctx context.Context, t Trigger) state.Outcome
}

// Dispatcher runs effects asynchronously and collects their outcomes in
// completion order. Fire must not be called after Done.
type Dispatcher struct {
	effects []Effect
	now     func() time.Time
	logger  zerolog.Logger

	g       errgroup.Group
	started int

	mu       sync.Mutex
	outcomes []state.Outcome
	sealed   bool
	late     int

	doneOnce sync.Once
	done     chan struct{}
}

// New creates a dispatcher over the given effects.
func New(effects ...Effect) *Dispatcher {
	return &Dispatcher{
		effects: effects,
		now:     time.Now,
		logger:  xglog.WithComponent("dispatch"),
		done:    make(chan struct{}),
	}
}

// WithClock overrides the clock used to stamp outcomes.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Effects returns the configured effects.
func (d *Dispatcher) Effects() []Effect {
	return d.effects
}

// Fire starts every configured effect for t and returns how many were started.
func (d *Dispatcher) Fire(ctx context.Context, t Trigger) int {
	for _, eff := range d.effects {
		d.started++
		d.logger.Info().
			Str("event", string(t.Event)).
			Str("source", eff.Source()).
			Msg("starting side effect")
		d.g.Go(func() error {
			out := eff.Run(ctx, t)
			out.Source = eff.Source()
			out.Event = string(t.Event)
			if out.CompletedAt.IsZero() {
				out.CompletedAt = d.now()
			}
			d.complete(out)
			return nil
		})
	}
	return len(d.effects)
}

func (d *Dispatcher) complete(out state.Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sealed {
		d.late++
		d.logger.Debug().
			Str("source", out.Source).
			Str("event", out.Event).
			Msg("discarding side effect outcome after persist")
		return
	}
	d.outcomes = append(d.outcomes, out)
}

// Started returns the number of effects started so far.
func (d *Dispatcher) Started() int {
	return d.started
}

// Done returns a channel closed once every started effect has completed.
// With nothing started it is closed immediately.
func (d *Dispatcher) Done() <-chan struct{} {
	d.doneOnce.Do(func() {
		go func() {
			_ = d.g.Wait()
			close(d.done)
		}()
	})
	return d.done
}

// Seal stops accepting outcomes and returns those collected so far in
// completion order. Outcomes arriving later are discarded.
func (d *Dispatcher) Seal() []state.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sealed = true
	out := make([]state.Outcome, len(d.outcomes))
	copy(out, d.outcomes)
	return out
}

// Late returns how many outcomes were discarded after Seal.
func (d *Dispatcher) Late() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.late
}
