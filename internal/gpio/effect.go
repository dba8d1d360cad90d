package gpio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/golden-hour/internal/dispatch"
	xglog "github.com/sweeney/golden-hour/internal/log"
	"github.com/sweeney/golden-hour/internal/state"
)

// Opener acquires the output line for one pulse.
type Opener func() (Pulser, error)

// Effect pulses a line once per fired event. The line is requested for the
// duration of the pulse only; concurrent events pulse one after another.
type Effect struct {
	Chip  string
	Line  int
	Pulse time.Duration

	open   Opener
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewEffect creates an Effect on the real chip.
func NewEffect(chip string, line int, pulse time.Duration) *Effect {
	if chip == "" {
		chip = DefaultChip
	}
	return NewEffectWithOpener(chip, line, pulse, func() (Pulser, error) {
		return NewRealPulser(chip, line)
	})
}

// NewEffectWithOpener creates an Effect using open to acquire the line.
func NewEffectWithOpener(chip string, line int, pulse time.Duration, open Opener) *Effect {
	if pulse <= 0 {
		pulse = DefaultPulse
	}
	return &Effect{
		Chip:   chip,
		Line:   line,
		Pulse:  pulse,
		open:   open,
		logger: xglog.WithComponent("gpio"),
	}
}

// Source implements dispatch.Effect.
func (e *Effect) Source() string {
	return state.SourceGPIO
}

// Run pulses the line.
func (e *Effect) Run(ctx context.Context, t dispatch.Trigger) state.Outcome {
	line := e.Line
	out := state.Outcome{Chip: e.Chip, Line: &line, PulseMs: e.Pulse.Milliseconds()}

	if err := e.pulse(ctx); err != nil {
		out.ResultCode = state.ResultFailed
		out.Error = err.Error()
		e.logger.Warn().Err(err).
			Str("event", string(t.Event)).
			Str("chip", e.Chip).
			Int("line", e.Line).
			Msg("gpio pulse failed")
		return out
	}

	e.logger.Info().
		Str("event", string(t.Event)).
		Str("chip", e.Chip).
		Int("line", e.Line).
		Dur("pulse", e.Pulse).
		Msg("gpio pulsed")
	return out
}

func (e *Effect) pulse(ctx context.Context) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("release line: %w", cerr)
		}
	}()
	return p.Pulse(ctx, e.Pulse)
}
