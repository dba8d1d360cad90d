// Package engine runs one evaluation: load state, classify the instant, fire
// side effects for newly fired events, and persist once they complete or the
// fallback timer expires.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/golden-hour/internal/config"
	"github.com/sweeney/golden-hour/internal/dispatch"
	xglog "github.com/sweeney/golden-hour/internal/log"
	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/metrics"
	"github.com/sweeney/golden-hour/internal/state"
	"github.com/sweeney/golden-hour/internal/suntimes"
)

// Options wires an Engine. Zero fields take production defaults.
type Options struct {
	Sun     suntimes.Provider
	Effects []dispatch.Effect
	Metrics *metrics.Run
	RunID   string

	Load  func(path string) (*state.RunState, error)
	Save  func(path string, st *state.RunState) error
	After func(d time.Duration) <-chan time.Time
	Clock func() time.Time
}

// Engine evaluates one run. It is not reusable.
type Engine struct {
	cfg  config.Config
	opts Options
}

// Report describes a finished run.
type Report struct {
	State    *state.RunState
	Previous *state.RunState
	Fired    []logic.EventType
	Started  int
	TimedOut bool
	Waited   time.Duration
	// SaveErr is the persist failure, if any. It is logged, not fatal.
	SaveErr error
}

// New creates an Engine for cfg.
func New(cfg config.Config, opts Options) *Engine {
	if opts.Sun == nil {
		opts.Sun = suntimes.Default
	}
	if opts.Load == nil {
		opts.Load = state.Load
	}
	if opts.Save == nil {
		opts.Save = state.Save
	}
	if opts.After == nil {
		opts.After = time.After
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{cfg: cfg, opts: opts}
}

// payload is the document sent to side effects that carry a body.
type payload struct {
	CurrentState  *state.RunState `json:"currentState"`
	PreviousState *state.RunState `json:"previousState"`
}

// Run performs the evaluation. The only error it returns is a failure to
// compute sun times; everything else is logged or recorded in the state.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	ctx = xglog.ContextWithRunID(ctx, e.opts.RunID)
	logger := xglog.FromContext(ctx, "engine")

	st, err := e.opts.Load(e.cfg.StatePath)
	switch {
	case errors.Is(err, state.ErrNoState):
		logger.Info().Str("path", e.cfg.StatePath).Msg("state file doesn't exist, will create on save")
	case err != nil:
		logger.Warn().Err(err).Str("path", e.cfg.StatePath).Msg("could not load state, starting fresh")
	}

	tomorrowDate := suntimes.Tomorrow(e.cfg.CheckDate)
	today, err := e.opts.Sun.Compute(e.cfg.CheckDate, e.cfg.Lat, e.cfg.Lng)
	if err != nil {
		return nil, fmt.Errorf("compute sun times: %w", err)
	}
	tomorrow, err := e.opts.Sun.Compute(tomorrowDate, e.cfg.Lat, e.cfg.Lng)
	if err != nil {
		return nil, fmt.Errorf("compute sun times for tomorrow: %w", err)
	}

	previous := st.Clone()
	lat, lng := e.cfg.Lat, e.cfg.Lng
	st.DateCalculations = today
	st.TomorrowCalculations = tomorrow
	st.Lat, st.Lng = &lat, &lng
	st.TimeRan = e.opts.Clock()
	st.InputNowTime = e.cfg.Now
	st.InputCheckTime = e.cfg.CheckDate
	st.InputTomorrowDate = tomorrowDate
	st.RunID = e.opts.RunID

	in := logic.Input{Times: today, Now: e.cfg.Now, Photos: st.PhotoStates}
	res := logic.Evaluate(in)
	st.ApplyClassification(res.Classification)
	if e.opts.Metrics != nil {
		e.opts.Metrics.ObserveClassification(e.cfg.Now, res.Classification)
	}
	logger.Info().
		Time("now", e.cfg.Now).
		Bool("nighttime", res.IsNighttime).
		Bool("after_solar_noon", res.AfterSolarNoon).
		Bool("golden_hour", res.IsGoldenHour).
		Msg("classified")

	d := dispatch.New(e.opts.Effects...).WithClock(e.opts.Clock)
	for _, event := range res.Fired {
		st.PhotoStates = st.PhotoStates.With(event, true)
		st.LastEvent = string(event)
		logger.Info().
			Str("event", string(event)).
			Dur("since_start", logic.Elapsed(in, event)).
			Msg("event triggered")
		if e.opts.Metrics != nil {
			e.opts.Metrics.ObserveFired(event)
		}
		e.fire(ctx, d, event, st, previous, logger)
	}
	// Flags after the nighttime reset.
	st.PhotoStates = res.Photos

	report := &Report{
		State:    st,
		Previous: previous,
		Fired:    res.Fired,
		Started:  d.Started(),
	}
	e.await(ctx, d, report, logger)
	return report, nil
}

// fire starts every configured side effect for event. The payload is
// rendered here, on the control goroutine, so effects never read st.
func (e *Engine) fire(ctx context.Context, d *dispatch.Dispatcher, event logic.EventType, st, previous *state.RunState, logger zerolog.Logger) {
	if len(d.Effects()) == 0 {
		return
	}
	body, err := json.Marshal(payload{CurrentState: st, PreviousState: previous})
	if err != nil {
		logger.Error().Err(err).Str("event", string(event)).Msg("encode side effect payload")
		body = []byte("{}")
	}
	d.Fire(ctx, dispatch.Trigger{
		Event:   event,
		RunID:   e.opts.RunID,
		At:      e.cfg.Now,
		Payload: body,
	})
}

// await joins the side effects, raced against the fallback timer, and then
// persists. With nothing started it persists immediately.
func (e *Engine) await(ctx context.Context, d *dispatch.Dispatcher, report *Report, logger zerolog.Logger) {
	var once sync.Once
	start := e.opts.Clock()
	finish := func(timedOut bool) {
		once.Do(func() {
			report.TimedOut = timedOut
			report.Waited = e.opts.Clock().Sub(start)
			e.persist(d, report, logger)
		})
	}

	if d.Started() == 0 {
		finish(false)
		return
	}

	select {
	case <-d.Done():
		finish(false)
	case <-e.opts.After(e.cfg.Timeout):
		logger.Warn().
			Dur("timeout", e.cfg.Timeout).
			Int("started", d.Started()).
			Msg("side effects still running, persisting anyway")
		finish(true)
	case <-ctx.Done():
		logger.Warn().Err(ctx.Err()).Msg("run cancelled, persisting")
		finish(true)
	}
}

func (e *Engine) persist(d *dispatch.Dispatcher, report *Report, logger zerolog.Logger) {
	st := report.State
	for _, o := range d.Seal() {
		st.Record(o)
		if e.opts.Metrics != nil {
			e.opts.Metrics.ObserveOutcome(o)
		}
	}

	report.SaveErr = e.opts.Save(e.cfg.StatePath, st)
	if report.SaveErr != nil {
		logger.Error().Err(report.SaveErr).Str("path", e.cfg.StatePath).Msg("couldn't write state to disk")
	} else {
		logger.Info().Str("path", e.cfg.StatePath).Msg("state saved to disk")
	}

	if e.opts.Metrics == nil {
		return
	}
	e.opts.Metrics.ObservePersist(report.Waited, report.TimedOut, report.SaveErr)
	if e.cfg.MetricsTextfile == "" {
		return
	}
	if err := e.opts.Metrics.WriteTextfile(e.cfg.MetricsTextfile); err != nil {
		logger.Warn().Err(err).Str("path", e.cfg.MetricsTextfile).Msg("couldn't write metrics textfile")
	}
}
