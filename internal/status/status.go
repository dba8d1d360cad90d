// Package status summarises a persisted run state and the sun times of a
// location for the command line.
package status

import (
	"time"

	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/state"
	"github.com/sweeney/golden-hour/internal/suntimes"
)

// Snapshot is a point-in-time view of a state file.
type Snapshot struct {
	Path  string
	State *state.RunState
	// Found is false when no state file existed and State holds defaults.
	Found bool
	Now   time.Time
}

// Age returns how long ago the state was written, or zero if unknown.
func (s Snapshot) Age() time.Duration {
	if s.State == nil || s.State.TimeRan.IsZero() {
		return 0
	}
	return s.Now.Sub(s.State.TimeRan)
}

// Times is the sun-time view printed by the times command.
type Times struct {
	Lat, Lng       float64
	Now            time.Time
	Today          suntimes.SunTimes
	Tomorrow       suntimes.SunTimes
	Classification logic.Classification
}

// Upcoming is the next instant at which an event's condition starts to hold.
type Upcoming struct {
	Event logic.EventType
	At    time.Time
}

// Next returns the earliest event start strictly after t.Now, looking at
// today's and then tomorrow's times. ok is false when neither day has one.
func (t Times) Next() (next Upcoming, ok bool) {
	for _, day := range []suntimes.SunTimes{t.Today, t.Tomorrow} {
		for _, c := range starts(day) {
			if c.At.IsZero() || !c.At.After(t.Now) {
				continue
			}
			if !ok || c.At.Before(next.At) {
				next, ok = c, true
			}
		}
		if ok {
			return next, true
		}
	}
	return Upcoming{}, false
}

// starts lists the instant each event's condition begins on one day. The
// morning window opens at sunrise, when nighttime ends.
func starts(st suntimes.SunTimes) []Upcoming {
	return []Upcoming{
		{Event: logic.EventGoldenHourMorning, At: st.Sunrise},
		{Event: logic.EventAfterSolarNoon, At: st.SolarNoon},
		{Event: logic.EventGoldenHourAfternoon, At: st.GoldenHour},
	}
}
