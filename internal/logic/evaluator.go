package logic

import "time"

// Classify positions now against the day's sun times. Each condition depends
// on the ones computed before it: afternoon golden hour is only reachable once
// afterSolarNoon is already true in the same pass.
func Classify(in Input) Classification {
	st, now := in.Times, in.Now
	var c Classification

	c.IsNighttime = after(st.Sunrise, now) || before(st.Sunset, now)
	c.AfterSolarNoon = before(st.SolarNoon, now) && !c.IsNighttime
	c.GoldenHourAfternoon = before(st.GoldenHour, now) && c.AfterSolarNoon && !c.IsNighttime
	// No dependency on solar noon: when golden hour end falls after noon this
	// can overlap with the afternoon conditions.
	c.GoldenHourMorning = after(st.GoldenHourEnd, now) && !c.IsNighttime
	c.IsGoldenHour = c.GoldenHourMorning || c.GoldenHourAfternoon
	return c
}

// before and after report false for a zero boundary, which marks an elevation
// the sun never crosses that day.
func before(boundary, now time.Time) bool {
	return !boundary.IsZero() && boundary.Before(now)
}

func after(boundary, now time.Time) bool {
	return !boundary.IsZero() && boundary.After(now)
}

// Evaluate classifies the input and applies the firing rule for every event
// in order, then the nighttime reset. An event fires when its condition holds
// and its taken flag is false; firing sets the flag.
func Evaluate(in Input) Result {
	r := Result{
		Classification: Classify(in),
		Photos:         in.Photos,
	}

	for _, event := range Events {
		if !r.Holds(event) || r.Photos.Taken(event) {
			continue
		}
		r.Photos.set(event, true)
		r.LastEvent = event
		r.Fired = append(r.Fired, event)
	}

	if r.IsNighttime {
		r.Photos = PhotoState{}
	}
	return r
}

// Elapsed reports how far now is past the event's opening boundary, for
// logging. It returns zero when the event has no such boundary or now is
// before it.
func Elapsed(in Input, event EventType) time.Duration {
	var start time.Time
	switch event {
	case EventAfterSolarNoon:
		start = in.Times.SolarNoon
	case EventGoldenHourAfternoon:
		start = in.Times.GoldenHour
	case EventGoldenHourMorning:
		start = in.Times.Sunrise
	}
	if start.IsZero() || in.Now.Before(start) {
		return 0
	}
	return in.Now.Sub(start)
}
