// Package logic contains the pure solar event state machine.
// This package has NO external dependencies (no exec, HTTP, MQTT, GPIO, OS, or clock).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/golden-hour/internal/suntimes"
)

// EventType names a solar event that can fire once per daylight span.
type EventType string

const (
	EventAfterSolarNoon      EventType = "afterSolarNoon"
	EventGoldenHourAfternoon EventType = "goldenHourAfternoon"
	EventGoldenHourMorning   EventType = "goldenHourMorning"
)

// Events lists every event in evaluation order.
var Events = []EventType{
	EventAfterSolarNoon,
	EventGoldenHourAfternoon,
	EventGoldenHourMorning,
}

// PhotoState holds the per-event taken flags.
type PhotoState struct {
	AfterSolarNoonPhotoTaken      bool `json:"afterSolarNoonPhotoTaken"`
	GoldenHourMorningPhotoTaken   bool `json:"goldenHourMorningPhotoTaken"`
	GoldenHourAfternoonPhotoTaken bool `json:"goldenHourAfternoonPhotoTaken"`
}

// Taken reports the flag for event.
func (p PhotoState) Taken(event EventType) bool {
	switch event {
	case EventAfterSolarNoon:
		return p.AfterSolarNoonPhotoTaken
	case EventGoldenHourAfternoon:
		return p.GoldenHourAfternoonPhotoTaken
	case EventGoldenHourMorning:
		return p.GoldenHourMorningPhotoTaken
	}
	return false
}

// With returns a copy of p with event's flag set to taken.
func (p PhotoState) With(event EventType, taken bool) PhotoState {
	p.set(event, taken)
	return p
}

func (p *PhotoState) set(event EventType, taken bool) {
	switch event {
	case EventAfterSolarNoon:
		p.AfterSolarNoonPhotoTaken = taken
	case EventGoldenHourAfternoon:
		p.GoldenHourAfternoonPhotoTaken = taken
	case EventGoldenHourMorning:
		p.GoldenHourMorningPhotoTaken = taken
	}
}

// Classification is the position of an instant relative to a day's sun times.
type Classification struct {
	IsNighttime         bool
	AfterSolarNoon      bool
	GoldenHourAfternoon bool
	GoldenHourMorning   bool
	IsGoldenHour        bool
}

// Holds reports whether event's condition is true.
func (c Classification) Holds(event EventType) bool {
	switch event {
	case EventAfterSolarNoon:
		return c.AfterSolarNoon
	case EventGoldenHourAfternoon:
		return c.GoldenHourAfternoon
	case EventGoldenHourMorning:
		return c.GoldenHourMorning
	}
	return false
}

// Result is the outcome of one evaluation pass.
type Result struct {
	Classification
	// Photos is the updated flag set, after the nighttime reset.
	Photos PhotoState
	// Fired lists newly fired events in evaluation order.
	Fired []EventType
	// LastEvent is the last event fired in this pass, empty if none fired.
	LastEvent EventType
}

// Input is one evaluation request.
type Input struct {
	Times  suntimes.SunTimes
	Now    time.Time
	Photos PhotoState
}
