// Package state persists the RunState between invocations.
package state

import (
	"time"

	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/suntimes"
)

// Output keys. One outcome per side-effect kind survives in a RunState; a
// later completion of the same kind replaces an earlier one.
const (
	SourceCommand = "commandExec"
	SourceHTTP    = "httpResult"
	SourceMQTT    = "mqttPublish"
	SourceGPIO    = "gpioPulse"
)

// Result codes recorded on every outcome.
const (
	ResultOK     = 0
	ResultFailed = 1
)

// Outcome records one completed side effect. Source selects which of the
// kind-specific fields are meaningful.
type Outcome struct {
	Source      string    `json:"source"`
	Event       string    `json:"event,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
	ResultCode  int       `json:"resultCode"`
	Error       string    `json:"error,omitempty"`

	// commandExec
	Command  string `json:"command,omitempty"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exitCode,omitempty"`

	// httpResult
	HTTPURL    string `json:"httpUrl,omitempty"`
	HTTPMethod string `json:"httpMethod,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Result     string `json:"result,omitempty"`

	// mqttPublish
	Broker string `json:"broker,omitempty"`
	Topic  string `json:"topic,omitempty"`

	// gpioPulse
	Chip    string `json:"chip,omitempty"`
	Line    *int   `json:"line,omitempty"`
	PulseMs int64  `json:"pulseMs,omitempty"`
}

// Failed reports whether the side effect did not succeed.
func (o Outcome) Failed() bool {
	return o.ResultCode != ResultOK
}

// RunState is the persisted root. It is owned by a single goroutine for the
// lifetime of a run.
type RunState struct {
	PhotoStates logic.PhotoState   `json:"photoStates"`
	Outputs     map[string]Outcome `json:"outputs"`

	DateCalculations     suntimes.SunTimes `json:"dateCalculations,omitzero"`
	TomorrowCalculations suntimes.SunTimes `json:"tomorrowCalculations,omitzero"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	TimeRan           time.Time `json:"timeRan,omitzero"`
	InputNowTime      time.Time `json:"inputNowTime,omitzero"`
	InputCheckTime    time.Time `json:"inputCheckTime,omitzero"`
	InputTomorrowDate time.Time `json:"inputTomorrowDate,omitzero"`

	GoldenHourAfternoon bool `json:"goldenHourAfternoon"`
	GoldenHourMorning   bool `json:"goldenHourMorning"`
	IsGoldenHour        bool `json:"isGoldenHour"`
	IsNighttime         bool `json:"isNighttime"`
	AfterSolarNoon      bool `json:"afterSolarNoon"`

	LastEvent string `json:"lastEvent,omitempty"`
	RunID     string `json:"runId,omitempty"`
}

// New returns the empty state used when nothing could be loaded.
func New() *RunState {
	return &RunState{Outputs: map[string]Outcome{}}
}

// Clone returns a deep copy of s.
func (s *RunState) Clone() *RunState {
	c := *s
	c.Outputs = make(map[string]Outcome, len(s.Outputs))
	for k, v := range s.Outputs {
		if v.Line != nil {
			line := *v.Line
			v.Line = &line
		}
		c.Outputs[k] = v
	}
	if s.Lat != nil {
		lat := *s.Lat
		c.Lat = &lat
	}
	if s.Lng != nil {
		lng := *s.Lng
		c.Lng = &lng
	}
	return &c
}

// ApplyClassification copies a classification onto the state.
func (s *RunState) ApplyClassification(c logic.Classification) {
	s.IsNighttime = c.IsNighttime
	s.AfterSolarNoon = c.AfterSolarNoon
	s.GoldenHourAfternoon = c.GoldenHourAfternoon
	s.GoldenHourMorning = c.GoldenHourMorning
	s.IsGoldenHour = c.IsGoldenHour
}

// Record stores an outcome under its source key.
func (s *RunState) Record(o Outcome) {
	if s.Outputs == nil {
		s.Outputs = map[string]Outcome{}
	}
	s.Outputs[o.Source] = o
}
