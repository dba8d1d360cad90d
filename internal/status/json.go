package status

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/state"
	"github.com/sweeney/golden-hour/internal/suntimes"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Path           string             `json:"path"`
	Found          bool               `json:"found"`
	RunID          string             `json:"run_id,omitempty"`
	LastRun        string             `json:"last_run,omitempty"`
	AgeSeconds     int64              `json:"age_seconds"`
	LastEvent      string             `json:"last_event,omitempty"`
	Location       *LocationJSON      `json:"location,omitempty"`
	Classification ClassificationJSON `json:"classification"`
	Photos         PhotosJSON         `json:"photos"`
	Outputs        []OutputJSON       `json:"outputs"`
	Timestamp      string             `json:"timestamp"`
}

// LocationJSON reports the coordinates of the last run.
type LocationJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ClassificationJSON is the JSON representation of a classification.
type ClassificationJSON struct {
	Nighttime           bool `json:"nighttime"`
	AfterSolarNoon      bool `json:"after_solar_noon"`
	GoldenHour          bool `json:"golden_hour"`
	GoldenHourMorning   bool `json:"golden_hour_morning"`
	GoldenHourAfternoon bool `json:"golden_hour_afternoon"`
}

// PhotosJSON reports which events have fired since the last nighttime.
type PhotosJSON struct {
	AfterSolarNoon      bool `json:"after_solar_noon"`
	GoldenHourMorning   bool `json:"golden_hour_morning"`
	GoldenHourAfternoon bool `json:"golden_hour_afternoon"`
}

// OutputJSON summarises one recorded side effect.
type OutputJSON struct {
	Source      string `json:"source"`
	Event       string `json:"event,omitempty"`
	OK          bool   `json:"ok"`
	CompletedAt string `json:"completed_at,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// TimesJSON is the top-level JSON envelope for the times command.
type TimesJSON struct {
	Times TimesInner `json:"times"`
}

// TimesInner contains the sun times and classification of an instant.
type TimesInner struct {
	Location       LocationJSON       `json:"location"`
	Now            string             `json:"now"`
	Today          suntimes.SunTimes  `json:"today"`
	Tomorrow       suntimes.SunTimes  `json:"tomorrow"`
	Classification ClassificationJSON `json:"classification"`
	NextEvent      string             `json:"next_event,omitempty"`
	NextAt         string             `json:"next_at,omitempty"`
}

func buildClassification(c logic.Classification) ClassificationJSON {
	return ClassificationJSON{
		Nighttime:           c.IsNighttime,
		AfterSolarNoon:      c.AfterSolarNoon,
		GoldenHour:          c.IsGoldenHour,
		GoldenHourMorning:   c.GoldenHourMorning,
		GoldenHourAfternoon: c.GoldenHourAfternoon,
	}
}

func classificationOf(st *state.RunState) logic.Classification {
	return logic.Classification{
		IsNighttime:         st.IsNighttime,
		AfterSolarNoon:      st.AfterSolarNoon,
		GoldenHourAfternoon: st.GoldenHourAfternoon,
		GoldenHourMorning:   st.GoldenHourMorning,
		IsGoldenHour:        st.IsGoldenHour,
	}
}

// outputs returns the recorded outcomes ordered by source.
func outputs(st *state.RunState) []OutputJSON {
	out := make([]OutputJSON, 0, len(st.Outputs))
	for _, key := range slices.Sorted(maps.Keys(st.Outputs)) {
		o := st.Outputs[key]
		j := OutputJSON{
			Source: key,
			Event:  o.Event,
			OK:     !o.Failed(),
			Detail: detail(o),
		}
		if !o.CompletedAt.IsZero() {
			j.CompletedAt = o.CompletedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, j)
	}
	return out
}

// detail picks the most useful single line from an outcome.
func detail(o state.Outcome) string {
	switch {
	case o.Error != "":
		return o.Error
	case o.Result != "":
		return o.Result
	case o.Source == state.SourceCommand:
		return "exit " + strconv.Itoa(o.ExitCode)
	case o.StatusCode != 0:
		return "HTTP " + strconv.Itoa(o.StatusCode)
	case o.Topic != "":
		return o.Topic
	}
	return ""
}

func buildInner(snap Snapshot) StatusInner {
	st := snap.State
	if st == nil {
		st = state.New()
	}
	inner := StatusInner{
		Path:           snap.Path,
		Found:          snap.Found,
		RunID:          st.RunID,
		AgeSeconds:     int64(snap.Age().Truncate(time.Second).Seconds()),
		LastEvent:      st.LastEvent,
		Classification: buildClassification(classificationOf(st)),
		Photos: PhotosJSON{
			AfterSolarNoon:      st.PhotoStates.AfterSolarNoonPhotoTaken,
			GoldenHourMorning:   st.PhotoStates.GoldenHourMorningPhotoTaken,
			GoldenHourAfternoon: st.PhotoStates.GoldenHourAfternoonPhotoTaken,
		},
		Outputs:   outputs(st),
		Timestamp: snap.Now.UTC().Format(time.RFC3339),
	}
	if !st.TimeRan.IsZero() {
		inner.LastRun = st.TimeRan.UTC().Format(time.RFC3339)
	}
	if st.Lat != nil && st.Lng != nil {
		inner.Location = &LocationJSON{Lat: *st.Lat, Lng: *st.Lng}
	}
	return inner
}

// FormatJSON returns the JSON status of a state file.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatTimesJSON returns the JSON view of t.
func FormatTimesJSON(t Times) []byte {
	inner := TimesInner{
		Location:       LocationJSON{Lat: t.Lat, Lng: t.Lng},
		Now:            t.Now.Format(time.RFC3339),
		Today:          t.Today,
		Tomorrow:       t.Tomorrow,
		Classification: buildClassification(t.Classification),
	}
	if next, ok := t.Next(); ok {
		inner.NextEvent = string(next.Event)
		inner.NextAt = next.At.Format(time.RFC3339)
	}
	data, _ := json.MarshalIndent(TimesJSON{Times: inner}, "", "  ")
	return data
}
