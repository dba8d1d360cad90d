package status

import (
	"fmt"
	"io"
	"text/template"
	"time"
)

var funcs = template.FuncMap{
	"age": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm", days, h, m)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"clock": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.Format("2006-01-02 15:04:05 MST")
	},
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
	"orDash": func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	},
	"pad": func(n int, s string) string {
		return fmt.Sprintf("%-*s", n, s)
	},
}

var statusTmpl = template.Must(template.New("status").Funcs(funcs).Parse(statusText))

const statusText = `State file   {{.Path}}{{if not .Found}} (not found){{end}}
{{- with .Inner}}
Last run     {{clock $.State.TimeRan}}{{if .LastRun}} ({{age $.Age}} ago){{end}}
Run ID       {{orDash .RunID}}
Last event   {{orDash .LastEvent}}
Nighttime    {{yesno .Classification.Nighttime}}
Golden hour  {{yesno .Classification.GoldenHour}}

Photos taken
  afterSolarNoon       {{yesno .Photos.AfterSolarNoon}}
  goldenHourMorning    {{yesno .Photos.GoldenHourMorning}}
  goldenHourAfternoon  {{yesno .Photos.GoldenHourAfternoon}}
{{- if .Outputs}}

Side effects
{{- range .Outputs}}
  {{pad 12 .Source}} {{if .OK}}ok    {{else}}failed{{end}} {{pad 20 .Event}} {{.Detail}}
{{- end}}
{{- end}}
{{- end}}
`

var timesTmpl = template.Must(template.New("times").Funcs(funcs).Parse(timesText))

const timesText = `Location     {{.Lat}}, {{.Lng}}
Now          {{clock .Now}}

             today                    tomorrow
Sunrise      {{pad 24 (clock .Today.Sunrise)}} {{clock .Tomorrow.Sunrise}}
Golden end   {{pad 24 (clock .Today.GoldenHourEnd)}} {{clock .Tomorrow.GoldenHourEnd}}
Solar noon   {{pad 24 (clock .Today.SolarNoon)}} {{clock .Tomorrow.SolarNoon}}
Golden hour  {{pad 24 (clock .Today.GoldenHour)}} {{clock .Tomorrow.GoldenHour}}
Sunset       {{pad 24 (clock .Today.Sunset)}} {{clock .Tomorrow.Sunset}}

Nighttime    {{yesno .Classification.IsNighttime}}
After noon   {{yesno .Classification.AfterSolarNoon}}
Golden hour  {{yesno .Classification.IsGoldenHour}}
{{- with .Upcoming}}
Next event   {{.Event}} at {{clock .At}}
{{- end}}
`

// textView feeds the status template.
type textView struct {
	Snapshot
	Inner *StatusInner
}

// timesView feeds the times template.
type timesView struct {
	Times
	Upcoming *Upcoming
}

// WriteText renders the human-readable status of a state file.
func WriteText(w io.Writer, snap Snapshot) error {
	v := textView{Snapshot: snap}
	if snap.Found {
		inner := buildInner(snap)
		v.Inner = &inner
	}
	return statusTmpl.Execute(w, v)
}

// WriteTimes renders the human-readable sun times of t.
func WriteTimes(w io.Writer, t Times) error {
	v := timesView{Times: t}
	if next, ok := t.Next(); ok {
		v.Upcoming = &next
	}
	return timesTmpl.Execute(w, v)
}
