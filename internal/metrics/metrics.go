// Package metrics records one run's outcome in a Prometheus registry that is
// written out for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/state"
)

// Run holds the metrics of a single invocation. Each run writes a fresh file,
// so everything is a gauge describing the last run.
type Run struct {
	reg *prometheus.Registry

	EventsFired    *prometheus.GaugeVec
	SideEffects    *prometheus.GaugeVec
	Classified     *prometheus.GaugeVec
	LastRun        prometheus.Gauge
	PersistWait    prometheus.Gauge
	PersistTimeout prometheus.Gauge
	PersistFailed  prometheus.Gauge
}

// NewRun creates the metric set on a private registry.
func NewRun() *Run {
	m := &Run{
		reg: prometheus.NewRegistry(),
		EventsFired: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "golden_hour_events_fired",
			Help: "Events newly fired by the last run, by event.",
		}, []string{"event"}),
		SideEffects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "golden_hour_side_effects",
			Help: "Side effects completed before persist in the last run, by source and result.",
		}, []string{"source", "result"}),
		Classified: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "golden_hour_classification",
			Help: "Classification of the last run's instant (1 true, 0 false), by condition.",
		}, []string{"condition"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "golden_hour_last_run_timestamp_seconds",
			Help: "Unix time the last run evaluated.",
		}),
		PersistWait: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "golden_hour_persist_wait_seconds",
			Help: "Time the last run waited for side effects before persisting.",
		}),
		PersistTimeout: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "golden_hour_persist_timeout",
			Help: "1 if the last run persisted on the fallback timer instead of the completion barrier.",
		}),
		PersistFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "golden_hour_persist_failed",
			Help: "1 if the last run failed to write its state file.",
		}),
	}
	m.reg.MustRegister(
		m.EventsFired, m.SideEffects, m.Classified,
		m.LastRun, m.PersistWait, m.PersistTimeout, m.PersistFailed,
	)
	for _, e := range logic.Events {
		m.EventsFired.WithLabelValues(string(e)).Set(0)
	}
	return m
}

// Registry exposes the underlying registry.
func (m *Run) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveClassification records the classification of the run's instant.
func (m *Run) ObserveClassification(at time.Time, c logic.Classification) {
	m.LastRun.Set(float64(at.Unix()))
	m.Classified.WithLabelValues("nighttime").Set(b2f(c.IsNighttime))
	m.Classified.WithLabelValues("after_solar_noon").Set(b2f(c.AfterSolarNoon))
	m.Classified.WithLabelValues("golden_hour_morning").Set(b2f(c.GoldenHourMorning))
	m.Classified.WithLabelValues("golden_hour_afternoon").Set(b2f(c.GoldenHourAfternoon))
	m.Classified.WithLabelValues("golden_hour").Set(b2f(c.IsGoldenHour))
}

// ObserveFired records a newly fired event.
func (m *Run) ObserveFired(e logic.EventType) {
	m.EventsFired.WithLabelValues(string(e)).Inc()
}

// ObserveOutcome records a completed side effect.
func (m *Run) ObserveOutcome(o state.Outcome) {
	result := "ok"
	if o.Failed() {
		result = "failed"
	}
	m.SideEffects.WithLabelValues(o.Source, result).Inc()
}

// ObservePersist records how the run finished.
func (m *Run) ObservePersist(wait time.Duration, timedOut bool, err error) {
	m.PersistWait.Set(wait.Seconds())
	m.PersistTimeout.Set(b2f(timedOut))
	m.PersistFailed.Set(b2f(err != nil))
}

// WriteTextfile writes the registry to path atomically.
func (m *Run) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
