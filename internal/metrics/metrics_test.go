package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/state"
)

func TestEventsFiredStartAtZero(t *testing.T) {
	m := NewRun()
	for _, e := range logic.Events {
		assert.Equal(t, 0.0, testutil.ToFloat64(m.EventsFired.WithLabelValues(string(e))))
	}
}

func TestObserve(t *testing.T) {
	m := NewRun()
	at := time.Date(2026, 6, 1, 19, 30, 0, 0, time.UTC)

	m.ObserveClassification(at, logic.Classification{AfterSolarNoon: true, GoldenHourAfternoon: true, IsGoldenHour: true})
	m.ObserveFired(logic.EventGoldenHourAfternoon)
	m.ObserveOutcome(state.Outcome{Source: state.SourceCommand})
	m.ObserveOutcome(state.Outcome{Source: state.SourceHTTP, ResultCode: state.ResultFailed})
	m.ObservePersist(1500*time.Millisecond, true, errors.New("disk full"))

	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.LastRun))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsFired.WithLabelValues("goldenHourAfternoon")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.EventsFired.WithLabelValues("afterSolarNoon")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classified.WithLabelValues("golden_hour")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Classified.WithLabelValues("nighttime")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SideEffects.WithLabelValues("commandExec", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SideEffects.WithLabelValues("httpResult", "failed")))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.PersistWait))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistTimeout))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailed))
}

func TestWriteTextfile(t *testing.T) {
	m := NewRun()
	m.ObserveFired(logic.EventAfterSolarNoon)

	path := filepath.Join(t.TempDir(), "golden_hour.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `golden_hour_events_fired{event="afterSolarNoon"} 1`)
	assert.Contains(t, string(data), "# HELP golden_hour_persist_timeout")
}
