package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/state"
)

func fixedClock() time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func waitDone(t *testing.T, d *Dispatcher) {
	t.Helper()
	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("barrier did not release")
	}
}

func TestDoneWithNothingStarted(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	d := New()
	assert.Equal(t, 0, d.Fire(context.Background(), Trigger{Event: logic.EventAfterSolarNoon}))
	waitDone(t, d)
	assert.Empty(t, d.Seal())
}

func TestBarrierWaitsForAllEffects(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cmd := NewFakeEffect(state.SourceCommand)
	cmd.Release = make(chan struct{})
	hook := NewFakeEffect(state.SourceHTTP)
	hook.Release = make(chan struct{})

	d := New(cmd, hook).WithClock(fixedClock)
	require.Equal(t, 2, d.Fire(context.Background(), Trigger{Event: logic.EventAfterSolarNoon}))
	done := d.Done()

	close(cmd.Release)
	select {
	case <-done:
		t.Fatal("barrier released with one effect outstanding")
	case <-time.After(50 * time.Millisecond):
	}

	close(hook.Release)
	waitDone(t, d)

	outs := d.Seal()
	require.Len(t, outs, 2)
	for _, o := range outs {
		assert.Equal(t, "afterSolarNoon", o.Event)
		assert.Equal(t, fixedClock(), o.CompletedAt)
	}
}

func TestFireStampsSourceAndEvent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	eff := NewFakeEffect(state.SourceMQTT)
	eff.Outcome = state.Outcome{Source: "ignored", Topic: "t"}
	d := New(eff)
	d.Fire(context.Background(), Trigger{Event: logic.EventGoldenHourMorning, RunID: "r"})
	waitDone(t, d)

	outs := d.Seal()
	require.Len(t, outs, 1)
	assert.Equal(t, state.SourceMQTT, outs[0].Source)
	assert.Equal(t, "goldenHourMorning", outs[0].Event)
	assert.Equal(t, "t", outs[0].Topic)

	trig := eff.Triggers()
	require.Len(t, trig, 1)
	assert.Equal(t, "r", trig[0].RunID)
}

func TestMultipleFiringsCountEveryEffect(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	eff := NewFakeEffect(state.SourceCommand)
	d := New(eff)
	d.Fire(context.Background(), Trigger{Event: logic.EventAfterSolarNoon})
	d.Fire(context.Background(), Trigger{Event: logic.EventGoldenHourAfternoon})
	assert.Equal(t, 2, d.Started())

	waitDone(t, d)
	assert.Len(t, d.Seal(), 2)
	assert.Len(t, eff.Triggers(), 2)
}

func TestSealDiscardsLateOutcomes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	slow := NewFakeEffect(state.SourceHTTP)
	slow.Release = make(chan struct{})
	d := New(slow)
	d.Fire(context.Background(), Trigger{Event: logic.EventAfterSolarNoon})

	assert.Empty(t, d.Seal())

	close(slow.Release)
	waitDone(t, d)
	assert.Equal(t, 1, d.Late())
	assert.Empty(t, d.Seal())
}

func TestDoneIsStable(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	d := New()
	assert.Equal(t, d.Done(), d.Done())
	waitDone(t, d)
}
