package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/golden-hour/internal/config"
	"github.com/sweeney/golden-hour/internal/state"
)

// London, early afternoon: after solar noon, before golden hour.
const afternoon = "2026-06-01T13:30:00Z"

func testApp(t *testing.T, vars map[string]string) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}, &stdout, &stderr)
	a.now = func() time.Time { return time.Date(2026, 6, 1, 13, 30, 0, 0, time.UTC) }
	a.newID = func() string { return "run-1" }
	return a, &stdout, &stderr
}

func londonVars(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		config.EnvLat:       "51.5074",
		config.EnvLng:       "-0.1278",
		config.EnvState:     filepath.Join(t.TempDir(), "state.json"),
		config.EnvDateNow:   afternoon,
		config.EnvDateCheck: afternoon,
	}
}

func TestExecuteMissingCoordinates(t *testing.T) {
	a, _, stderr := testApp(t, map[string]string{config.EnvLat: "51.5"})
	if code := execute(context.Background(), nil, a); code != 1 {
		t.Fatalf("exit code: got %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "set LAT and LNG environment variables") {
		t.Errorf("stderr: got %q", stderr.String())
	}
}

func TestExecuteInvalidOverride(t *testing.T) {
	vars := londonVars(t)
	vars[config.EnvTimestampNow] = "yesterday"
	a, _, stderr := testApp(t, vars)
	if code := execute(context.Background(), []string{"run"}, a); code != 1 {
		t.Fatalf("exit code: got %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), config.EnvTimestampNow) {
		t.Errorf("stderr should name the variable: %q", stderr.String())
	}
}

func TestExecuteRunPersistsState(t *testing.T) {
	vars := londonVars(t)
	vars[config.EnvCommand] = "echo $GOLDEN_HOUR_EVENT"
	a, _, stderr := testApp(t, vars)

	if code := execute(context.Background(), nil, a); code != 0 {
		t.Fatalf("exit code: got %d, want 0 (stderr %q)", code, stderr.String())
	}

	st, err := state.Load(vars[config.EnvState])
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if !st.PhotoStates.AfterSolarNoonPhotoTaken {
		t.Error("expected afterSolarNoon photo taken")
	}
	if st.LastEvent != "afterSolarNoon" {
		t.Errorf("LastEvent: got %q", st.LastEvent)
	}
	if st.RunID != "run-1" {
		t.Errorf("RunID: got %q", st.RunID)
	}
	out, ok := st.Outputs[state.SourceCommand]
	if !ok {
		t.Fatal("expected commandExec output")
	}
	if out.ResultCode != state.ResultOK || out.Stdout != "afterSolarNoon\n" {
		t.Errorf("commandExec: got %+v", out)
	}
}

func TestExecuteRunNothingToFire(t *testing.T) {
	vars := londonVars(t)
	vars[config.EnvDateNow] = "2026-06-01T23:30:00Z"
	a, _, _ := testApp(t, vars)

	if code := execute(context.Background(), []string{"run"}, a); code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}
	st, err := state.Load(vars[config.EnvState])
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if !st.IsNighttime {
		t.Error("expected nighttime")
	}
	if len(st.Outputs) != 0 {
		t.Errorf("expected no outputs, got %v", st.Outputs)
	}
}

func TestExecuteTimes(t *testing.T) {
	vars := londonVars(t)
	a, stdout, _ := testApp(t, vars)
	if code := execute(context.Background(), []string{"times", "--json"}, a); code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}

	var got struct {
		Times struct {
			Classification struct {
				AfterSolarNoon bool `json:"after_solar_noon"`
				Nighttime      bool `json:"nighttime"`
			} `json:"classification"`
			Today struct {
				SolarNoon time.Time `json:"solarNoon"`
			} `json:"today"`
			NextEvent string `json:"next_event"`
		} `json:"times"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", stdout.String(), err)
	}
	if !got.Times.Classification.AfterSolarNoon || got.Times.Classification.Nighttime {
		t.Errorf("classification: got %+v", got.Times.Classification)
	}
	if got.Times.Today.SolarNoon.Hour() != 12 && got.Times.Today.SolarNoon.Hour() != 13 {
		t.Errorf("solar noon: got %v", got.Times.Today.SolarNoon)
	}
	if got.Times.NextEvent != "goldenHourAfternoon" {
		t.Errorf("next event: got %q", got.Times.NextEvent)
	}

	if _, err := state.Load(vars[config.EnvState]); err == nil {
		t.Error("times must not write state")
	}
}

func TestExecuteStatus(t *testing.T) {
	vars := londonVars(t)
	a, stdout, _ := testApp(t, vars)

	if code := execute(context.Background(), []string{"status"}, a); code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "(not found)") {
		t.Errorf("status before run: got %q", stdout.String())
	}

	if code := execute(context.Background(), nil, a); code != 0 {
		t.Fatalf("run exit code: got %d, want 0", code)
	}
	stdout.Reset()
	if code := execute(context.Background(), []string{"status", "--json"}, a); code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}
	for _, want := range []string{`"found": true`, `"last_event": "afterSolarNoon"`, `"run_id": "run-1"`} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("missing %s in %s", want, stdout.String())
		}
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	a, _, _ := testApp(t, londonVars(t))
	if code := execute(context.Background(), []string{"sunbathe"}, a); code != 1 {
		t.Fatalf("exit code: got %d, want 1", code)
	}
}

func TestBuildEffects(t *testing.T) {
	cfg := config.Config{
		Command:    "true",
		HTTPURL:    "http://127.0.0.1:1/hook",
		HTTPMethod: "POST",
		MQTTBroker: "tcp://127.0.0.1:1883",
		GPIOLine:   17,
		Timeout:    time.Second,
	}
	effects, closers := buildEffects(cfg)
	var sources []string
	for _, e := range effects {
		sources = append(sources, e.Source())
	}
	want := []string{state.SourceCommand, state.SourceHTTP, state.SourceMQTT, state.SourceGPIO}
	if strings.Join(sources, ",") != strings.Join(want, ",") {
		t.Errorf("sources: got %v, want %v", sources, want)
	}
	if len(closers) != 1 {
		t.Errorf("closers: got %d, want 1", len(closers))
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			t.Errorf("close undialed effect: %v", err)
		}
	}

	none, _ := buildEffects(config.Config{GPIOLine: -1})
	if len(none) != 0 {
		t.Errorf("expected no effects, got %d", len(none))
	}
}
