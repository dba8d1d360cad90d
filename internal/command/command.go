// Package command runs the configured shell command when an event fires.
package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/sweeney/golden-hour/internal/dispatch"
	xglog "github.com/sweeney/golden-hour/internal/log"
	"github.com/sweeney/golden-hour/internal/state"
)

// DefaultShell interprets the command string.
const DefaultShell = "/bin/sh"

// Environment variables exported to the command.
const (
	EnvEvent = "GOLDEN_HOUR_EVENT"
	EnvRunID = "GOLDEN_HOUR_RUN_ID"
)

// Effect executes Command through Shell once per fired event.
type Effect struct {
	Command string
	Shell   string
	logger  zerolog.Logger
}

// New creates an Effect for cmd using DefaultShell.
func New(cmd string) *Effect {
	return &Effect{
		Command: cmd,
		Shell:   DefaultShell,
		logger:  xglog.WithComponent("command"),
	}
}

// Source implements dispatch.Effect.
func (e *Effect) Source() string {
	return state.SourceCommand
}

// Run executes the command and records its output. A spawn failure or a
// non-zero exit is recorded on the outcome, never returned.
func (e *Effect) Run(ctx context.Context, t dispatch.Trigger) state.Outcome {
	shell := e.Shell
	if shell == "" {
		shell = DefaultShell
	}
	cmd := exec.CommandContext(ctx, shell, "-c", e.Command)
	cmd.Env = append(os.Environ(),
		EnvEvent+"="+string(t.Event),
		EnvRunID+"="+t.RunID,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := state.Outcome{
		Command: e.Command,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		out.ResultCode = state.ResultFailed
		out.Error = err.Error()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.ExitCode = -1
		}
		e.logger.Warn().Err(err).
			Str("event", string(t.Event)).
			Int("exit_code", out.ExitCode).
			Msg("command failed")
		return out
	}

	e.logger.Info().
		Str("event", string(t.Event)).
		Int("stdout_bytes", stdout.Len()).
		Msg("command completed")
	return out
}
