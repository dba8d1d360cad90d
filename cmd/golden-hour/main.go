// Command golden-hour fires side effects when the sun passes solar noon and
// enters golden hour, remembering between runs which events already fired.
// It is meant to run periodically from cron or a systemd timer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sweeney/golden-hour/internal/command"
	"github.com/sweeney/golden-hour/internal/config"
	"github.com/sweeney/golden-hour/internal/dispatch"
	"github.com/sweeney/golden-hour/internal/engine"
	"github.com/sweeney/golden-hour/internal/gpio"
	"github.com/sweeney/golden-hour/internal/httpcall"
	xglog "github.com/sweeney/golden-hour/internal/log"
	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/metrics"
	"github.com/sweeney/golden-hour/internal/mqtt"
	"github.com/sweeney/golden-hour/internal/state"
	"github.com/sweeney/golden-hour/internal/status"
	"github.com/sweeney/golden-hour/internal/suntimes"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], newApp(os.LookupEnv, os.Stdout, os.Stderr))
	stop()
	os.Exit(code)
}

// app carries the process dependencies so commands can be driven from tests.
type app struct {
	lookup config.LookupFunc
	now    func() time.Time
	newID  func() string
	stdout io.Writer
	stderr io.Writer
}

func newApp(lookup config.LookupFunc, stdout, stderr io.Writer) *app {
	return &app{
		lookup: lookup,
		now:    time.Now,
		newID:  uuid.NewString,
		stdout: stdout,
		stderr: stderr,
	}
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, a *app) int {
	level, _ := a.lookup(config.EnvLogLevel)
	if err := xglog.Setup(xglog.Options{Level: level, Output: a.stderr}); err != nil {
		l := xglog.WithComponent("main")
		l.Warn().Err(err).Str("var", config.EnvLogLevel).Msg("ignoring log level")
	}

	if args == nil {
		args = []string{}
	}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "golden-hour: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "golden-hour",
		Short: "Fire side effects at solar noon and golden hour",
		Long: `Evaluate the current instant against the day's sun times and fire the
configured side effects once per event per day.

Configuration is read from the environment: LAT and LNG are required;
STATE, TIMEOUT, COMMAND, HTTP, HTTP_METHOD, MQTT_BROKER, GPIO_LINE and
METRICS_TEXTFILE select the state file, side effects and metrics output.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}
	root.AddCommand(newRunCommand(a), newTimesCommand(a), newStatusCommand(a))
	return root
}

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:           "run",
		Short:         "Evaluate now and fire side effects (default)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}
}

func newTimesCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:           "times",
		Short:         "Print today's and tomorrow's sun times without touching state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.times(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newStatusCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Summarise the persisted state file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.status(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) run(ctx context.Context) error {
	cfg, err := config.Load(a.lookup, a.now())
	if err != nil {
		return err
	}
	runID := a.newID()
	logger := xglog.FromContext(xglog.ContextWithRunID(ctx, runID), "main")

	effects, closers := buildEffects(cfg)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn().Err(err).Msg("close side effect")
			}
		}
	}()

	logger.Info().
		Float64("lat", cfg.Lat).
		Float64("lng", cfg.Lng).
		Str("state", cfg.StatePath).
		Dur("timeout", cfg.Timeout).
		Int("effects", len(effects)).
		Msg("started")

	eng := engine.New(cfg, engine.Options{
		Effects: effects,
		Metrics: metrics.NewRun(),
		RunID:   runID,
	})
	report, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	fired := make([]string, len(report.Fired))
	for i, e := range report.Fired {
		fired[i] = string(e)
	}
	logger.Info().
		Strs("fired", fired).
		Int("side_effects", report.Started).
		Bool("timed_out", report.TimedOut).
		Bool("saved", report.SaveErr == nil).
		Msg("finished")
	return nil
}

// closer is implemented by side effects holding a connection.
type closer interface {
	Close() error
}

// buildEffects creates the configured side effects in a fixed order.
func buildEffects(cfg config.Config) ([]dispatch.Effect, []closer) {
	var (
		effects []dispatch.Effect
		closers []closer
	)
	if cfg.HasCommand() {
		effects = append(effects, command.New(cfg.Command))
	}
	if cfg.HasHTTP() {
		effects = append(effects, httpcall.New(cfg.HTTPURL, cfg.HTTPMethod, cfg.Timeout))
	}
	if cfg.HasMQTT() {
		eff := mqtt.NewEffect(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		effects = append(effects, eff)
		closers = append(closers, eff)
	}
	if cfg.HasGPIO() {
		effects = append(effects, gpio.NewEffect(cfg.GPIOChip, cfg.GPIOLine, cfg.GPIOPulse))
	}
	return effects, closers
}

func (a *app) times(w io.Writer, asJSON bool) error {
	cfg, err := config.Load(a.lookup, a.now())
	if err != nil {
		return err
	}
	today, err := suntimes.Compute(cfg.CheckDate, cfg.Lat, cfg.Lng)
	if err != nil {
		return fmt.Errorf("compute sun times: %w", err)
	}
	tomorrow, err := suntimes.Compute(suntimes.Tomorrow(cfg.CheckDate), cfg.Lat, cfg.Lng)
	if err != nil {
		return fmt.Errorf("compute sun times for tomorrow: %w", err)
	}

	t := status.Times{
		Lat:            cfg.Lat,
		Lng:            cfg.Lng,
		Now:            cfg.Now,
		Today:          today,
		Tomorrow:       tomorrow,
		Classification: logic.Classify(logic.Input{Times: today, Now: cfg.Now}),
	}
	if asJSON {
		_, err = fmt.Fprintln(w, string(status.FormatTimesJSON(t)))
		return err
	}
	return status.WriteTimes(w, t)
}

func (a *app) status(w io.Writer, asJSON bool) error {
	path := config.StatePath(a.lookup)
	st, err := state.Load(path)
	found := true
	switch {
	case errors.Is(err, state.ErrNoState):
		found = false
	case err != nil:
		return fmt.Errorf("read %s: %w", path, err)
	}

	snap := status.Snapshot{Path: path, State: st, Found: found, Now: a.now()}
	if asJSON {
		_, err = fmt.Fprintln(w, string(status.FormatJSON(snap)))
		return err
	}
	return status.WriteText(w, snap)
}
