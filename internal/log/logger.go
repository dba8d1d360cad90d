// Package log holds the zerolog logger shared by every component of a run.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service is attached to every entry.
const Service = "golden-hour"

// Options select the level and destination of the process logger.
type Options struct {
	Level  string    // zerolog level name; empty means info
	Output io.Writer // defaults to os.Stderr, keeping stdout for command output
}

var (
	mu   sync.RWMutex
	root = build(os.Stderr, zerolog.InfoLevel)
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

func build(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", Service).
		Logger()
}

// Setup replaces the process logger. An unknown level falls back to info and
// is reported as an error so the caller can warn about it.
func Setup(opts Options) error {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.InfoLevel
	var err error
	if name := strings.TrimSpace(opts.Level); name != "" {
		parsed, perr := zerolog.ParseLevel(strings.ToLower(name))
		if perr != nil || parsed == zerolog.NoLevel {
			err = fmt.Errorf("unknown log level %q, using info", opts.Level)
		} else {
			level = parsed
		}
	}

	mu.Lock()
	root = build(w, level)
	mu.Unlock()
	return err
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.With().Str("component", component).Logger()
}
