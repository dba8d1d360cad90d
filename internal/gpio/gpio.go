// Package gpio pulses an output line, e.g. a camera remote shutter, when an
// event fires. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"context"
	"time"
)

// Pulser drives a single output line.
type Pulser interface {
	// Pulse drives the line active for d, then inactive again. It returns
	// early with ctx's error if ctx ends first; the line is still released.
	Pulse(ctx context.Context, d time.Duration) error

	// Close releases GPIO resources.
	Close() error
}

// Defaults.
const (
	DefaultChip  = "gpiochip0"
	DefaultPulse = 200 * time.Millisecond
)
