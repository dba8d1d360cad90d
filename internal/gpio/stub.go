//go:build !linux

package gpio

import (
	"context"
	"errors"
	"time"
)

// RealPulser is not available on non-Linux platforms.
type RealPulser struct{}

// NewRealPulser returns an error on non-Linux platforms.
func NewRealPulser(chip string, offset int) (*RealPulser, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Pulse is not implemented on non-Linux platforms.
func (p *RealPulser) Pulse(ctx context.Context, d time.Duration) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (p *RealPulser) Close() error {
	return nil
}
