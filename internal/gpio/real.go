//go:build linux

package gpio

import (
	"context"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealPulser drives an output line on actual hardware.
type RealPulser struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealPulser requests offset on chip as an output, initially inactive.
func NewRealPulser(chip string, offset int) (*RealPulser, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	l, err := c.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request line %d: %w", offset, err)
	}

	return &RealPulser{chip: c, line: l}, nil
}

// Pulse drives the line high for d.
func (p *RealPulser) Pulse(ctx context.Context, d time.Duration) error {
	if err := p.line.SetValue(1); err != nil {
		return fmt.Errorf("set line active: %w", err)
	}

	var waitErr error
	timer := time.NewTimer(d)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		waitErr = ctx.Err()
	}

	if err := p.line.SetValue(0); err != nil {
		return fmt.Errorf("set line inactive: %w", err)
	}
	return waitErr
}

// Close releases GPIO resources.
// Reconfigures the line to input with pull-down (matching Pi boot defaults)
// before closing so an attached shutter release is not left held.
func (p *RealPulser) Close() error {
	var errs []error

	if p.line != nil {
		if err := p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := p.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
