package gpio

import (
	"context"
	"sync"
	"time"
)

// FakePulser is a test double that records pulses.
type FakePulser struct {
	mu sync.Mutex

	// Pulses contains the duration of every pulse.
	Pulses []time.Duration

	// PulseError, if set, will be returned by Pulse.
	PulseError error

	// Closed counts Close calls.
	Closed int
}

// NewFakePulser creates a FakePulser.
func NewFakePulser() *FakePulser {
	return &FakePulser{}
}

// Pulse records d without sleeping.
func (f *FakePulser) Pulse(_ context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PulseError != nil {
		return f.PulseError
	}
	f.Pulses = append(f.Pulses, d)
	return nil
}

// Close records the call.
func (f *FakePulser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed++
	return nil
}

// Count returns how many pulses were recorded.
func (f *FakePulser) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Pulses)
}
