package dispatch

import (
	"context"
	"sync"

	"github.com/sweeney/golden-hour/internal/state"
)

// FakeEffect records triggers and returns a scripted outcome. If Release is
// non-nil, Run blocks until it is closed or ctx ends.
type FakeEffect struct {
	Kind    string
	Outcome state.Outcome
	Release chan struct{}

	mu       sync.Mutex
	triggers []Trigger
}

// NewFakeEffect creates a FakeEffect reporting under source.
func NewFakeEffect(source string) *FakeEffect {
	return &FakeEffect{Kind: source}
}

// Source returns the configured kind.
func (f *FakeEffect) Source() string {
	return f.Kind
}

// Run records t and returns the scripted outcome.
func (f *FakeEffect) Run(ctx context.Context, t Trigger) state.Outcome {
	f.mu.Lock()
	f.triggers = append(f.triggers, t)
	f.mu.Unlock()

	if f.Release != nil {
		select {
		case <-f.Release:
		case <-ctx.Done():
			return state.Outcome{ResultCode: state.ResultFailed, Error: ctx.Err().Error()}
		}
	}
	return f.Outcome
}

// Triggers returns the triggers seen so far.
func (f *FakeEffect) Triggers() []Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Trigger, len(f.triggers))
	copy(out, f.triggers)
	return out
}
