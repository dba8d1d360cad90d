package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunIDRoundTrip(t *testing.T) {
	ctx := ContextWithRunID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", RunIDFromContext(ctx))
}

func TestRunIDMissing(t *testing.T) {
	assert.Empty(t, RunIDFromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Empty(t, RunIDFromContext(nil))
}

func TestContextWithRunIDNilParent(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	ctx := ContextWithRunID(nil, "x")
	assert.Equal(t, "x", RunIDFromContext(ctx))
}
