package config

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// env wraps a LookupFunc and logs where every value came from.
type env struct {
	lookup LookupFunc
	logger zerolog.Logger
}

// get returns the value of key, treating an empty value as unset.
func (e env) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// String reads key or returns defaultValue.
func (e env) String(key, defaultValue string) string {
	if v, ok := e.get(key); ok {
		e.logger.Debug().
			Str("key", key).
			Str("value", v).
			Str("source", "environment").
			Msg("using environment variable")
		return v
	}
	e.logger.Debug().
		Str("key", key).
		Str("default", defaultValue).
		Str("source", "default").
		Msg("using default value")
	return defaultValue
}

// Int reads an integer from key, falling back to defaultValue on parse errors.
func (e env) Int(key string, defaultValue int) int {
	v, ok := e.get(key)
	if !ok {
		e.logger.Debug().
			Str("key", key).
			Int("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	e.logger.Debug().
		Str("key", key).
		Int("value", i).
		Str("source", "environment").
		Msg("using environment variable")
	return i
}

// Millis reads a non-negative millisecond count from key as a duration.
func (e env) Millis(key string, defaultValue time.Duration) time.Duration {
	ms := e.Int(key, int(defaultValue/time.Millisecond))
	if ms < 0 {
		e.logger.Warn().
			Str("key", key).
			Int("value", ms).
			Dur("default", defaultValue).
			Msg("negative duration in environment variable, using default")
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}
