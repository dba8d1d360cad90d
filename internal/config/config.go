// Package config reads the run configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	xglog "github.com/sweeney/golden-hour/internal/log"
	"github.com/sweeney/golden-hour/internal/suntimes"
)

// Environment variable names.
const (
	EnvLat             = "LAT"
	EnvLng             = "LNG"
	EnvState           = "STATE"
	EnvTimeout         = "TIMEOUT"
	EnvCommand         = "COMMAND"
	EnvHTTP            = "HTTP"
	EnvHTTPMethod      = "HTTP_METHOD"
	EnvTimestampNow    = "TIMESTAMP_NOW"
	EnvDateNow         = "ISO3339_DATE_NOW"
	EnvTimestampCheck  = "TIMESTAMP_CHECK"
	EnvDateCheck       = "ISO3339_DATE_CHECK"
	EnvMQTTBroker      = "MQTT_BROKER"
	EnvMQTTTopic       = "MQTT_TOPIC"
	EnvMQTTClientID    = "MQTT_CLIENT_ID"
	EnvGPIOChip        = "GPIO_CHIP"
	EnvGPIOLine        = "GPIO_LINE"
	EnvGPIOPulseMs     = "GPIO_PULSE_MS"
	EnvMetricsTextfile = "METRICS_TEXTFILE"
	EnvLogLevel        = "LOG_LEVEL"
)

// Defaults.
const (
	DefaultStatePath  = "./state.json"
	DefaultTimeout    = 30000 * time.Millisecond
	DefaultHTTPMethod = "GET"
	DefaultMQTTTopic  = "golden-hour/events"
	DefaultGPIOChip   = "gpiochip0"
	DefaultGPIOPulse  = 200 * time.Millisecond
)

var (
	// ErrMissingCoordinates is returned when LAT or LNG is unset.
	ErrMissingCoordinates = errors.New("set LAT and LNG environment variables")
	// ErrInvalidValue is returned for a value that cannot be parsed.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Config is the complete run configuration.
type Config struct {
	Lat, Lng  float64
	StatePath string
	Timeout   time.Duration

	Command    string
	HTTPURL    string
	HTTPMethod string

	// Now is the instant compared against the sun times.
	Now time.Time
	// CheckDate selects the calendar day whose sun times are computed.
	CheckDate time.Time

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	GPIOChip  string
	GPIOLine  int // negative disables the shutter pulse
	GPIOPulse time.Duration

	MetricsTextfile string
	LogLevel        string
}

// HasCommand reports whether a command side effect is configured.
func (c Config) HasCommand() bool { return c.Command != "" }

// HasHTTP reports whether an HTTP side effect is configured.
func (c Config) HasHTTP() bool { return c.HTTPURL != "" }

// HasMQTT reports whether an MQTT side effect is configured.
func (c Config) HasMQTT() bool { return c.MQTTBroker != "" }

// HasGPIO reports whether a GPIO side effect is configured.
func (c Config) HasGPIO() bool { return c.GPIOLine >= 0 }

// Load reads the configuration. now is used when no override is given.
func Load(lookup LookupFunc, now time.Time) (Config, error) {
	e := env{lookup: lookup, logger: xglog.WithComponent("config")}

	latStr, latOK := e.get(EnvLat)
	lngStr, lngOK := e.get(EnvLng)
	if !latOK || !lngOK {
		return Config{}, ErrMissingCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvLat, latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvLng, lngStr)
	}
	if err := suntimes.ValidateCoordinates(lat, lng); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	nowAt, err := instant(e, EnvTimestampNow, EnvDateNow, now)
	if err != nil {
		return Config{}, err
	}
	checkAt, err := instant(e, EnvTimestampCheck, EnvDateCheck, now)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Lat:             lat,
		Lng:             lng,
		StatePath:       e.String(EnvState, DefaultStatePath),
		Timeout:         e.Millis(EnvTimeout, DefaultTimeout),
		Command:         e.String(EnvCommand, ""),
		HTTPURL:         e.String(EnvHTTP, ""),
		HTTPMethod:      strings.ToUpper(e.String(EnvHTTPMethod, DefaultHTTPMethod)),
		Now:             nowAt,
		CheckDate:       checkAt,
		MQTTBroker:      e.String(EnvMQTTBroker, ""),
		MQTTTopic:       e.String(EnvMQTTTopic, DefaultMQTTTopic),
		MQTTClientID:    e.String(EnvMQTTClientID, ""),
		GPIOChip:        e.String(EnvGPIOChip, DefaultGPIOChip),
		GPIOLine:        e.Int(EnvGPIOLine, -1),
		GPIOPulse:       e.Millis(EnvGPIOPulseMs, DefaultGPIOPulse),
		MetricsTextfile: e.String(EnvMetricsTextfile, ""),
		LogLevel:        e.String(EnvLogLevel, ""),
	}
	return cfg, nil
}

// StatePath returns the configured state file path. Unlike Load it needs no
// coordinates.
func StatePath(lookup LookupFunc) string {
	e := env{lookup: lookup, logger: xglog.WithComponent("config")}
	return e.String(EnvState, DefaultStatePath)
}

// instant resolves a time override. The millisecond timestamp variable wins
// over the date variable; with neither set, fallback is returned.
func instant(e env, tsKey, dateKey string, fallback time.Time) (time.Time, error) {
	if v, ok := e.get(tsKey); ok {
		ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s=%q: want milliseconds since epoch", ErrInvalidValue, tsKey, v)
		}
		t := time.UnixMilli(ms)
		e.logger.Debug().Str("key", tsKey).Time("value", t).Str("source", "environment").Msg("using time override")
		return t, nil
	}
	if v, ok := e.get(dateKey); ok {
		t, err := ParseDate(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, dateKey, v, err)
		}
		e.logger.Debug().Str("key", dateKey).Time("value", t).Str("source", "environment").Msg("using time override")
		return t, nil
	}
	return fallback, nil
}

// localLayouts carry a time of day but no offset.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate accepts RFC 3339 timestamps and the shorter ISO 8601 forms. A bare
// date is midnight UTC; a date and time without an offset is local time.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}
