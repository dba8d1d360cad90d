// Package mqtt publishes fired solar events to an MQTT broker, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/golden-hour/internal/logic"
)

// DefaultTopic is the MQTT topic for solar events.
const DefaultTopic = "golden-hour/events"

// DefaultClientID identifies this process to the broker.
const DefaultClientID = "golden-hour"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// Close disconnects from the broker.
	Close() error
}

// Event is a fired solar event to be published.
type Event struct {
	Timestamp time.Time
	Type      logic.EventType
	RunID     string
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Solar SolarPayload `json:"solar"`
}

// SolarPayload contains the event details.
type SolarPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	RunID     string `json:"run_id,omitempty"`
}

// FormatPayload creates the JSON payload for an event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Solar: SolarPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			RunID:     event.RunID,
		},
	}
	return json.Marshal(payload)
}
