// Package notify publishes control events to MQTT with abstraction for testing.
package notify

import (
	"encoding/json"
	"time"

	"github.com/WataNekko/home-server-utils/internal/control"
)

// TopicEvents carries routine fan transitions and tick failures.
const TopicEvents = "home/fancontrold/events"

// TopicAlerts carries overheat alerts only, so a push-notification bridge
// can subscribe without seeing routine fan chatter.
const TopicAlerts = "home/fancontrold/alerts"

// TopicSystem carries daemon lifecycle events.
const TopicSystem = "home/fancontrold/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a control event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event control.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Fan FanPayload `json:"fan"`
}

// FanPayload contains the control event details. TempC is omitted for
// events raised without a reading (tick failures and fail-safe turn-ons).
type FanPayload struct {
	Timestamp string   `json:"timestamp"`
	Event     string   `json:"event"`
	TempC     *float64 `json:"temp_c,omitempty"`
	Detail    string   `json:"detail,omitempty"`
}

// FormatPayload creates the JSON payload for a control event.
func FormatPayload(event control.Event) ([]byte, error) {
	fan := FanPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Detail:    event.Detail,
	}
	if event.Type != control.EventTickFailure && event.Detail != control.DetailFailSafe {
		fan.TempC = &event.TempC
	}
	return json.Marshal(Payload{Fan: fan})
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// topicFor routes an event to its topic.
func topicFor(t control.EventType) string {
	if t == control.EventOverheat {
		return TopicAlerts
	}
	return TopicEvents
}
