package status

import (
	"encoding/json"
	"time"

	"github.com/WataNekko/home-server-utils/internal/gpio"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details. TempC and LastReading are omitted
// until the first successful sample.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Fan           string     `json:"fan"`
	TempC         *float64   `json:"temp_c,omitempty"`
	LastReading   string     `json:"last_reading,omitempty"`
	LastAlert     *AlertJSON `json:"last_alert,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// AlertJSON is the JSON representation of the last overheat alert.
type AlertJSON struct {
	TempC float64 `json:"temp_c"`
	At    string  `json:"at"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	FanOn        int `json:"fan_on"`
	FanOff       int `json:"fan_off"`
	Overheats    int `json:"overheats"`
	TickFailures int `json:"tick_failures"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	GPIOPin          int     `json:"gpio_pin"`
	IntervalSeconds  int     `json:"interval_seconds"`
	OnThreshold      float64 `json:"on_threshold"`
	OffThreshold     float64 `json:"off_threshold"`
	MaxChange        float64 `json:"max_change"`
	HeartbeatSeconds int     `json:"heartbeat_seconds"`
	Broker           string  `json:"broker,omitempty"`
	HTTPAddr         string  `json:"http_addr,omitempty"`
	JournalPath      string  `json:"journal_path,omitempty"`
}

// FanLabel renders a line level as a fan state for display.
func FanLabel(level gpio.Level) string {
	if level == gpio.High {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Fan:           FanLabel(snap.FanLevel),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			FanOn:        snap.Counts.FanOn,
			FanOff:       snap.Counts.FanOff,
			Overheats:    snap.Counts.Overheats,
			TickFailures: snap.Counts.TickFailures,
		},
		Config: ConfigJSON{
			GPIOPin:          snap.Config.GPIOPin,
			IntervalSeconds:  snap.Config.IntervalSeconds,
			OnThreshold:      snap.Config.OnThreshold,
			OffThreshold:     snap.Config.OffThreshold,
			MaxChange:        snap.Config.MaxChange,
			HeartbeatSeconds: snap.Config.HeartbeatSeconds,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
			JournalPath:      snap.Config.JournalPath,
		},
	}

	if snap.HasReading {
		temp := snap.TempC
		inner.TempC = &temp
		inner.LastReading = snap.LastReadAt.UTC().Format(time.RFC3339)
	}
	if !snap.LastAlertAt.IsZero() {
		inner.LastAlert = &AlertJSON{
			TempC: snap.LastAlertC,
			At:    snap.LastAlertAt.UTC().Format(time.RFC3339),
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
