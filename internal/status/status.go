// Package status provides a thread-safe status tracker for the fancontrold
// daemon. It is read by HTTP handlers and serialized into MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/WataNekko/home-server-utils/internal/control"
	"github.com/WataNekko/home-server-utils/internal/gpio"
)

// Config contains daemon configuration for display.
type Config struct {
	GPIOPin          int
	IntervalSeconds  int
	OnThreshold      float64
	OffThreshold     float64
	MaxChange        float64
	HeartbeatSeconds int
	Broker           string // empty = notifications disabled
	HTTPAddr         string
	JournalPath      string // empty = journaling disabled
}

// Counts tracks the number of each event type since startup.
type Counts struct {
	FanOn        int
	FanOff       int
	Overheats    int
	TickFailures int
}

// Snapshot is a point-in-time view of daemon state. It is a value type,
// safe to use after the lock is released.
type Snapshot struct {
	// FanLevel mirrors the last driven level, kept in sync by RecordEvent.
	FanLevel gpio.Level
	// TempC is the most recent successful reading; meaningful only when
	// HasReading is true.
	TempC      float64
	HasReading bool
	LastReadAt time.Time
	// LastAlertC and LastAlertAt describe the most recent overheat alert.
	LastAlertC    float64
	LastAlertAt   time.Time
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
// The fan level starts Low to match a freshly acquired output line.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Observe records a successful reading. Called from the loop on every good tick.
func (t *Tracker) Observe(tempC float64, at time.Time) {
	t.mu.Lock()
	t.snap.TempC = tempC
	t.snap.HasReading = true
	t.snap.LastReadAt = at
	t.mu.Unlock()
}

// RecordEvent bumps the counters and per-type details for one control event.
func (t *Tracker) RecordEvent(e control.Event) {
	t.mu.Lock()
	switch e.Type {
	case control.EventFanOn:
		t.snap.Counts.FanOn++
		t.snap.FanLevel = gpio.High
	case control.EventFanOff:
		t.snap.Counts.FanOff++
		t.snap.FanLevel = gpio.Low
	case control.EventOverheat:
		t.snap.Counts.Overheats++
		t.snap.LastAlertC = e.TempC
		t.snap.LastAlertAt = e.Timestamp
	case control.EventTickFailure:
		t.snap.Counts.TickFailures++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
