// Package control contains pure decision logic for the fan loop: the
// two-threshold hysteresis rule and the overheat alert debounce.
// This package has NO dependencies on MQTT, the OS, or time.Sleep.
// Time is always injectable via time.Time parameters; the fan line is
// reached only through the gpio.Actuator interface.
package control

import "time"

// EventType labels an observable occurrence in the control loop.
type EventType string

const (
	EventFanOn       EventType = "FAN_ON"
	EventFanOff      EventType = "FAN_OFF"
	EventOverheat    EventType = "OVERHEAT"
	EventTickFailure EventType = "TICK_FAILURE"
)

// DetailFailSafe marks a fan-on event forced by the fail-safe instead of a
// reading. Such events carry no meaningful temperature.
const DetailFailSafe = "fail-safe"

// Event is a single observable occurrence, ready to be logged, published
// and journaled.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// TempC is the reading that triggered the event. Zero for tick
	// failures, where no reading exists.
	TempC float64
	// Detail carries optional context, such as a failure cause.
	Detail string
}
