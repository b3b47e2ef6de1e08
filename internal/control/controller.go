package control

import (
	"fmt"
	"time"

	"github.com/WataNekko/home-server-utils/internal/gpio"
)

// Controller applies the hysteresis rule to the fan line.
//
// The fan's logical state is whatever level the line currently drives; the
// controller reads it back before every decision instead of tracking a
// shadow flag, so logical and physical state cannot diverge.
type Controller struct {
	on  float64
	off float64
	fan gpio.Actuator
}

// NewController wires the controller to its actuator. Thresholds must
// already be validated: off strictly below on.
func NewController(onThreshold, offThreshold float64, fan gpio.Actuator) *Controller {
	return &Controller{on: onThreshold, off: offThreshold, fan: fan}
}

// Step evaluates one reading and drives the fan when a threshold is strictly
// crossed. Readings inside the dead band, or on the already-satisfied side
// of a threshold, leave the line untouched. Returns the transition event if
// one occurred, nil otherwise.
func (c *Controller) Step(tempC float64, now time.Time) (*Event, error) {
	level, err := c.fan.Level()
	if err != nil {
		return nil, fmt.Errorf("read fan level: %w", err)
	}

	switch {
	case level == gpio.Low && tempC > c.on:
		if err := c.fan.Drive(gpio.High); err != nil {
			return nil, fmt.Errorf("turn fan on: %w", err)
		}
		return &Event{Timestamp: now, Type: EventFanOn, TempC: tempC}, nil

	case level == gpio.High && tempC < c.off:
		if err := c.fan.Drive(gpio.Low); err != nil {
			return nil, fmt.Errorf("turn fan off: %w", err)
		}
		return &Event{Timestamp: now, Type: EventFanOff, TempC: tempC}, nil
	}

	return nil, nil
}

// FailSafe forces the fan on regardless of temperature. The loop invokes it
// once readings have been missing long enough that the chip could be hot
// without anyone knowing. No-op when the fan is already on.
func (c *Controller) FailSafe(now time.Time) (*Event, error) {
	level, err := c.fan.Level()
	if err != nil {
		return nil, fmt.Errorf("read fan level: %w", err)
	}
	if level == gpio.High {
		return nil, nil
	}
	if err := c.fan.Drive(gpio.High); err != nil {
		return nil, fmt.Errorf("turn fan on: %w", err)
	}
	return &Event{Timestamp: now, Type: EventFanOn, Detail: DetailFailSafe}, nil
}

// Level reports the level currently driven on the fan line.
func (c *Controller) Level() (gpio.Level, error) {
	return c.fan.Level()
}
