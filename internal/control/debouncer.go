package control

import (
	"math"
	"time"
)

// Debouncer rate-limits overheat notifications. A fresh alert goes out only
// when there is no previously reported overheat, or when the overheat amount
// (degrees above the on-threshold) has moved by strictly more than maxChange
// since the last report. Dropping below the threshold clears the tracked
// amount, so the next overheat always alerts.
type Debouncer struct {
	threshold float64
	maxChange float64

	// lastAmount is the overheat amount of the last reported alert.
	// Valid only while tracking is true.
	lastAmount float64
	tracking   bool
}

// NewDebouncer creates a debouncer for the given on-threshold.
func NewDebouncer(onThreshold, maxChange float64) *Debouncer {
	return &Debouncer{threshold: onThreshold, maxChange: maxChange}
}

// Observe feeds one reading through the filter and returns an overheat event
// when the reading deserves a fresh notification, nil otherwise.
func (d *Debouncer) Observe(tempC float64, now time.Time) *Event {
	if tempC < d.threshold {
		d.tracking = false
		return nil
	}

	amount := tempC - d.threshold
	if d.tracking && math.Abs(d.lastAmount-amount) <= d.maxChange {
		return nil
	}

	d.lastAmount = amount
	d.tracking = true
	return &Event{Timestamp: now, Type: EventOverheat, TempC: tempC}
}

// Tracking reports whether an overheat has been reported and not yet
// cleared by a reading below the threshold.
func (d *Debouncer) Tracking() bool {
	return d.tracking
}
