// Package gpio drives the fan's GPIO line with hardware abstraction.
// The real implementation uses Linux GPIO character device via go-gpiocdev.
// The fake implementation allows testing without hardware.
package gpio

// Level is the digital level driven on an output line.
type Level int

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Actuator is a single exclusively-owned digital output line. The level read
// back from the line is the authoritative fan state; callers must not keep a
// shadow copy.
type Actuator interface {
	// Level returns the level currently driven on the line.
	Level() (Level, error)
	// Drive sets the line to the given level.
	Drive(level Level) error
	// Close releases the line, leaving the last driven level in place.
	Close() error
}
