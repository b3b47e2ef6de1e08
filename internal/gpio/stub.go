//go:build !linux

package gpio

import "errors"

// RealActuator is not available on non-Linux platforms.
type RealActuator struct{}

// NewRealActuator returns an error on non-Linux platforms.
func NewRealActuator(pin int) (*RealActuator, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Level is not implemented on non-Linux platforms.
func (a *RealActuator) Level() (Level, error) {
	return Low, errors.New("gpio: not supported")
}

// Drive is not implemented on non-Linux platforms.
func (a *RealActuator) Drive(level Level) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (a *RealActuator) Close() error {
	return nil
}

// ProbeLevel is not implemented on non-Linux platforms.
func ProbeLevel(pin int) (Level, error) {
	return Low, errors.New("gpio: not supported on this platform (requires Linux)")
}
