//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealActuator drives the fan line on actual hardware using Linux GPIO
// character device.
type RealActuator struct {
	chip *gpiocdev.Chip
	fan  *gpiocdev.Line
}

// NewRealActuator requests the given BCM line as an output on actual
// Raspberry Pi hardware. The line starts driven low; the fan stays off until
// the first control decision says otherwise.
func NewRealActuator(pin int) (*RealActuator, error) {
	chip, err := gpiocdev.NewChip("gpiochip0", gpiocdev.WithConsumer("fancontrold"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request fan pin %d: %w", pin, err)
	}

	return &RealActuator{chip: chip, fan: line}, nil
}

// Level returns the level currently driven on the fan line, read back from
// the kernel rather than from any cached copy.
func (a *RealActuator) Level() (Level, error) {
	raw, err := a.fan.Value()
	if err != nil {
		return Low, fmt.Errorf("read fan pin: %w", err)
	}
	if raw == 0 {
		return Low, nil
	}
	return High, nil
}

// Drive sets the fan line to the given level.
func (a *RealActuator) Drive(level Level) error {
	raw := 0
	if level == High {
		raw = 1
	}
	if err := a.fan.SetValue(raw); err != nil {
		return fmt.Errorf("drive fan pin: %w", err)
	}
	return nil
}

// ProbeLevel reads the current level of the given BCM line without driving
// it. The line is requested as input, sampled once, and released, so a
// running daemon holding the line as output will make this fail with EBUSY.
func ProbeLevel(pin int) (Level, error) {
	chip, err := gpiocdev.NewChip("gpiochip0", gpiocdev.WithConsumer("fancontrold-probe"))
	if err != nil {
		return Low, fmt.Errorf("open gpio chip: %w", err)
	}
	defer chip.Close()

	line, err := chip.RequestLine(pin, gpiocdev.AsInput)
	if err != nil {
		return Low, fmt.Errorf("request fan pin %d: %w", pin, err)
	}
	defer line.Close()

	raw, err := line.Value()
	if err != nil {
		return Low, fmt.Errorf("read fan pin: %w", err)
	}
	if raw == 0 {
		return Low, nil
	}
	return High, nil
}

// Close releases GPIO resources. The line is not reconfigured on the way
// out, so it keeps driving its last level after release.
func (a *RealActuator) Close() error {
	var errs []error

	if a.fan != nil {
		if err := a.fan.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close fan pin: %w", err))
		}
	}
	if a.chip != nil {
		if err := a.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
