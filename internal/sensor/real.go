package sensor

import (
	"context"
	"os/exec"
)

// The firmware utility and subcommand that report the SoC temperature on a
// Raspberry Pi.
const (
	measureCmd = "vcgencmd"
	measureArg = "measure_temp"
)

// RealSource reads the SoC temperature by invoking vcgencmd.
type RealSource struct{}

// NewRealSource returns a Source backed by the vcgencmd utility.
func NewRealSource() RealSource {
	return RealSource{}
}

// Read runs `vcgencmd measure_temp` and returns its raw output.
func (RealSource) Read(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, measureCmd, measureArg).Output()
	if err != nil {
		return "", &CommandOutputError{Cmd: measureCmd + " " + measureArg, Err: err}
	}
	return string(out), nil
}
