// Package sensor reads the SoC temperature with hardware abstraction.
// The real implementation shells out to the Raspberry Pi firmware utility
// vcgencmd. The fake implementation allows testing without hardware.
package sensor

import (
	"context"
	"fmt"
	"strconv"
)

// Source produces one raw temperature reading per call.
type Source interface {
	// Read returns the measurement utility's output, unmodified, so the
	// parser sees exactly what the sensor produced.
	Read(ctx context.Context) (string, error)
}

// Raw readings look like "temp=42.8'C\n". The shape is fixed, so parsing
// strips the prefix and suffix by length and lets the float parse reject
// anything that was not actually a reading.
const (
	readingPrefix = "temp="
	readingSuffix = "'C\n"
)

// Parse converts raw utility output to a temperature in Celsius. Any input
// that does not yield a float returns a *ParseError carrying the raw text.
func Parse(raw string) (float64, error) {
	if len(raw) < len(readingPrefix)+len(readingSuffix) {
		return 0, &ParseError{Raw: raw, Err: strconv.ErrSyntax}
	}
	body := raw[len(readingPrefix) : len(raw)-len(readingSuffix)]
	tempC, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, &ParseError{Raw: raw, Err: err}
	}
	return tempC, nil
}

// ParseError reports sensor output that could not be understood.
type ParseError struct {
	// Raw is the offending reading, preserved verbatim for diagnostics.
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed temperature reading %q: %v", e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CommandOutputError reports that the measurement utility failed before
// producing a reading.
type CommandOutputError struct {
	Cmd string
	Err error
}

func (e *CommandOutputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
}

func (e *CommandOutputError) Unwrap() error { return e.Err }
