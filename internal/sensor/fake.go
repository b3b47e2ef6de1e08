package sensor

import (
	"context"
	"errors"
	"fmt"
)

// FakeSource is a test double that replays scripted raw readings.
type FakeSource struct {
	// Outputs are returned in order. When exhausted, the last one repeats.
	Outputs []string
	// ReadError, if set, is returned by Read instead of an output.
	ReadError error

	index int
}

// NewFakeSource creates a fake that replays the given raw readings.
func NewFakeSource(outputs ...string) *FakeSource {
	return &FakeSource{Outputs: outputs}
}

// Read returns the next scripted output.
func (f *FakeSource) Read(_ context.Context) (string, error) {
	if f.ReadError != nil {
		return "", f.ReadError
	}
	if len(f.Outputs) == 0 {
		return "", errors.New("no outputs scripted")
	}
	if f.index >= len(f.Outputs) {
		return f.Outputs[len(f.Outputs)-1], nil
	}
	out := f.Outputs[f.index]
	f.index++
	return out, nil
}

// Reset rewinds the fake to its first output.
func (f *FakeSource) Reset() {
	f.index = 0
}

// Reading formats a temperature exactly as the utility prints it. Tests use
// it to script plausible sensor output.
func Reading(tempC float64) string {
	return fmt.Sprintf("temp=%.1f'C\n", tempC)
}
