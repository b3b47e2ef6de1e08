package gpio

// FakeActuator is a test double that records every drive operation.
type FakeActuator struct {
	// Drives contains every level passed to Drive, in order.
	Drives []Level
	// LevelError, if set, is returned by Level.
	LevelError error
	// DriveError, if set, is returned by Drive. The level is not applied.
	DriveError error
	// Closed tracks if Close was called.
	Closed bool

	level Level
}

// NewFakeActuator creates a fake line driven at the given initial level.
func NewFakeActuator(initial Level) *FakeActuator {
	return &FakeActuator{level: initial}
}

// Level returns the currently driven level.
func (f *FakeActuator) Level() (Level, error) {
	if f.LevelError != nil {
		return Low, f.LevelError
	}
	return f.level, nil
}

// Drive records the level and applies it.
func (f *FakeActuator) Drive(level Level) error {
	if f.DriveError != nil {
		return f.DriveError
	}
	f.Drives = append(f.Drives, level)
	f.level = level
	return nil
}

// Close marks the actuator as closed. The driven level is kept.
func (f *FakeActuator) Close() error {
	f.Closed = true
	return nil
}

// Reset clears the recorded drives and injected errors, keeping the level.
func (f *FakeActuator) Reset() {
	f.Drives = nil
	f.LevelError = nil
	f.DriveError = nil
	f.Closed = false
}
