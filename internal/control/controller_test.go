package control

import (
	"errors"
	"testing"
	"time"

	"github.com/WataNekko/home-server-utils/internal/gpio"
)

func TestFanTurnsOnAboveThreshold(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.Low)
	c := NewController(60, 50, fan)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	ev, err := c.Step(65, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected a transition event")
	}
	if ev.Type != EventFanOn {
		t.Errorf("expected FAN_ON, got %s", ev.Type)
	}
	if ev.TempC != 65 {
		t.Errorf("TempC: got %v, want 65", ev.TempC)
	}
	if !ev.Timestamp.Equal(now) {
		t.Errorf("Timestamp: got %v, want %v", ev.Timestamp, now)
	}

	if len(fan.Drives) != 1 || fan.Drives[0] != gpio.High {
		t.Errorf("Drives: got %v, want [HIGH]", fan.Drives)
	}
}

func TestFanStaysOffBelowOnThreshold(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.Low)
	c := NewController(60, 50, fan)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	ev, err := c.Step(55, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Errorf("expected no event, got %s", ev.Type)
	}
	if len(fan.Drives) != 0 {
		t.Errorf("expected no drives, got %v", fan.Drives)
	}
}

func TestFanStaysOffAtExactOnThreshold(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.Low)
	c := NewController(60, 50, fan)

	// The on comparison is strict; equality does not cross.
	ev, err := c.Step(60, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Errorf("expected no event at exact threshold, got %s", ev.Type)
	}
	if len(fan.Drives) != 0 {
		t.Errorf("expected no drives, got %v", fan.Drives)
	}
}

func TestFanTurnsOffBelowOffThreshold(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.High)
	c := NewController(60, 50, fan)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	ev, err := c.Step(45, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected a transition event")
	}
	if ev.Type != EventFanOff {
		t.Errorf("expected FAN_OFF, got %s", ev.Type)
	}
	if ev.TempC != 45 {
		t.Errorf("TempC: got %v, want 45", ev.TempC)
	}

	if len(fan.Drives) != 1 || fan.Drives[0] != gpio.Low {
		t.Errorf("Drives: got %v, want [LOW]", fan.Drives)
	}
}

func TestFanStaysOnAtExactOffThreshold(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.High)
	c := NewController(60, 50, fan)

	ev, err := c.Step(50, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Errorf("expected no event at exact threshold, got %s", ev.Type)
	}
	if len(fan.Drives) != 0 {
		t.Errorf("expected no drives, got %v", fan.Drives)
	}
}

func TestDeadBandHoldsCurrentLevel(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// A reading between the thresholds never moves the fan, whichever
	// side it is currently on.
	for _, initial := range []gpio.Level{gpio.Low, gpio.High} {
		fan := gpio.NewFakeActuator(initial)
		c := NewController(60, 50, fan)

		ev, err := c.Step(55, now)
		if err != nil {
			t.Fatalf("initial %v: unexpected error: %v", initial, err)
		}
		if ev != nil {
			t.Errorf("initial %v: expected no event, got %s", initial, ev.Type)
		}

		level, _ := fan.Level()
		if level != initial {
			t.Errorf("initial %v: level changed to %v", initial, level)
		}
	}
}

func TestHysteresisSequence(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.Low)
	c := NewController(60, 50, fan)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	temps := []float64{65, 55, 65, 45, 65}
	wantLevels := []gpio.Level{gpio.High, gpio.High, gpio.High, gpio.Low, gpio.High}
	wantEvents := []EventType{EventFanOn, "", "", EventFanOff, EventFanOn}

	for i, temp := range temps {
		ev, err := c.Step(temp, base.Add(time.Duration(i)*15*time.Second))
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}

		if wantEvents[i] == "" {
			if ev != nil {
				t.Errorf("step %d (%.0f): expected no event, got %s", i, temp, ev.Type)
			}
		} else {
			if ev == nil {
				t.Fatalf("step %d (%.0f): expected %s, got none", i, temp, wantEvents[i])
			}
			if ev.Type != wantEvents[i] {
				t.Errorf("step %d (%.0f): expected %s, got %s", i, temp, wantEvents[i], ev.Type)
			}
		}

		level, _ := fan.Level()
		if level != wantLevels[i] {
			t.Errorf("step %d (%.0f): level got %v, want %v", i, temp, level, wantLevels[i])
		}
	}

	if len(fan.Drives) != 3 {
		t.Errorf("expected 3 drives over the sequence, got %d", len(fan.Drives))
	}
}

func TestStepLevelError(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.Low)
	fan.LevelError = errors.New("simulated error")
	c := NewController(60, 50, fan)

	_, err := c.Step(65, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(fan.Drives) != 0 {
		t.Errorf("expected no drives after read failure, got %v", fan.Drives)
	}
}

func TestStepDriveError(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.Low)
	fan.DriveError = errors.New("simulated error")
	c := NewController(60, 50, fan)

	_, err := c.Step(65, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestFailSafeForcesFanOn(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.Low)
	c := NewController(60, 50, fan)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	ev, err := c.FailSafe(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected a transition event")
	}
	if ev.Type != EventFanOn {
		t.Errorf("expected FAN_ON, got %s", ev.Type)
	}
	if ev.Detail != "fail-safe" {
		t.Errorf("Detail: got %q, want fail-safe", ev.Detail)
	}

	level, _ := fan.Level()
	if level != gpio.High {
		t.Errorf("level: got %v, want HIGH", level)
	}
}

func TestFailSafeNoOpWhenAlreadyOn(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.High)
	c := NewController(60, 50, fan)

	ev, err := c.FailSafe(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Errorf("expected no event, got %s", ev.Type)
	}
	if len(fan.Drives) != 0 {
		t.Errorf("expected no drives, got %v", fan.Drives)
	}
}

func TestControllerLevel(t *testing.T) {
	fan := gpio.NewFakeActuator(gpio.High)
	c := NewController(60, 50, fan)

	level, err := c.Level()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != gpio.High {
		t.Errorf("level: got %v, want HIGH", level)
	}
}
