package main

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/WataNekko/home-server-utils/internal/config"
	"github.com/WataNekko/home-server-utils/internal/control"
	"github.com/WataNekko/home-server-utils/internal/journal"
	"github.com/WataNekko/home-server-utils/internal/logger"
	"github.com/WataNekko/home-server-utils/internal/notify"
	"github.com/WataNekko/home-server-utils/internal/sensor"
	"github.com/WataNekko/home-server-utils/internal/status"
)

// eventJournal is the slice of the journal the loop writes to. Nil disables
// journaling.
type eventJournal interface {
	Append(ctx context.Context, e journal.Entry) error
}

// loop owns one run of the control loop and the state that survives ticks.
// pub, conn and jnl may be nil when the broker or journal is disabled.
type loop struct {
	cfg     config.Config
	log     *logger.Logger
	source  sensor.Source
	ctrl    *control.Controller
	deb     *control.Debouncer
	pub     notify.Publisher
	conn    notify.ConnectionStatus
	tracker *status.Tracker
	jnl     eventJournal
	now     func() time.Time

	failures      int
	lastHeartbeat time.Time
}

// run drives the loop until a shutdown signal arrives. The first sample is
// taken immediately; a chip already hot at boot must not wait a full
// interval for relief.
func (l *loop) run(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	start := l.now()
	l.lastHeartbeat = start
	l.step(ctx, start)

	for {
		select {
		case s := <-sig:
			l.shutdown(s)
			return nil
		case <-tick:
			t := l.now()
			l.step(ctx, t)
			l.maybeHeartbeat(t)
		}
	}
}

// step performs one observe-decide-notify cycle.
func (l *loop) step(ctx context.Context, t time.Time) {
	raw, err := l.source.Read(ctx)
	if err != nil {
		l.tickFailure(ctx, t, err)
		return
	}
	tempC, err := sensor.Parse(raw)
	if err != nil {
		l.tickFailure(ctx, t, err)
		return
	}

	l.tracker.Observe(tempC, t)
	l.log.Debugw("sampled", "temp_c", tempC)

	event, err := l.ctrl.Step(tempC, t)
	if err != nil {
		l.tickFailure(ctx, t, err)
		return
	}
	l.failures = 0

	if event != nil {
		l.emit(ctx, *event)
	}
	if alert := l.deb.Observe(tempC, t); alert != nil {
		l.emit(ctx, *alert)
	}
	l.syncMQTT()
}

// tickFailure records a failed tick and forces the fan on once the failure
// streak reaches the configured limit. When the chip cannot be observed,
// cooling is the safe state.
func (l *loop) tickFailure(ctx context.Context, t time.Time, cause error) {
	l.failures++
	l.log.Warnw("tick failed", "consecutive", l.failures, "err", cause)

	l.emit(ctx, control.Event{
		Timestamp: t,
		Type:      control.EventTickFailure,
		Detail:    cause.Error(),
	})

	if l.cfg.MaxTickFailures <= 0 || l.failures < l.cfg.MaxTickFailures {
		return
	}
	event, err := l.ctrl.FailSafe(t)
	if err != nil {
		l.log.Errorw("fail-safe drive failed", "err", err)
		return
	}
	if event != nil {
		l.log.Warnw("fail-safe engaged", "failed_ticks", l.failures)
		l.emit(ctx, *event)
	}
}

// emit fans one event out to the log, the tracker, the broker and the
// journal. Publish and journal failures are logged, never fatal; losing a
// notification must not stop fan control.
func (l *loop) emit(ctx context.Context, event control.Event) {
	switch event.Type {
	case control.EventOverheat:
		l.log.Warnw("event", "type", event.Type, "temp_c", event.TempC)
	case control.EventFanOn, control.EventFanOff:
		if event.Detail != "" {
			l.log.Infow("event", "type", event.Type, "detail", event.Detail)
		} else {
			l.log.Infow("event", "type", event.Type, "temp_c", event.TempC)
		}
	}

	l.tracker.RecordEvent(event)

	if l.pub != nil {
		if err := l.pub.Publish(event); err != nil {
			l.log.Errorw("publish error", "err", err)
		}
	}

	if l.jnl != nil {
		entry := journal.Entry{
			OccurredAt: event.Timestamp,
			Type:       string(event.Type),
			TempC:      event.TempC,
			Detail:     event.Detail,
		}
		if err := l.jnl.Append(ctx, entry); err != nil {
			l.log.Errorw("journal append error", "err", err)
		}
	}
}

// maybeHeartbeat publishes a HEARTBEAT system event once the configured
// period has elapsed. Zero period disables heartbeats.
func (l *loop) maybeHeartbeat(t time.Time) {
	hb := l.cfg.Heartbeat()
	if hb <= 0 || t.Sub(l.lastHeartbeat) < hb {
		return
	}
	l.lastHeartbeat = t

	l.syncMQTT()
	snap := l.tracker.Snapshot()
	l.log.Infow("heartbeat",
		"uptime", snap.Uptime().Truncate(time.Second),
		"fan", status.FanLabel(snap.FanLevel),
		"fan_on", snap.Counts.FanOn,
		"fan_off", snap.Counts.FanOff,
		"overheats", snap.Counts.Overheats,
		"tick_failures", snap.Counts.TickFailures,
	)

	if l.pub == nil {
		return
	}
	hbEvent := notify.SystemEvent{
		Timestamp:  t,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := l.pub.PublishSystem(hbEvent); err != nil {
		l.log.Errorw("heartbeat publish error", "err", err)
	}
}

func (l *loop) syncMQTT() {
	if l.conn != nil {
		l.tracker.SetMQTTConnected(l.conn.IsConnected())
	}
}

// shutdown reports the terminal state and publishes a retained SHUTDOWN
// event. The fan line keeps driving its last level after the daemon exits.
func (l *loop) shutdown(s os.Signal) {
	l.log.Infow("shutting down", "signal", s)

	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}

	if level, err := l.ctrl.Level(); err != nil {
		l.log.Warnw("final fan level unknown", "err", err)
	} else {
		l.log.Infow("final fan level", "fan", status.FanLabel(level))
	}

	l.syncMQTT()
	if l.pub == nil {
		return
	}
	snap := l.tracker.Snapshot()
	event := notify.SystemEvent{
		Timestamp:  l.now(),
		Event:      "SHUTDOWN",
		Reason:     signalName,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
	}
	if err := l.pub.PublishSystem(event); err != nil {
		l.log.Errorw("failed to publish shutdown event", "err", err)
	} else {
		l.log.Infow("published shutdown event")
	}
}
