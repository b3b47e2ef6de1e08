// Command fancontrold drives a binary case fan from the Raspberry Pi CPU
// temperature and publishes fan events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WataNekko/home-server-utils/internal/config"
	"github.com/WataNekko/home-server-utils/internal/control"
	"github.com/WataNekko/home-server-utils/internal/gpio"
	"github.com/WataNekko/home-server-utils/internal/journal"
	"github.com/WataNekko/home-server-utils/internal/logger"
	"github.com/WataNekko/home-server-utils/internal/notify"
	"github.com/WataNekko/home-server-utils/internal/sensor"
	"github.com/WataNekko/home-server-utils/internal/status"
	"github.com/WataNekko/home-server-utils/internal/web"
)

func main() {
	configFile := flag.String("config", "", "config file (searches /etc/fancontrold, ./configs and . when empty)")
	readTemp := flag.Bool("read-temp", false, "sample the sensor once, print temperature and fan level, exit")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fancontrold: %v\n", err)
		os.Exit(1)
	}

	if *readTemp {
		if err := readTempOnce(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "fancontrold: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log := logger.Get(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Fatalw("fatal", "err", err)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	fan, err := gpio.NewRealActuator(cfg.GPIOPin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer fan.Close()

	l := &loop{
		cfg:     cfg,
		log:     log,
		source:  sensor.NewRealSource(),
		ctrl:    control.NewController(cfg.OnThreshold, cfg.OffThreshold, fan),
		deb:     control.NewDebouncer(cfg.OnThreshold, cfg.MaxChange),
		tracker: status.NewTracker(time.Now(), statusConfig(cfg)),
		now:     time.Now,
	}

	if cfg.Broker != "" {
		pub := notify.NewRealPublisher(cfg.Broker, log)
		defer pub.Close()
		l.pub = pub
		l.conn = pub
	}

	var events web.EventSource
	if cfg.JournalPath != "" {
		jnl, err := journal.Open(cfg.JournalPath)
		if err != nil {
			// A broken journal must not keep the fan from being controlled.
			log.Errorw("journal disabled", "path", cfg.JournalPath, "err", err)
		} else {
			defer jnl.Close()
			l.jnl = jnl
			events = jnl
		}
	}

	// Publish the startup event with a full status snapshot.
	if l.pub != nil {
		snap := l.tracker.Snapshot()
		startup := notify.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := l.pub.PublishSystem(startup); err != nil {
			log.Errorw("failed to publish startup event", "err", err)
		} else {
			log.Infow("published startup event")
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, l.tracker, events)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", cfg.HTTPAddr)
	}

	log.Infow("started",
		"pin", cfg.GPIOPin,
		"interval", cfg.Interval(),
		"on_threshold", cfg.OnThreshold,
		"off_threshold", cfg.OffThreshold,
		"broker", cfg.Broker,
	)

	ticker := time.NewTicker(cfg.Interval())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return l.run(context.Background(), ticker.C, sigCh)
}

// statusConfig projects the runtime configuration into the tracker's config
// block for the status page and system event payloads.
func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		GPIOPin:          cfg.GPIOPin,
		IntervalSeconds:  cfg.IntervalSeconds,
		OnThreshold:      cfg.OnThreshold,
		OffThreshold:     cfg.OffThreshold,
		MaxChange:        cfg.MaxChange,
		HeartbeatSeconds: cfg.HeartbeatSeconds,
		Broker:           cfg.Broker,
		HTTPAddr:         cfg.HTTPAddr,
		JournalPath:      cfg.JournalPath,
	}
}

// readTempOnce services the -read-temp flag: one sensor sample plus the fan
// line's current level. The line is probed as an input so the reading does
// not disturb a running daemon's output; when the daemon holds the line the
// probe fails and only the temperature is printed.
func readTempOnce(cfg config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := sensor.NewRealSource().Read(ctx)
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	tempC, err := sensor.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse reading: %w", err)
	}

	level, err := gpio.ProbeLevel(cfg.GPIOPin)
	if err != nil {
		fmt.Printf("temp: %.1f'C, fan: unknown (%v)\n", tempC, err)
		return nil
	}
	fmt.Printf("temp: %.1f'C, fan: %s\n", tempC, status.FanLabel(level))
	return nil
}
