// Package config resolves the daemon's settings from built-in defaults, an
// optional YAML file, and environment variable overrides, in that order of
// precedence, and validates the combination before any hardware is touched.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Built-in defaults. Every setting falls back to these, including when an
// override is present but unparsable; a bad value in the environment must
// never keep the fan service from starting.
const (
	DefaultGPIOPin          = 17
	DefaultIntervalSeconds  = 15
	DefaultOnThreshold      = 60.0
	DefaultOffThreshold     = 50.0
	DefaultMaxChange        = 5.0
	DefaultMaxTickFailures  = 4
	DefaultHeartbeatSeconds = 900
	DefaultLogLevel         = "info"
)

// Setting keys as they appear in the config file.
const (
	keyGPIOPin          = "gpio_pin"
	keyIntervalSeconds  = "interval_seconds"
	keyOnThreshold      = "on_threshold"
	keyOffThreshold     = "off_threshold"
	keyMaxChange        = "max_change"
	keyMaxTickFailures  = "max_tick_failures"
	keyHeartbeatSeconds = "heartbeat_seconds"
	keyBroker           = "broker"
	keyHTTPAddr         = "http_addr"
	keyJournalPath      = "journal_path"
	keyLogLevel         = "log_level"
)

// Config holds the resolved settings for one daemon run.
type Config struct {
	// GPIOPin is the BCM line offset the fan transistor is wired to.
	GPIOPin int
	// IntervalSeconds is the sampling period.
	IntervalSeconds int
	// OnThreshold is the temperature in Celsius above which the fan turns on.
	OnThreshold float64
	// OffThreshold is the temperature in Celsius below which the fan turns off.
	// Always strictly less than OnThreshold after validation.
	OffThreshold float64
	// MaxChange is the minimum movement in overheat amount, in degrees,
	// before another overheat alert is sent.
	MaxChange float64
	// MaxTickFailures is the consecutive failed-tick count that forces the
	// fan on. Zero disables the fail-safe.
	MaxTickFailures int
	// HeartbeatSeconds is the period between HEARTBEAT system events.
	// Zero disables heartbeats.
	HeartbeatSeconds int
	// Broker is the MQTT broker URL. Empty disables notifications.
	Broker string
	// HTTPAddr is the status page listen address. Empty disables the server.
	HTTPAddr string
	// JournalPath is the SQLite event journal path. Empty disables journaling.
	JournalPath string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Interval returns the sampling period as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Heartbeat returns the heartbeat period as a duration.
func (c Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

// InvalidThresholdRangeError reports a threshold pair with no dead band
// between the off and on points.
type InvalidThresholdRangeError struct {
	Off float64
	On  float64
}

func (e *InvalidThresholdRangeError) Error() string {
	return fmt.Sprintf("off_threshold (%.1f) must be strictly below on_threshold (%.1f)", e.Off, e.On)
}

// Load resolves the configuration. When file is non-empty it names the exact
// config file to read and a missing or malformed file is an error; otherwise
// fancontrold.yml is searched for in /etc/fancontrold, ./configs and the
// working directory, and absence is fine. Environment variables override
// file values.
func Load(file string) (Config, error) {
	v := viper.New()

	v.SetDefault(keyGPIOPin, DefaultGPIOPin)
	v.SetDefault(keyIntervalSeconds, DefaultIntervalSeconds)
	v.SetDefault(keyOnThreshold, DefaultOnThreshold)
	v.SetDefault(keyOffThreshold, DefaultOffThreshold)
	v.SetDefault(keyMaxChange, DefaultMaxChange)
	v.SetDefault(keyMaxTickFailures, DefaultMaxTickFailures)
	v.SetDefault(keyHeartbeatSeconds, DefaultHeartbeatSeconds)
	v.SetDefault(keyBroker, "")
	v.SetDefault(keyHTTPAddr, "")
	v.SetDefault(keyJournalPath, "")
	v.SetDefault(keyLogLevel, DefaultLogLevel)

	// INTERVAL, GPIO_PIN, ON_THRESHOLD and OFF_THRESHOLD are the names the
	// daemon has always recognized; the rest follow the same convention.
	bindEnv(v, keyGPIOPin, "GPIO_PIN")
	bindEnv(v, keyIntervalSeconds, "INTERVAL", "INTERVAL_SECONDS")
	bindEnv(v, keyOnThreshold, "ON_THRESHOLD")
	bindEnv(v, keyOffThreshold, "OFF_THRESHOLD")
	bindEnv(v, keyMaxChange, "MAX_CHANGE")
	bindEnv(v, keyMaxTickFailures, "MAX_TICK_FAILURES")
	bindEnv(v, keyHeartbeatSeconds, "HEARTBEAT_SECONDS")
	bindEnv(v, keyBroker, "BROKER")
	bindEnv(v, keyHTTPAddr, "HTTP_ADDR")
	bindEnv(v, keyJournalPath, "JOURNAL_PATH")
	bindEnv(v, keyLogLevel, "LOG_LEVEL")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("fancontrold")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/fancontrold")
		v.AddConfigPath("configs") // configs/fancontrold.yml
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := Config{
		GPIOPin:          intSetting(v, keyGPIOPin, DefaultGPIOPin),
		IntervalSeconds:  positiveIntSetting(v, keyIntervalSeconds, DefaultIntervalSeconds),
		OnThreshold:      floatSetting(v, keyOnThreshold, DefaultOnThreshold),
		OffThreshold:     floatSetting(v, keyOffThreshold, DefaultOffThreshold),
		MaxChange:        floatSetting(v, keyMaxChange, DefaultMaxChange),
		MaxTickFailures:  intSetting(v, keyMaxTickFailures, DefaultMaxTickFailures),
		HeartbeatSeconds: intSetting(v, keyHeartbeatSeconds, DefaultHeartbeatSeconds),
		Broker:           v.GetString(keyBroker),
		HTTPAddr:         v.GetString(keyHTTPAddr),
		JournalPath:      v.GetString(keyJournalPath),
		LogLevel:         v.GetString(keyLogLevel),
	}

	if cfg.OffThreshold >= cfg.OnThreshold {
		return Config{}, &InvalidThresholdRangeError{Off: cfg.OffThreshold, On: cfg.OnThreshold}
	}
	return cfg, nil
}

func bindEnv(v *viper.Viper, key string, envNames ...string) {
	// BindEnv only errors on an empty key.
	_ = v.BindEnv(append([]string{key}, envNames...)...)
}

// intSetting parses the value at key as an integer, falling back to def when
// it is missing or unparsable. Viper would coerce garbage to zero; fetching
// the raw string keeps the fall-back-to-default contract.
func intSetting(v *viper.Viper, key string, def int) int {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// positiveIntSetting is intSetting restricted to values >= 1.
func positiveIntSetting(v *viper.Viper, key string, def int) int {
	n := intSetting(v, key, def)
	if n < 1 {
		return def
	}
	return n
}

// floatSetting parses the value at key as a float, falling back to def when
// it is missing or unparsable.
func floatSetting(v *viper.Viper, key string, def float64) float64 {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}
