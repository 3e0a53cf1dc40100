// Package config loads pcengine settings from an optional TOML file.
//
// A file only needs the keys it changes; everything else keeps the value
// from DefaultConfig. Unknown keys are rejected so typos do not silently
// fall back to defaults.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	engine "github.com/Chadha-Bhavya/ProducerConsumerEngine"
	"github.com/Chadha-Bhavya/ProducerConsumerEngine/deadlock"
	"github.com/Chadha-Bhavya/ProducerConsumerEngine/internal/logging"
)

var (
	ErrInvalid    = errors.New("config: invalid")
	ErrUnknownKey = errors.New("config: unknown key")
)

// Config is the full file layout.
type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Log        LogConfig        `toml:"log"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Deadlock   DeadlockConfig   `toml:"deadlock"`
}

// SimulationConfig is the [simulation] section.
type SimulationConfig struct {
	Producers          int    `toml:"producers"`
	Consumers          int    `toml:"consumers"`
	QueueCapacity      int    `toml:"queue_capacity"`
	RunDurationSeconds int    `toml:"run_duration_seconds"`
	MaxPriority        int    `toml:"max_priority"`
	AffinityEnabled    bool   `toml:"affinity_enabled"`
	Ordering           string `toml:"ordering"`
	Seed               uint64 `toml:"seed"`

	ProcessingDelay time.Duration `toml:"processing_delay"`
	AgingInterval   time.Duration `toml:"aging_interval"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig is the [metrics] section. An empty Addr disables the
// HTTP status server.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// DeadlockConfig is the [deadlock] section.
type DeadlockConfig struct {
	HoldDelay   time.Duration `toml:"hold_delay"`
	DetectAfter time.Duration `toml:"detect_after"`
	Strategy    string        `toml:"strategy"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Simulation: SimulationConfig{
			Producers:          engine.DefaultProducers,
			Consumers:          engine.DefaultConsumers,
			QueueCapacity:      engine.DefaultQueueCapacity,
			RunDurationSeconds: int(engine.DefaultRunDuration / time.Second),
			MaxPriority:        engine.DefaultMaxPriority,
			Ordering:           engine.OrderPriority.String(),
			ProcessingDelay:    engine.DefaultProcessingDelay,
			AgingInterval:      engine.DefaultAgingInterval,
			ShutdownTimeout:    engine.DefaultShutdownTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Deadlock: DeadlockConfig{
			HoldDelay:   deadlock.DefaultHoldDelay,
			DetectAfter: deadlock.DefaultDetectAfter,
			Strategy:    deadlock.StrategyOpposite.String(),
		},
	}
}

// Load reads path over DefaultConfig and validates the result. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%w in %s: %s", ErrUnknownKey, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot run.
func (c Config) Validate() error {
	opts, err := c.Options()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := logging.Config(c.Log.Level, c.Log.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.DeadlockOptions(); err != nil {
		return err
	}
	return nil
}

// Options maps the [simulation] section to engine options. Observability
// hooks (Sink, Metrics) are left for the caller.
func (c Config) Options() (engine.Options, error) {
	s := c.Simulation
	ord, err := engine.ParseOrdering(s.Ordering)
	if err != nil {
		return engine.Options{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if s.RunDurationSeconds <= 0 {
		return engine.Options{}, fmt.Errorf("%w: run_duration_seconds = %d", ErrInvalid, s.RunDurationSeconds)
	}
	return engine.Options{
		Producers:       s.Producers,
		Consumers:       s.Consumers,
		QueueCapacity:   s.QueueCapacity,
		MaxPriority:     s.MaxPriority,
		RunDuration:     time.Duration(s.RunDurationSeconds) * time.Second,
		ProcessingDelay: s.ProcessingDelay,
		AgingInterval:   s.AgingInterval,
		ShutdownTimeout: s.ShutdownTimeout,
		Ordering:        ord,
		Seed:            s.Seed,
	}, nil
}

// DeadlockOptions maps the [deadlock] section.
func (c Config) DeadlockOptions() (deadlock.Options, error) {
	d := c.Deadlock
	strategy, err := deadlock.ParseStrategy(d.Strategy)
	if err != nil {
		return deadlock.Options{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if d.HoldDelay < 0 || d.DetectAfter < 0 {
		return deadlock.Options{}, fmt.Errorf("%w: deadlock delays must not be negative", ErrInvalid)
	}
	return deadlock.Options{
		HoldDelay:   d.HoldDelay,
		DetectAfter: d.DetectAfter,
		Strategy:    strategy,
	}, nil
}
