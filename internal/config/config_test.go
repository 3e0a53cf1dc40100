package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/Chadha-Bhavya/ProducerConsumerEngine"
	"github.com/Chadha-Bhavya/ProducerConsumerEngine/deadlock"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pcengine.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Simulation.Producers != 2 {
		t.Errorf("Producers = %d, want 2", cfg.Simulation.Producers)
	}
	if cfg.Simulation.Consumers != 3 {
		t.Errorf("Consumers = %d, want 3", cfg.Simulation.Consumers)
	}
	if cfg.Simulation.QueueCapacity != 10 {
		t.Errorf("QueueCapacity = %d, want 10", cfg.Simulation.QueueCapacity)
	}
	if cfg.Simulation.RunDurationSeconds != 20 {
		t.Errorf("RunDurationSeconds = %d, want 20", cfg.Simulation.RunDurationSeconds)
	}
	if cfg.Simulation.MaxPriority != 5 {
		t.Errorf("MaxPriority = %d, want 5", cfg.Simulation.MaxPriority)
	}
	if cfg.Simulation.AffinityEnabled {
		t.Error("AffinityEnabled should be off by default")
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("Metrics.Addr = %q, want empty", cfg.Metrics.Addr)
	}
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OverridesOnlyGivenKeys(t *testing.T) {
	path := writeFile(t, `
[simulation]
producers = 4
run_duration_seconds = 3
ordering = "fifo"
processing_delay = "50ms"

[log]
format = "json"

[metrics]
addr = "127.0.0.1:9100"

[deadlock]
strategy = "ordered"
detect_after = "2s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Simulation.Producers)
	assert.Equal(t, 3, cfg.Simulation.Consumers, "untouched keys keep defaults")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, opts.RunDuration)
	assert.Equal(t, engine.OrderFIFO, opts.Ordering)
	assert.Equal(t, 50*time.Millisecond, opts.ProcessingDelay)

	dopts, err := cfg.DeadlockOptions()
	require.NoError(t, err)
	assert.Equal(t, deadlock.StrategyOrdered, dopts.Strategy)
	assert.Equal(t, 2*time.Second, dopts.DetectAfter)
	assert.Equal(t, deadlock.DefaultHoldDelay, dopts.HoldDelay)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"unknown key", "[simulation]\nproducer = 4\n", ErrUnknownKey},
		{"zero capacity", "[simulation]\nqueue_capacity = 0\n", ErrInvalid},
		{"no consumers", "[simulation]\nconsumers = 0\n", ErrInvalid},
		{"bad ordering", "[simulation]\nordering = \"lifo\"\n", ErrInvalid},
		{"zero duration", "[simulation]\nrun_duration_seconds = 0\n", ErrInvalid},
		{"bad format", "[log]\nformat = \"xml\"\n", ErrInvalid},
		{"bad strategy", "[deadlock]\nstrategy = \"graph\"\n", ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
