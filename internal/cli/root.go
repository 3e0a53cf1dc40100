// Package cli implements the pcengine command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Chadha-Bhavya/ProducerConsumerEngine/internal/config"
)

// Version is stamped at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// Execute runs the command line with args and returns the first error.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCmd builds the full command tree. Running the root without a
// subcommand is the same as "run".
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pcengine",
		Short: "Bounded priority queue simulation with aging",
		Long: `pcengine runs producers and consumers against a bounded priority queue.
Items gain one priority point per second they wait, so low-priority work
is never starved. The deadlock subcommand demonstrates a two-lock deadlock
and its scripted recovery.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSimulation,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a TOML config file")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: console or json")
	addSimulationFlags(root.Flags())

	root.AddCommand(newRunCmd())
	root.AddCommand(newDeadlockCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func addSimulationFlags(fs *pflag.FlagSet) {
	fs.Int("producers", 0, "Number of producer goroutines")
	fs.Int("consumers", 0, "Number of consumer goroutines")
	fs.Int("capacity", 0, "Queue capacity")
	fs.Int("duration", 0, "Run duration in seconds")
	fs.Int("max-priority", 0, "Highest base priority a producer draws")
	fs.Bool("affinity", false, "Pin each consumer to a CPU (Linux only)")
	fs.String("ordering", "", "Extraction order: priority or fifo")
	fs.Uint64("seed", 0, "Seed for producer randomness (0 seeds from the clock)")
	fs.String("metrics-addr", "", "Serve /health, /api/stats and /metrics on this address")
}

// loadConfig reads --config and applies every flag the user set on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	s := &cfg.Simulation
	overrideInt(flags, "producers", &s.Producers)
	overrideInt(flags, "consumers", &s.Consumers)
	overrideInt(flags, "capacity", &s.QueueCapacity)
	overrideInt(flags, "duration", &s.RunDurationSeconds)
	overrideInt(flags, "max-priority", &s.MaxPriority)
	if flags.Changed("affinity") {
		s.AffinityEnabled, _ = flags.GetBool("affinity")
	}
	if flags.Changed("seed") {
		s.Seed, _ = flags.GetUint64("seed")
	}
	overrideString(flags, "ordering", &s.Ordering)
	overrideString(flags, "metrics-addr", &cfg.Metrics.Addr)
	overrideString(flags, "log-level", &cfg.Log.Level)
	overrideString(flags, "log-format", &cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func overrideInt(fs *pflag.FlagSet, name string, dst *int) {
	if fs.Lookup(name) == nil || !fs.Changed(name) {
		return
	}
	if v, err := fs.GetInt(name); err == nil {
		*dst = v
	}
}

func overrideString(fs *pflag.FlagSet, name string, dst *string) {
	if fs.Lookup(name) == nil || !fs.Changed(name) {
		return
	}
	if v, err := fs.GetString(name); err == nil {
		*dst = v
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pcengine version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pcengine %s\n", Version)
			return nil
		},
	}
}
