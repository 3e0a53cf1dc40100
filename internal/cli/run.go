package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	engine "github.com/Chadha-Bhavya/ProducerConsumerEngine"
	"github.com/Chadha-Bhavya/ProducerConsumerEngine/internal/httpapi"
	"github.com/Chadha-Bhavya/ProducerConsumerEngine/internal/logging"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the producer/consumer simulation",
		Long: `Run producers and consumers against the bounded priority queue for the
configured duration, then shut down, drain the queue and print a report.
Flags override values from --config.`,
		Args: cobra.NoArgs,
		RunE: runSimulation,
	}
	addSimulationFlags(cmd.Flags())
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine.SetAffinityEnabled(cfg.Simulation.AffinityEnabled)
	if cfg.Simulation.AffinityEnabled && !engine.AffinitySupported() {
		logger.Warn("cpu affinity requested but not supported on this platform; continuing unpinned")
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	opts.Metrics = engine.NewPromMetrics(reg)
	opts.OnInternalError = func(err error) {
		logger.Warn("internal error", lg.Error("error", err))
	}

	eng, err := engine.New(opts)
	if err != nil {
		return err
	}

	ctx := lg.Attach(cmd.Context(), logger)
	if addr := cfg.Metrics.Addr; addr != "" {
		srv := httpapi.NewServer(eng, reg, logger)
		srvCtx, cancel := context.WithCancel(ctx)
		srvErr := make(chan error, 1)
		go func() { srvErr <- srv.ListenAndServe(srvCtx, addr) }()
		defer func() {
			cancel()
			if err := <-srvErr; err != nil {
				logger.Warn("status server failed", lg.Error("error", err))
			}
		}()
	}

	rep, runErr := eng.Run(ctx)
	printReport(cmd.OutOrStdout(), rep)
	return runErr
}

func printReport(w io.Writer, rep engine.Report) {
	fmt.Fprintf(w, "run %s ended: %s\n", rep.RunID, rep.Reason)
	fmt.Fprintf(w, "  produced:       %d\n", rep.Produced)
	fmt.Fprintf(w, "  consumed:       %d\n", rep.Consumed)
	fmt.Fprintf(w, "  remaining:      %d\n", rep.Remaining)
	fmt.Fprintf(w, "  abandoned:      %d\n", rep.Abandoned)
	fmt.Fprintf(w, "  duplicates:     %d\n", rep.Duplicates)
	fmt.Fprintf(w, "  blocked pushes: %d\n", rep.BlockedPushes)
	fmt.Fprintf(w, "  aging passes:   %d\n", rep.AgingPasses)
	fmt.Fprintf(w, "  max queued:     %d\n", rep.MaxQueued)
	fmt.Fprintf(w, "  item errors:    %d\n", rep.ItemErrors)
	fmt.Fprintf(w, "  elapsed:        %s\n", rep.Elapsed.Round(time.Millisecond))
}
