package cli

import (
	"fmt"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/spf13/cobra"

	engine "github.com/Chadha-Bhavya/ProducerConsumerEngine"
	"github.com/Chadha-Bhavya/ProducerConsumerEngine/deadlock"
	"github.com/Chadha-Bhavya/ProducerConsumerEngine/internal/logging"
)

func newDeadlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadlock",
		Short: "Demonstrate a two-lock deadlock and its scripted recovery",
		Long: `Two workers take locks A and B in opposite order and deadlock. After
--detect-after a watchdog clears the shared run-flag, which releases them.
The watchdog is a fixed timeout, not real deadlock detection: it clears
the flag at the deadline whatever the workers are doing.

--strategy ordered makes both workers take A first, so nothing deadlocks.
--strategy backoff has each worker release its first lock and back off
when the second is busy.`,
		Args: cobra.NoArgs,
		RunE: runDeadlock,
	}
	cmd.Flags().String("strategy", "", "Lock strategy: opposite, ordered or backoff")
	cmd.Flags().Duration("hold-delay", 0, "How long each worker holds its first lock")
	cmd.Flags().Duration("detect-after", 0, "Watchdog deadline")
	return cmd
}

func runDeadlock(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	overrideString(flags, "strategy", &cfg.Deadlock.Strategy)
	if flags.Changed("hold-delay") {
		cfg.Deadlock.HoldDelay, _ = flags.GetDuration("hold-delay")
	}
	if flags.Changed("detect-after") {
		cfg.Deadlock.DetectAfter, _ = flags.GetDuration("detect-after")
	}

	opts, err := cfg.DeadlockOptions()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctx := lg.Attach(cmd.Context(), logger.With(lg.String("demo", "deadlock")))

	res, err := deadlock.Run(ctx, engine.NewRunFlag(), opts)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "strategy %s finished in %s\n", res.Strategy, res.Elapsed.Round(time.Millisecond))
	for _, wr := range res.Workers {
		fmt.Fprintf(w, "  %s: acquired both=%t attempts=%d stuck=%t\n", wr.Name, wr.Acquired, wr.Attempts, wr.Waiting)
	}
	fmt.Fprintf(w, "  watchdog fired: %t\n", res.Recovered)
	fmt.Fprintf(w, "  deadlocked:     %t\n", res.Deadlocked())
	return nil
}
