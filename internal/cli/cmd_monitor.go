package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"customerforge/internal/service"

	"github.com/spf13/cobra"
)

func newMonitorCmd() *cobra.Command {
	var sweepInterval time.Duration
	var watchWindow time.Duration

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch all pending verifications until their codes arrive",
		Long: `Continuously sweep every customer with an active, unverified number,
checking each for its SMS code. A watch ends when the code arrives or the
watch window lapses; the rental itself is only cancelled by its own
verification window. Interrupt with Ctrl-C at any time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			monitor, err := a.monitorService()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			count, err := monitor.WatchPending(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if count == 0 {
				fmt.Fprintln(out, "nothing to monitor")
				return nil
			}
			fmt.Fprintf(out, "monitoring %d customers\n", count)

			monitor.OnUpdate = func(u service.MonitorUpdate) {
				if u.TimedOut {
					fmt.Fprintf(out, "%s  %s  no code after %s (%d checks)\n",
						shortID(u.CustomerID), u.PhoneNumber, u.WaitTime.Round(time.Second), u.Attempts)
					return
				}
				fmt.Fprintf(out, "%s  %s  code %s after %s (%d checks)\n",
					shortID(u.CustomerID), u.PhoneNumber, u.Code, u.WaitTime.Round(time.Second), u.Attempts)
			}

			stats := monitor.Run(ctx, sweepInterval, watchWindow)
			fmt.Fprintf(out, "done: %d completed, %d failed, %d remaining\n",
				stats.Completed, stats.Failed, stats.Remaining)
			return nil
		},
	}

	cmd.Flags().DurationVar(&sweepInterval, "interval", 10*time.Second, "delay between sweeps")
	cmd.Flags().DurationVar(&watchWindow, "window", 15*time.Minute, "give up watching after this long")

	return cmd
}
