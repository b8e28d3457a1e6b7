package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show vendor balance and database summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := context.Background()

			if rental, err := a.rentalClient(); err == nil {
				balance, err := rental.Balance(ctx)
				if err != nil {
					fmt.Fprintf(out, "balance:   unavailable (%v)\n", err)
				} else {
					fmt.Fprintf(out, "balance:   $%.2f\n", balance)
				}
			} else {
				fmt.Fprintln(out, "balance:   not configured")
			}

			repo, err := a.database()
			if err != nil {
				return err
			}
			analytics, err := repo.Analytics(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "customers: %d (%d verified)\n",
				analytics.TotalCustomers, analytics.VerifiedCustomers)
			fmt.Fprintf(out, "sms codes: %d\n", analytics.TotalSMSReceived)
			if len(analytics.AddressSources) > 0 {
				fmt.Fprintln(out, "addresses:")
				for source, n := range analytics.AddressSources {
					fmt.Fprintf(out, "  %-24s %d\n", source, n)
				}
			}
			return nil
		},
	}

	return cmd
}
