package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSMSCmd() *cobra.Command {
	var wait bool
	var keep bool
	var attempts int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "sms <customer>",
		Short: "Retrieve the SMS verification code for a customer",
		Long: `Check the customer's rented number for its SMS verification code.

Without --wait this is a single check that leaves the rental running.
With --wait the number is polled until a code arrives or the attempts are
exhausted; exhaustion cancels the rental for a refund.

Arguments:
  customer    id, id prefix, email, or name fragment`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			repo, err := a.database()
			if err != nil {
				return err
			}
			customers, err := a.customerService()
			if err != nil {
				return err
			}
			ctx := context.Background()

			customer, err := resolveCustomer(ctx, repo, args[0])
			if err != nil {
				return err
			}

			n := 1
			if wait {
				n = attempts
			}
			code, err := customers.PollForCustomer(ctx, customer.ID, n, interval)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if code == "" {
				if wait {
					fmt.Fprintln(out, "no code received, rental cancelled")
				} else {
					fmt.Fprintln(out, "no code yet")
				}
				return nil
			}
			fmt.Fprintf(out, "sms code: %s\n", code)

			if keep && customer.PrimaryVerificationID != nil {
				rental, err := a.rentalClient()
				if err != nil {
					return err
				}
				if rental.KeepNumber(ctx, *customer.PrimaryVerificationID) {
					fmt.Fprintln(out, "number kept for future messages")
				} else {
					fmt.Fprintln(out, "vendor declined to keep the number")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "poll until a code arrives or attempts run out")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the number for future messages after the code arrives")
	cmd.Flags().IntVar(&attempts, "attempts", 20, "polling attempts with --wait")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between attempts (default from config)")

	return cmd
}
