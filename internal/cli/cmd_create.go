package cli

import (
	"context"
	"fmt"

	"customerforge/internal/service"

	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var customAddress string
	var nearOrigin string
	var noPhone bool
	var wait bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new customer identity",
		Long: `Create a complete customer: generated name, disposable mailbox, real
street address and a rented phone number.

By default the address is a random US business address. Pass --address to
pin a specific address (validated against the geocoder) or --near to pick
a real business near a location.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			customers, err := a.customerService()
			if err != nil {
				return err
			}
			ctx := context.Background()

			customer, err := customers.CreateCustomer(ctx, service.CreateOptions{
				CustomAddress: customAddress,
				OriginAddress: nearOrigin,
				SkipPhone:     noPhone,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printCustomer(out, customer)

			if wait && customer.PrimaryVerificationID != nil {
				fmt.Fprintln(out, "waiting for SMS code...")
				code, err := customers.PollForCustomer(ctx, customer.ID, 20, 0)
				if err != nil {
					return err
				}
				if code == "" {
					fmt.Fprintln(out, "no code received, rental cancelled")
					return nil
				}
				fmt.Fprintf(out, "sms code: %s\n", code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&customAddress, "address", "", "use this exact address (validated)")
	cmd.Flags().StringVar(&nearOrigin, "near", "", "pick a real address near this location")
	cmd.Flags().BoolVar(&noPhone, "no-phone", false, "skip renting a phone number")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the SMS verification code")

	return cmd
}
