package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <customer>",
		Short: "Show a single customer in full",
		Long: `Show one customer record including phone number history and received
SMS messages.

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

			customer, err := resolveCustomer(context.Background(), repo, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(customer)
			}

			printCustomer(out, customer)
			fmt.Fprintf(out, "password: %s\n", customer.Password)
			if len(customer.PhoneNumbers) > 0 {
				fmt.Fprintln(out, "numbers:")
				for _, p := range customer.PhoneNumbers {
					marker := " "
					if p.IsPrimary {
						marker = "*"
					}
					fmt.Fprintf(out, "  %s %s (%s)\n", marker, p.PhoneNumber, p.Status)
				}
			}
			if len(customer.SMSMessages) > 0 {
				fmt.Fprintln(out, "sms history:")
				for _, m := range customer.SMSMessages {
					fmt.Fprintf(out, "  %s  %s  %s\n",
						m.ReceivedAt.Format("2006-01-02 15:04"), m.PhoneNumber, m.SMSCode)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
