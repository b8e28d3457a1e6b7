package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAssignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <customer>",
		Short: "Rent a fresh phone number for a customer",
		Long: `Replace the customer's current phone number with a freshly rented one.
The old rental is cancelled first so it is refunded rather than orphaned.

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

			verification, err := customers.AssignNewNumber(ctx, customer.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "new number: %s (verification %s)\n",
				verification.PhoneNumber, verification.ID)
			return nil
		},
	}

	return cmd
}
