package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search customers by name, email or phone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			repo, err := a.database()
			if err != nil {
				return err
			}

			customers, err := repo.Search(context.Background(), args[0])
			if err != nil {
				return err
			}
			if len(customers) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no customers match %q\n", args[0])
				return nil
			}
			printCustomerTable(cmd.OutOrStdout(), customers)
			return nil
		},
	}

	return cmd
}
