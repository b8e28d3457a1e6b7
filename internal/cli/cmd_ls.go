package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newLSCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			repo, err := a.database()
			if err != nil {
				return err
			}

			customers, err := repo.Recent(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(customers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no customers yet")
				return nil
			}
			printCustomerTable(cmd.OutOrStdout(), customers)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many customers (0 = all)")

	return cmd
}
