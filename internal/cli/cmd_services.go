package cli

import (
	"fmt"
	"text/tabwriter"

	"customerforge/internal/daisysms"

	"github.com/spf13/cobra"
)

func newServicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "List known verification services and prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tSERVICE\tPRICE")
			for _, s := range daisysms.Services() {
				fmt.Fprintf(tw, "%s\t%s\t$%.2f\n", s.Code, s.Name, s.Price)
			}
			return tw.Flush()
		},
	}

	return cmd
}
