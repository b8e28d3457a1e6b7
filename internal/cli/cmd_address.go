package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Address lookup utilities",
	}

	cmd.AddCommand(
		newAddressValidateCmd(),
		newAddressNearCmd(),
		newAddressSearchCmd(),
		newAddressRandomCmd(),
	)

	return cmd
}

func newAddressValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <address>",
		Short: "Validate and normalize a street address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			addresses, err := a.addressClient()
			if err != nil {
				return err
			}

			addr, err := addresses.ValidateAddress(context.Background(), args[0])
			if err != nil {
				return err
			}
			printAddress(cmd.OutOrStdout(), addr.Line1, addr.City, addr.State, addr.ZipCode, "")
			return nil
		},
	}
	return cmd
}

func newAddressNearCmd() *cobra.Command {
	var radius float64

	cmd := &cobra.Command{
		Use:   "near <location>",
		Short: "Pick a real business address near a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			addresses, err := a.addressClient()
			if err != nil {
				return err
			}
			if radius <= 0 {
				radius = a.cfg.MapQuest.RadiusMiles
			}

			addr, err := addresses.RandomAddressNear(context.Background(), args[0], radius)
			if err != nil {
				return err
			}
			printAddress(cmd.OutOrStdout(), addr.Line1, addr.City, addr.State, addr.ZipCode, addr.BusinessName)
			if addr.DistanceMiles > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "distance: %.1f mi\n", addr.DistanceMiles)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&radius, "radius", 0, "search radius in miles (default from config)")

	return cmd
}

func newAddressSearchCmd() *cobra.Command {
	var max int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for addresses matching a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			addresses, err := a.addressClient()
			if err != nil {
				return err
			}

			found, err := addresses.SearchAddresses(context.Background(), args[0], max)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no addresses found")
				return nil
			}
			for _, addr := range found {
				printAddress(cmd.OutOrStdout(), addr.Line1, addr.City, addr.State, addr.ZipCode, "")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&max, "max", 10, "maximum results")

	return cmd
}

func newAddressRandomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Pick a random real US business address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			addresses, err := a.addressClient()
			if err != nil {
				return err
			}

			addr, err := addresses.RandomUSAddress(context.Background())
			if err != nil {
				return err
			}
			printAddress(cmd.OutOrStdout(), addr.Line1, addr.City, addr.State, addr.ZipCode, addr.BusinessName)
			return nil
		},
	}
	return cmd
}
