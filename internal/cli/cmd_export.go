package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all customers as JSON or CSV",
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

			customers, err := repo.List(context.Background())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(customers)

			case "csv":
				w := csv.NewWriter(out)
				header := []string{"id", "name", "email", "password", "address", "phone", "verified", "code"}
				if err := w.Write(header); err != nil {
					return err
				}
				for _, c := range customers {
					phone, code := "", ""
					if c.PrimaryPhone != nil {
						phone = *c.PrimaryPhone
					}
					if c.VerificationCode != nil {
						code = *c.VerificationCode
					}
					row := []string{
						c.ID.String(), c.FullName, c.Email, c.Password,
						c.FullAddress, phone, strconv.FormatBool(c.VerificationCompleted), code,
					}
					if err := w.Write(row); err != nil {
						return err
					}
				}
				w.Flush()
				return w.Error()

			default:
				return fmt.Errorf("unknown format %q, want json or csv", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")

	return cmd
}
