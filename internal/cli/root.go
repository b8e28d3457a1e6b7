package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "customerforge",
		Short: "Generate customer identities with working email, address and SMS-verified phone",
		Long: `customerforge - customer identity generator

Creates complete customer records: a generated name, a disposable mailbox,
a real street address and a rented phone number whose SMS verification code
is retrieved automatically. Records persist to a local SQLite database.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(
		newCreateCmd(),
		newSMSCmd(),
		newAssignCmd(),
		newLSCmd(),
		newSearchCmd(),
		newShowCmd(),
		newMonitorCmd(),
		newStatusCmd(),
		newServicesCmd(),
		newAddressCmd(),
		newExportCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command with the given output writers.
func Execute(stdout, stderr io.Writer, args []string) error {
	rootCmd := NewRootCmd()
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
