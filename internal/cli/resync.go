package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Ask the server to reload availability from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().Resync(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Resync scheduled.")
			return nil
		},
	}
}
