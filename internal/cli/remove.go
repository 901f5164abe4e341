package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <reservation-id>",
		Short: "Cancel a reservation",
		Long:  "Cancel a reservation and free its dates.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := newAPIClient().DeleteReservation(cmd.Context(), id); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":      id,
					"removed": true,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reservation %s removed.\n", id)
			return nil
		},
	}
}
