package cli

import (
	"github.com/spf13/cobra"
)

func newUnitsCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "units",
		Short: "List cabins and campsites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := newAPIClient().ListUnits(cmd.Context(), category)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), units)
			}
			return printUnitTable(cmd.OutOrStdout(), units)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list this category (cabin|campsite)")

	return cmd
}
