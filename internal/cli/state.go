package cli

import (
	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "state <unit>",
		Short: "Show who occupies a unit on a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				if err := checkDate("date", date); err != nil {
					return err
				}
			}
			resp, err := newAPIClient().UnitStatus(cmd.Context(), args[0], date)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printState(cmd.OutOrStdout(), resp.UnitID, resp.Date.String(), resp.State)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to look at (YYYY-MM-DD, default today)")

	return cmd
}
