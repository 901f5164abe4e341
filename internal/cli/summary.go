package cli

import (
	"github.com/spf13/cobra"
)

func newSummaryCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show today's occupancy, arrivals and departures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				if err := checkDate("date", date); err != nil {
					return err
				}
			}
			sum, err := newAPIClient().Summary(cmd.Context(), date)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), sum)
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to summarise (YYYY-MM-DD, default today)")

	return cmd
}
