package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/campbook/internal/client"
)

// calendarFlags select a date window; shared by calendar and export.
type calendarFlags struct {
	from string
	to   string
	days int
}

func (f *calendarFlags) register(cmd *cobra.Command, defDays int) {
	cmd.Flags().StringVar(&f.from, "from", "", "first day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.to, "to", "", "day after the last one shown (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.days, "days", defDays, "number of days when --to is not given")
}

func (f *calendarFlags) options() (client.CalendarOptions, error) {
	opts := client.CalendarOptions{From: f.from, To: f.to}
	if f.from != "" {
		if err := checkDate("from", f.from); err != nil {
			return opts, err
		}
	}
	if f.to != "" {
		if err := checkDate("to", f.to); err != nil {
			return opts, err
		}
	} else {
		opts.Days = f.days
	}
	return opts, nil
}

func newCalendarCmd() *cobra.Command {
	var (
		window calendarFlags
		units  string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the planning grid",
		Long:  "Show one row per unit and one column per day, marking booked nights.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := window.options()
			if err != nil {
				return err
			}
			if units != "" {
				opts.Units = strings.Split(units, ",")
			}

			proj, err := newAPIClient().Calendar(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), proj)
			}
			return renderCalendar(cmd.OutOrStdout(), proj)
		},
	}

	window.register(cmd, 14)
	cmd.Flags().StringVar(&units, "units", "", "comma-separated unit ids (default all)")

	return cmd
}
