package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		window calendarFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <unit>",
		Short: "Export a unit's stays as iCalendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := window.options()
			if err != nil {
				return err
			}
			data, err := newAPIClient().UnitICS(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if len(data) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "No stays for %s in that window.\n", args[0])
				return nil
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	window.register(cmd, 90)
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")

	return cmd
}
