package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/campbook/internal/client"
)

func newEditCmd() *cobra.Command {
	var (
		unitID   string
		checkIn  string
		checkOut string
		pax      paxFlags
		notes    string
		order    int64
	)

	cmd := &cobra.Command{
		Use:   "edit <reservation-id>",
		Short: "Change a reservation",
		Long: `Change a reservation's unit, dates, headcounts or notes. Only the flags
given are changed. After check-in the unit and check-in date are fixed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req client.UpdateRequest
			changed := false
			if cmd.Flags().Changed("unit") {
				req.UnitID = &unitID
				changed = true
			}
			if cmd.Flags().Changed("check-in") {
				if err := checkDate("check-in", checkIn); err != nil {
					return err
				}
				req.CheckIn = &checkIn
				changed = true
			}
			if cmd.Flags().Changed("check-out") {
				if err := checkDate("check-out", checkOut); err != nil {
					return err
				}
				req.CheckOut = &checkOut
				changed = true
			}
			req.PaxTotal, req.PaxAffiliated, req.PaxAgreement, req.PaxIntern = pax.changed(cmd)
			if req.PaxTotal != nil || req.PaxAffiliated != nil || req.PaxAgreement != nil || req.PaxIntern != nil {
				changed = true
			}
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
				changed = true
			}
			if cmd.Flags().Changed("order") {
				req.StayOrder = &order
				changed = true
			}
			if !changed {
				return fmt.Errorf("nothing to change; see 'cb edit --help'")
			}

			res, err := newAPIClient().UpdateReservation(cmd.Context(), args[0], req)
			if err != nil {
				return explain(err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printReservation(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&unitID, "unit", "", "move to another unit")
	cmd.Flags().StringVar(&checkIn, "check-in", "", "new check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&checkOut, "check-out", "", "new check-out date (YYYY-MM-DD)")
	pax.register(cmd)
	cmd.Flags().StringVar(&notes, "notes", "", "replace the notes")
	cmd.Flags().Int64Var(&order, "order", 0, "stay order number")

	return cmd
}
