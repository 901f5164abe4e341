package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/campbook/internal/client"
)

func newCheckInCmd() *cobra.Command {
	var (
		guest guestFlags
		pax   paxFlags
		notes string
		order int64
	)

	cmd := &cobra.Command{
		Use:   "checkin <reservation-id>",
		Short: "Check a guest in",
		Long: `Mark a reservation as checked in. Guest details given here update the
guest record; headcounts not given keep their booked values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.CheckInRequest{Guest: guest.input()}
			req.PaxTotal, req.PaxAffiliated, req.PaxAgreement, req.PaxIntern = pax.changed(cmd)
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}
			if cmd.Flags().Changed("order") {
				req.StayOrder = &order
			}

			res, err := newAPIClient().CheckIn(cmd.Context(), args[0], req)
			if err != nil {
				return explain(err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s checked in to %s.\n", orDash(res.GuestName), res.UnitID)
			printReservation(cmd.OutOrStdout(), res)
			return nil
		},
	}

	guest.register(cmd)
	pax.register(cmd)
	cmd.Flags().StringVar(&notes, "notes", "", "replace the notes")
	cmd.Flags().Int64Var(&order, "order", 0, "stay order number")

	return cmd
}
