package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/campbook/internal/client"
)

func newBookCmd() *cobra.Command {
	var (
		guest   guestFlags
		pax     paxFlags
		guestID int64
		notes   string
		order   int64
	)

	cmd := &cobra.Command{
		Use:   "book <unit> <check-in> <check-out>",
		Short: "Book a unit",
		Long: `Book a unit for the nights from check-in up to, not including, check-out.
Dates are YYYY-MM-DD. Give either --guest for a new guest or --guest-id for
an existing one.`,
		Example: `  cb book C3 2024-05-01 2024-05-05 --guest "Ana Pérez" --city Mendoza --pax 3`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkDate("check-in", args[1]); err != nil {
				return err
			}
			if err := checkDate("check-out", args[2]); err != nil {
				return err
			}
			if guest.name == "" && guestID == 0 {
				return fmt.Errorf("either --guest or --guest-id is required")
			}

			req := client.BookingRequest{
				UnitID:        args[0],
				CheckIn:       args[1],
				CheckOut:      args[2],
				GuestID:       guestID,
				PaxTotal:      pax.total,
				PaxAffiliated: pax.affiliated,
				PaxAgreement:  pax.agreement,
				PaxIntern:     pax.intern,
				Notes:         notes,
			}
			if guestID == 0 {
				in := guest.input()
				req.Guest = &in
			}
			if cmd.Flags().Changed("order") {
				req.StayOrder = &order
			}

			res, err := newAPIClient().CreateReservation(cmd.Context(), req)
			if err != nil {
				return explain(err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Booked %s.\n", res.UnitID)
			printReservation(cmd.OutOrStdout(), res)
			return nil
		},
	}

	guest.register(cmd)
	pax.register(cmd)
	cmd.Flags().Int64Var(&guestID, "guest-id", 0, "book for an existing guest")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().Int64Var(&order, "order", 0, "stay order number")

	return cmd
}
