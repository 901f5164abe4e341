package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/client"
)

// guestFlags are the guest detail flags shared by book and checkin.
type guestFlags struct {
	name       string
	city       string
	province   string
	country    string
	documentID string
	phone      string
	email      string
}

func (g *guestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&g.name, "guest", "", "guest full name")
	cmd.Flags().StringVar(&g.city, "city", "", "guest city")
	cmd.Flags().StringVar(&g.province, "province", "", "guest province")
	cmd.Flags().StringVar(&g.country, "country", "", "guest country (default Argentina)")
	cmd.Flags().StringVar(&g.documentID, "document", "", "guest identity document number")
	cmd.Flags().StringVar(&g.phone, "phone", "", "guest phone")
	cmd.Flags().StringVar(&g.email, "email", "", "guest email")
}

func (g *guestFlags) input() client.GuestInput {
	return client.GuestInput{
		FullName:   g.name,
		City:       g.city,
		Province:   g.province,
		Country:    g.country,
		DocumentID: g.documentID,
		Phone:      g.phone,
		Email:      g.email,
	}
}

// paxFlags are the headcount flags.
type paxFlags struct {
	total      int
	affiliated int
	agreement  int
	intern     int
}

func (p *paxFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.total, "pax", 0, "total number of guests")
	cmd.Flags().IntVar(&p.affiliated, "affiliated", 0, "guests who are affiliates")
	cmd.Flags().IntVar(&p.agreement, "agreement", 0, "guests covered by an agreement")
	cmd.Flags().IntVar(&p.intern, "intern", 0, "interns")
}

// changed returns pointers for the counters set on the command line.
func (p *paxFlags) changed(cmd *cobra.Command) (total, affiliated, agreement, intern *int) {
	pick := func(name string, v *int) *int {
		if cmd.Flags().Changed(name) {
			return v
		}
		return nil
	}
	return pick("pax", &p.total), pick("affiliated", &p.affiliated),
		pick("agreement", &p.agreement), pick("intern", &p.intern)
}

// checkDate rejects malformed dates before anything is sent.
func checkDate(name, v string) error {
	if _, err := calday.Parse(v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
