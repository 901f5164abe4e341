package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evcraddock/campbook/internal/client"
)

// explain adds a hint to booking errors the user can act on.
func explain(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Kind {
	case "overlap_conflict":
		if len(apiErr.Conflicts) == 0 {
			return err
		}
		return fmt.Errorf("%w\nhint: run 'cb show %s' or pick other dates", err, apiErr.Conflicts[0])
	case "concurrent_overlap_conflict":
		return fmt.Errorf("%w\nhint: someone else just booked these dates; check 'cb calendar'", err)
	case "concurrent_update":
		return fmt.Errorf("%w\nhint: someone else edited this reservation; run 'cb show' and try again", err)
	case "validation":
		return fmt.Errorf("%w\nhint: check %s", err, strings.Join(apiErr.Fields, ", "))
	case "stale_index", "unreliable":
		return fmt.Errorf("%w\nhint: the server is reloading availability; retry shortly", err)
	}
	return err
}
