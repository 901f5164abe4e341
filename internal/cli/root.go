// Package cli defines the cobra command tree for campbook.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/campbook/internal/client"
)

var (
	flagFormat string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cb",
		Short:         "Book cabins and campsites",
		Long:          "campbook assigns cabins and campsites to guests over date ranges. Run 'cb serve' for the API server; the other commands talk to it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "API server URL (default: $CAMPBOOK_SERVER_URL, config, or http://localhost:8080)")

	root.AddCommand(
		newServeCmd(),
		newUnitsCmd(),
		newBookCmd(),
		newShowCmd(),
		newEditCmd(),
		newCheckInCmd(),
		newRemoveCmd(),
		newStateCmd(),
		newCalendarCmd(),
		newSummaryCmd(),
		newExportCmd(),
		newResyncCmd(),
		newConnectCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// newAPIClient creates an HTTP client for the campbook API.
func newAPIClient() *client.Client {
	return client.New(getServerURL())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// warn prints a non-fatal problem to stderr.
func warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
