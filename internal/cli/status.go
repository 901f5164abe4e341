package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the connection to the server",
		Long:  "Tests the connection to the server and reports whether its availability data is current.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	serverURL := getServerURL()
	fmt.Fprintf(out, "Server:  %s\n", serverURL)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%v)\n", err)
		return nil
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			warn("closing response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(out, "Status:  ✗ unexpected response (%d)\n", resp.StatusCode)
		return nil
	}

	var health struct {
		Index string `json:"index"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decoding health: %w", err)
	}

	switch health.Index {
	case "fresh":
		fmt.Fprintln(out, "Status:  ✓ connected, availability up to date")
	case "stale":
		fmt.Fprintln(out, "Status:  ~ connected, availability reloading")
	default:
		fmt.Fprintf(out, "Status:  ✗ connected, availability %s (bookings blocked)\n", health.Index)
	}
	return nil
}
