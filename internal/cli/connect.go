package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <server-url>",
		Short: "Save the API server URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid server URL %q (expected http://host:port)", args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.ServerURL = args[0]
			if err := saveConfig(cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Server set to %s\n", args[0])
			return nil
		},
	}
}
