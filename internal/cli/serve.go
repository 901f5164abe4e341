package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/campbook/internal/config"
	"github.com/evcraddock/campbook/internal/logging"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		listen     string
		dbPath     string
		dev        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server. The server loads every reservation into memory,
follows the database change log to stay current and runs scheduled resyncs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServerConfig(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if dbPath != "" {
				cfg.Database = dbPath
			}
			if dev {
				cfg.DevMode = true
			}
			logging.Setup(cfg.DevMode)

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "server config file (default ~/.config/campbook/config.yaml)")
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "human-readable debug logging")

	return cmd
}

func loadServerConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}
