/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/rsv/pkg/api"
	"github.com/ssargent/rsv/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the rsv HTTP gateway. It encodes JSON rows to RSV, decodes RSV
bodies to JSON, and stores rows in the row store kept in the data directory.

Every /api/v1 route requires the X-API-Key header when an API key is
configured. Prometheus metrics are served on /metrics.

Examples:
  rsv serve
  rsv serve --port 9000 --api-key mysecretkey`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.GetConfig()
		logger := container.GetLogger()

		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Server.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.Security.APIKey == "" {
			logger.Warn().Msg("no API key configured, authentication is disabled")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		starter := container.GetServerFactory().CreateServerStarter()
		return starter.StartServer(ctx, store, serverConfig(cfg), logger, container.GetRegistry())
	},
}

// serverConfig maps the file configuration onto the gateway settings
func serverConfig(cfg *config.Config) api.ServerConfig {
	return api.ServerConfig{
		Bind:        cfg.Server.Bind,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Security.APIKey,
		CorsOrigins: cfg.Server.CorsOrigins,
		MaxRowSize:  cfg.Security.MaxRowSize,
		Strict:      cfg.Codec.Strict,
		BufferSize:  cfg.Codec.BufferSize,
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key for client authentication")
}
