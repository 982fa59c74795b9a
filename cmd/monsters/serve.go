package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/monster-tracker/internal/app"
)

func serveCmd(a *app.App) *cobra.Command {
	var (
		port            string
		refreshInterval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.Config.Server.Port = port
			}
			if cmd.Flags().Changed("refresh-every") {
				a.Config.Server.RefreshInterval = refreshInterval
			}
			return a.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default: SERVER_PORT)")
	cmd.Flags().DurationVar(&refreshInterval, "refresh-every", 0, "refresh and archive the monsters file on this interval (default: SERVER_REFRESH_INTERVAL, 0 disables)")
	return cmd
}
