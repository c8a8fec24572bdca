package cmd

import (
	"github.com/spf13/cobra"

	"usedcar-market/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Prepare the listings once and serve them as JSON for a dashboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.HTTPAddr = serveAddr
		}
		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		return server.New(snap, logger).ListenAndServe(cmd.Context(), cfg.HTTPAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config http_addr)")
	rootCmd.AddCommand(serveCmd)
}
