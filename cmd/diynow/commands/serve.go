package commands

import (
	"github.com/spf13/cobra"

	"diynow/pkg/app"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the web application.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Infof("Starting diynow %s on %s", Version, cfg.Server.Addr)

		a, err := app.New(cmd.Context(), cfg, log, Version)
		if err != nil {
			return err
		}
		return a.Run(cmd.Context())
	},
}
