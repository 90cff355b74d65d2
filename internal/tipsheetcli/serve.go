package tipsheetcli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/phillip-england/tipsheet/internal/webapp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := a.openHistory(false)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			gen, err := a.newGenerator(store, "web")
			if err != nil {
				return err
			}

			cfg := webapp.ConfigFromSettings(a.settings)
			if addr != "" {
				cfg.Addr = addr
			}
			if cfg.AccessHash == "" {
				a.logger.Warn("no access password set; the web app is open to anyone who can reach it")
			}
			if err := webapp.Run(ctx, cfg, gen, a.logger); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $TIPSHEET_ADDR or :5000)")
	return cmd
}
