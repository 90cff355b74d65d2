package tipsheetcli

import (
	"fmt"
	"strconv"

	"github.com/phillip-england/tipsheet/internal/config"
	"github.com/phillip-england/tipsheet/internal/envutil"
	"github.com/phillip-england/tipsheet/internal/security"
	"github.com/spf13/cobra"
)

func newSetupCmd(a *app) *cobra.Command {
	var (
		password string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write a .env with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := map[string]string{
				config.EnvAddr:         config.DefaultAddr,
				config.EnvUploadDir:    config.DefaultUploadDir,
				config.EnvCleanupDelay: config.DefaultCleanupDelay.String(),
				config.EnvMaxUploadMB:  strconv.Itoa(config.DefaultMaxUploadMB),
				config.EnvLogLevel:     config.DefaultLogLevel,
			}
			if password != "" {
				hash, err := security.HashPassword(password)
				if err != nil {
					return fmt.Errorf("invalid access password: %w", err)
				}
				values[config.EnvAccessHash] = hash
			}
			if err := envutil.WriteDotEnv(a.envFile, values, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.envFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "access-password", "", "password for the web app (min 12 chars)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing env file")
	return cmd
}
