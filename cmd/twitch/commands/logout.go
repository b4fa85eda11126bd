package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	var skipRevoke bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if !skipRevoke && config.AccessToken != "" && config.ClientID != "" {
				err := newTokenClient(config).RevokeToken(cmd.Context(), config.ClientID, config.AccessToken)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to revoke token: %v\n", err)
				}
			}

			stored, err := loadStoredConfig()
			if err != nil {
				return err
			}

			stored.AccessToken = ""
			stored.RefreshToken = ""
			stored.Scopes = nil
			stored.TokenExpiresAt = nil
			stored.LastRefreshed = nil

			err = saveConfigStruct(stored)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipRevoke, "skip-revoke", false, "clear local tokens without revoking them")

	return cmd
}
