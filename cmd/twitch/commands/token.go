package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and obtain access tokens",
	}

	cmd.AddCommand(newTokenValidateCommand())
	cmd.AddCommand(newTokenAppCommand())

	return cmd
}

func newTokenValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configured access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newTwitchClient(cmd.Context())
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			info, err := client.ValidateToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to validate token: %w", err)
			}

			rows := [][]string{
				{"Client ID", info.ClientID},
				{"Login", valueOrNone(info.Login)},
				{"User ID", valueOrNone(info.UserID)},
				{"Scopes", valueOrNone(strings.Join(info.Scopes, " "))},
				{"Expires", formatExpiry(info)},
			}

			return renderOutput(cmd.OutOrStdout(), info, []string{"Property", "Value"}, rows)
		},
	}
}

func newTokenAppCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "app",
		Short: "Obtain an app access token with client credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.ClientID == "" {
				return constants.ErrNoClientID
			}

			if config.ClientSecret == "" {
				return constants.ErrNoClientSecret
			}

			token, err := newTokenClient(config).AppAccessToken(cmd.Context(), config.ClientID, config.ClientSecret)
			if err != nil {
				return fmt.Errorf("failed to obtain app access token: %w", err)
			}

			if save {
				err = saveAppToken(config.ClientID, token)
				if err != nil {
					return err
				}
			}

			rows := [][]string{
				{"Access Token", token.AccessToken},
				{"Token Type", valueOrNone(token.TokenType)},
				{"Expires In", strconv.FormatInt(token.ExpiresIn, 10) + "s"},
			}

			return renderOutput(cmd.OutOrStdout(), token, []string{"Property", "Value"}, rows)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the token as the configured access token")

	return cmd
}

// saveAppToken stores token as the access token of clientID.
func saveAppToken(clientID string, token *twitch.AccessToken) error {
	config, err := loadStoredConfig()
	if err != nil {
		return err
	}

	config.ClientID = clientID
	config.AccessToken = token.AccessToken
	config.RefreshToken = ""
	config.Scopes = token.Scopes

	config.TokenExpiresAt = nil
	if expiry := token.ExpiresAt(); !expiry.IsZero() {
		config.TokenExpiresAt = &expiry
	}

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

func formatExpiry(info *twitch.TokenInfo) string {
	expiry := info.ExpiryDate()
	if expiry.IsZero() {
		return "never"
	}

	return expiry.Format(time.RFC3339)
}
