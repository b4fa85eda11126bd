package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		clientSecret string
		refreshToken string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store Twitch credentials",
		Long: `Validate an access token against the Twitch identity service and store it
together with the client ID. Pass --client-secret and --refresh-token to let
the CLI renew expired user tokens on its own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())

			clientID := viper.GetString("client_id")
			if clientID == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Client ID: ")

				line, _ := reader.ReadString('\n')
				clientID = strings.TrimSpace(line)
			}

			if clientID == "" {
				return constants.ErrNoClientID
			}

			accessToken := viper.GetString("access_token")
			if accessToken == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")

				token, err := readSecret(reader, cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				accessToken = token
			}

			if accessToken == "" {
				return constants.ErrNoAccessToken
			}

			config := loadConfig()

			info, err := newTokenClient(config).ValidateToken(cmd.Context(), accessToken)
			if err != nil {
				return fmt.Errorf("failed to validate token: %w", err)
			}

			if info.ClientID != "" && info.ClientID != clientID {
				return fmt.Errorf("client '%s': %w", info.ClientID, constants.ErrClientIDMismatch)
			}

			stored, err := loadStoredConfig()
			if err != nil {
				return err
			}

			applyLogin(stored, clientID, accessToken, info)

			if clientSecret != "" {
				stored.ClientSecret = clientSecret
			}

			stored.RefreshToken = refreshToken

			err = saveConfigStruct(stored)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputLoginResult(cmd.OutOrStdout(), info)
		},
	}

	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "application client secret")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refresh token paired with the access token")

	return cmd
}

func applyLogin(config *Config, clientID, accessToken string, info *twitch.TokenInfo) {
	config.ClientID = clientID
	config.AccessToken = accessToken
	config.Scopes = info.Scopes
	config.LastRefreshed = nil

	config.TokenExpiresAt = nil
	if expiry := info.ExpiryDate(); !expiry.IsZero() {
		config.TokenExpiresAt = &expiry
	}
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret(reader *bufio.Reader, prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int

	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read access token: %w", err)
		}

		fmt.Fprintln(prompt)

		return strings.TrimSpace(string(secret)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", nil
	}

	return strings.TrimSpace(line), nil
}

func outputLoginResult(w io.Writer, info *twitch.TokenInfo) error {
	subject := info.Login
	if info.IsAppToken() {
		subject = "app token"
	}

	result := map[string]string{
		"status":    "logged in",
		"client_id": info.ClientID,
		"login":     info.Login,
		"user_id":   info.UserID,
		"scopes":    strings.Join(info.Scopes, " "),
	}

	rows := [][]string{
		{"Logged In As", subject},
		{"User ID", valueOrNone(info.UserID)},
		{"Scopes", valueOrNone(strings.Join(info.Scopes, " "))},
		{"Expires", formatExpiry(info)},
	}

	return renderOutput(w, result, []string{"Property", "Value"}, rows)
}
