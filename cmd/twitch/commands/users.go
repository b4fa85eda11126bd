package commands

import (
	"fmt"
	"time"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/spf13/cobra"
)

var userHeaders = []string{"ID", "Login", "Display Name", "Type", "Broadcaster Type", "Created"}

// NewMeCommand creates the me command.
func NewMeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the user that owns the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadConfig().AccessToken == "" {
				return constants.ErrNoAccessToken
			}

			client, err := newTwitchClient(cmd.Context())
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			user, err := client.GetMe(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get current user: %w", err)
			}

			return renderUsers(cmd, []twitch.User{*user})
		},
	}
}

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Look up Twitch users",
	}

	cmd.AddCommand(newUsersGetCommand())
	cmd.AddCommand(newUsersIDCommand())

	return cmd
}

func newUsersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <login>...",
		Short: "Look up users by login",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newTwitchClient(cmd.Context())
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			users, err := client.Users().GetByLogins(cmd.Context(), args...)
			if err != nil {
				return fmt.Errorf("failed to get users: %w", err)
			}

			if len(users) == 0 {
				return fmt.Errorf("%w: %v", constants.ErrUserNotFoundByName, args)
			}

			return renderUsers(cmd, users)
		},
	}
}

func newUsersIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "id <id>...",
		Short: "Look up users by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newTwitchClient(cmd.Context())
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			users := make([]twitch.User, 0, len(args))

			for _, id := range args {
				user, err := client.Users().GetByID(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("failed to get user %s: %w", id, err)
				}

				if user == nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "User %s not found\n", id)

					continue
				}

				users = append(users, *user)
			}

			if len(users) == 0 {
				return fmt.Errorf("%w: %v", constants.ErrUserNotFoundByName, args)
			}

			return renderUsers(cmd, users)
		},
	}
}

func renderUsers(cmd *cobra.Command, users []twitch.User) error {
	rows := make([][]string, 0, len(users))

	for _, user := range users {
		created := constants.NotAvailable
		if !user.CreatedAt.IsZero() {
			created = user.CreatedAt.Format(time.DateOnly)
		}

		rows = append(rows, []string{
			user.ID,
			user.Login,
			user.DisplayName,
			valueOrNone(user.Type),
			valueOrNone(user.BroadcasterType),
			created,
		})
	}

	return renderOutput(cmd.OutOrStdout(), users, userHeaders, rows)
}
