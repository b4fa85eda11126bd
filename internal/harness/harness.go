// Package harness runs the smoke test shared by cmd/smoketest and
// cmd/smoketest-credentials: read credentials from the environment, build a
// client, fetch the current user and print it.
package harness

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/fivetwenty-io/twitch-client/pkg/twitchclient"
)

// Library holds the client constructors the harness calls.
type Library struct {
	NewStaticAuthProvider func(clientID, accessToken string) twitch.AuthProvider
	NewWithAuthProvider   func(ctx context.Context, config *twitch.Config, provider twitch.AuthProvider) (twitch.Client, error)
	NewWithCredentials    func(ctx context.Context, clientID, accessToken string) (twitch.Client, error)
}

// DefaultLibrary returns the twitchclient constructors.
func DefaultLibrary() Library {
	return Library{
		NewStaticAuthProvider: func(clientID, accessToken string) twitch.AuthProvider {
			return twitchclient.NewStaticAuthProvider(clientID, accessToken)
		},
		NewWithAuthProvider: twitchclient.NewWithAuthProvider,
		NewWithCredentials:  twitchclient.NewWithCredentials,
	}
}

// Harness reads credentials through Getenv and writes results to Stdout.
type Harness struct {
	Getenv  func(key string) string
	Stdout  io.Writer
	Library Library
}

// New returns a harness reading the process environment.
func New(stdout io.Writer) *Harness {
	return &Harness{
		Getenv:  os.Getenv,
		Stdout:  stdout,
		Library: DefaultLibrary(),
	}
}

// RunStaticProvider builds a static auth provider, wraps it in a client and
// prints the current user.
func (h *Harness) RunStaticProvider(ctx context.Context) error {
	clientID, accessToken := h.credentials()

	provider := h.Library.NewStaticAuthProvider(clientID, accessToken)

	client, err := h.Library.NewWithAuthProvider(ctx, nil, provider)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	return h.printMe(ctx, client)
}

// RunWithCredentials builds a client straight from the credentials and
// prints the current user.
func (h *Harness) RunWithCredentials(ctx context.Context) error {
	clientID, accessToken := h.credentials()

	client, err := h.Library.NewWithCredentials(ctx, clientID, accessToken)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	return h.printMe(ctx, client)
}

func (h *Harness) credentials() (string, string) {
	clientID := h.Getenv(constants.EnvClientID)
	accessToken := h.Getenv(constants.EnvAccessToken)

	return clientID, accessToken
}

func (h *Harness) printMe(ctx context.Context, client twitch.Client) error {
	user, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("getting current user: %w", err)
	}

	_, err = fmt.Fprintf(h.Stdout, "%p\n", user)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	_, err = fmt.Fprintf(h.Stdout, "%s = %s\n", user.Login, user.ID)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}
