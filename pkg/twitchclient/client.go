package twitchclient

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/twitch-client/internal/auth"
	"github.com/fivetwenty-io/twitch-client/internal/client"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

// New creates a Twitch API client. The auth provider is chosen from the
// credentials present in config; see twitch.Config.
func New(ctx context.Context, config *twitch.Config) (twitch.Client, error) {
	if config == nil {
		return nil, twitch.ErrConfigRequired
	}

	client, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// NewWithAuthProvider creates a client that authenticates every request
// through provider. A nil config uses defaults.
func NewWithAuthProvider(ctx context.Context, config *twitch.Config, provider twitch.AuthProvider) (twitch.Client, error) {
	client, err := client.NewWithAuthProvider(ctx, config, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// NewWithCredentials creates a client using a static access token.
func NewWithCredentials(ctx context.Context, clientID, accessToken string) (twitch.Client, error) {
	return New(ctx, &twitch.Config{
		ClientID:    clientID,
		AccessToken: accessToken,
	})
}

// NewWithClientID creates a client that sends only the Client-ID header.
func NewWithClientID(ctx context.Context, clientID string) (twitch.Client, error) {
	return New(ctx, &twitch.Config{ClientID: clientID})
}

// NewWithClientCredentials creates a client that obtains app access tokens
// with the client_credentials grant.
func NewWithClientCredentials(ctx context.Context, clientID, clientSecret string) (twitch.Client, error) {
	if clientID == "" {
		return nil, twitch.ErrClientIDRequired
	}

	if clientSecret == "" {
		return nil, twitch.ErrClientSecretRequired
	}

	return New(ctx, &twitch.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NewStaticAuthProvider creates a provider serving accessToken for clientID.
// Scopes, when given, are trusted instead of being looked up.
func NewStaticAuthProvider(clientID, accessToken string, scopes ...string) twitch.AuthProvider {
	var opts []auth.StaticOption
	if len(scopes) > 0 {
		opts = append(opts, auth.WithScopes(scopes...))
	}

	return auth.NewStaticAuthProvider(clientID, accessToken, opts...)
}

// NewClientCredentialsAuthProvider creates a provider that obtains app access
// tokens from the identity service at authBaseURL (empty for production).
func NewClientCredentialsAuthProvider(clientID, clientSecret, authBaseURL string) twitch.RefreshableAuthProvider {
	return auth.NewClientCredentialsAuthProvider(clientID, clientSecret, auth.NewTokenClient(authBaseURL))
}

// NewRefreshTokenAuthProvider creates a provider for a user token that is
// renewed with its refresh token.
func NewRefreshTokenAuthProvider(clientID, clientSecret string, token *twitch.AccessToken, authBaseURL string) (twitch.RefreshableAuthProvider, error) {
	provider, err := auth.NewRefreshTokenAuthProvider(clientID, clientSecret, token, auth.NewTokenClient(authBaseURL))
	if err != nil {
		return nil, fmt.Errorf("creating refresh token provider: %w", err)
	}

	return provider, nil
}
