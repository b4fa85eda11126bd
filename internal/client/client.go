package client

import (
	"context"
	"fmt"
	"io"

	"github.com/fivetwenty-io/twitch-client/internal/auth"
	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/fivetwenty-io/twitch-client/internal/http"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

// Client implements the twitch.Client interface.
type Client struct {
	httpClient  *http.Client
	tokenClient *auth.TokenClient
	provider    twitch.AuthProvider
	logger      twitch.Logger
	cache       twitch.Cache

	users *UsersClient
}

// createAuthProvider creates the appropriate auth provider based on config.
func createAuthProvider(config *twitch.Config, tokenClient *auth.TokenClient) (twitch.AuthProvider, error) {
	if config.AccessToken != "" && config.ClientSecret != "" && config.RefreshToken != "" {
		token := twitch.NewAccessToken(config.AccessToken, config.Scopes...)
		token.RefreshToken = config.RefreshToken

		return auth.NewRefreshTokenAuthProvider(config.ClientID, config.ClientSecret, token, tokenClient)
	}

	if config.AccessToken != "" {
		return newStaticProvider(config, tokenClient), nil
	}

	if config.ClientID != "" && config.ClientSecret != "" {
		return auth.NewClientCredentialsAuthProvider(config.ClientID, config.ClientSecret, tokenClient), nil
	}

	return newStaticProvider(config, tokenClient), nil
}

func newStaticProvider(config *twitch.Config, tokenClient *auth.TokenClient) *auth.StaticAuthProvider {
	opts := []auth.StaticOption{auth.WithTokenValidator(tokenClient)}
	if len(config.Scopes) > 0 {
		opts = append(opts, auth.WithScopes(config.Scopes...))
	}

	return auth.NewStaticAuthProvider(config.ClientID, config.AccessToken, opts...)
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *twitch.Config) []http.Option {
	httpOpts := []http.Option{http.WithEndpoints(config.Endpoints)}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(config.RateLimit, config.RateBurst))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	return httpOpts
}

func newTokenClient(config *twitch.Config) *auth.TokenClient {
	var opts []http.Option

	if config.Logger != nil {
		opts = append(opts, http.WithLogger(config.Logger), http.WithDebug(config.Debug))
	}

	if config.UserAgent != "" {
		opts = append(opts, http.WithUserAgent(config.UserAgent))
	}

	return auth.NewTokenClient(config.Endpoints.WithDefaults().Auth, opts...)
}

// New creates a client, choosing an auth provider from the credentials in config.
func New(ctx context.Context, config *twitch.Config) (*Client, error) {
	if config == nil {
		return nil, twitch.ErrConfigRequired
	}

	tokenClient := newTokenClient(config)

	provider, err := createAuthProvider(config, tokenClient)
	if err != nil {
		return nil, fmt.Errorf("creating auth provider: %w", err)
	}

	return newClient(ctx, config, provider, tokenClient)
}

// NewWithAuthProvider creates a client that authenticates through provider.
func NewWithAuthProvider(ctx context.Context, config *twitch.Config, provider twitch.AuthProvider) (*Client, error) {
	if provider == nil {
		return nil, twitch.ErrAuthProviderRequired
	}

	if config == nil {
		config = &twitch.Config{}
	}

	return newClient(ctx, config, provider, newTokenClient(config))
}

func newClient(ctx context.Context, config *twitch.Config, provider twitch.AuthProvider, tokenClient *auth.TokenClient) (*Client, error) {
	logger := config.Logger
	if logger == nil {
		logger = twitch.NoopLogger{}
	}

	endpoints := config.Endpoints.WithDefaults()
	httpClient := http.NewClient(endpoints.Helix, provider, createHTTPClientOptions(config)...)

	client := &Client{
		httpClient:  httpClient,
		tokenClient: tokenClient,
		provider:    provider,
		logger:      logger,
	}

	if config.Cache == nil || config.Cache.Type == twitch.CacheTypeNone {
		client.users = NewUsersClient(httpClient)

		return client, nil
	}

	cache, err := twitch.NewCacheFromConfig(ctx, config.Cache)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	options := config.Cache.Options
	if options == nil {
		options = twitch.DefaultCacheOptions()
	}

	ttl := options.TTL
	if ttl == 0 {
		ttl = constants.UsersCacheTTL
	}

	client.cache = cache
	client.users = NewUsersClientWithCache(httpClient, twitch.NewCacheManager(cache, options), ttl)

	logger.Debug("User cache enabled", map[string]interface{}{
		"type": string(config.Cache.Type),
		"ttl":  ttl.String(),
	})

	return client, nil
}

// Users implements twitch.Client.Users.
func (c *Client) Users() twitch.UsersClient {
	return c.users
}

// AuthProvider implements twitch.Client.AuthProvider.
func (c *Client) AuthProvider() twitch.AuthProvider {
	return c.provider
}

// GetMe implements twitch.Client.GetMe.
func (c *Client) GetMe(ctx context.Context) (*twitch.User, error) {
	return c.users.GetMe(ctx)
}

// GetUserByLogin implements twitch.Client.GetUserByLogin.
func (c *Client) GetUserByLogin(ctx context.Context, login string) (*twitch.User, error) {
	return c.users.GetByLogin(ctx, login)
}

// ValidateToken implements twitch.TokenClient.ValidateToken for the provider's current token.
func (c *Client) ValidateToken(ctx context.Context) (*twitch.TokenInfo, error) {
	token, err := c.provider.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting access token: %w", err)
	}

	return c.tokenClient.ValidateToken(ctx, token.AccessToken)
}

// Call executes an arbitrary APICall and returns the raw response body.
func (c *Client) Call(ctx context.Context, call *twitch.APICall) ([]byte, error) {
	resp, err := c.httpClient.Call(ctx, call)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// TokenClient returns the identity service client.
func (c *Client) TokenClient() *auth.TokenClient {
	return c.tokenClient
}

// Close implements twitch.Client.Close.
func (c *Client) Close() error {
	closer, ok := c.cache.(io.Closer)
	if !ok {
		return nil
	}

	err := closer.Close()
	if err != nil {
		return fmt.Errorf("closing cache: %w", err)
	}

	return nil
}
