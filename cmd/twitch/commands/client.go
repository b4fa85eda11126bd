package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fivetwenty-io/twitch-client/internal/auth"
	"github.com/fivetwenty-io/twitch-client/internal/client"
	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/spf13/viper"
)

const natsCacheBucket = "twitch_users"

func newLogger() *twitch.SlogLogger {
	level := "warn"
	if viper.GetBool("verbose") {
		level = "debug"
	}

	return twitch.NewSlogLogger(twitch.LogConfig{
		Service: "twitch",
		Level:   level,
		Output:  os.Stderr,
	})
}

func endpoints(config *Config) twitch.Endpoints {
	return twitch.Endpoints{
		Helix: config.HelixURL,
		Auth:  config.AuthURL,
	}.WithDefaults()
}

func newTokenClient(config *Config) *auth.TokenClient {
	return auth.NewTokenClient(endpoints(config).Auth)
}

func cacheConfig(config *Config) (*twitch.CacheConfig, error) {
	if config.Cache == "" {
		return nil, nil //nolint:nilnil // caching is off unless configured
	}

	cacheType, err := twitch.ParseCacheType(config.Cache)
	if err != nil {
		return nil, err
	}

	builder := twitch.NewCacheBuilder().WithType(cacheType).WithTTL(constants.UsersCacheTTL)

	switch cacheType {
	case twitch.CacheTypeMemory:
		builder.WithMemoryConfig(constants.DefaultCacheSize)
	case twitch.CacheTypeNATS:
		builder.WithNATSConfig(&twitch.NATSKVConfig{
			URL:    config.NATSURL,
			Bucket: natsCacheBucket,
			TTL:    constants.UsersCacheTTL,
		})
	case twitch.CacheTypeNone:
	}

	return builder.Config(), nil
}

func clientConfig(config *Config, logger twitch.Logger) (*twitch.Config, error) {
	cache, err := cacheConfig(config)
	if err != nil {
		return nil, err
	}

	verbose := viper.GetBool("verbose")

	interceptors := twitch.NewInterceptorChain()

	if verbose {
		metrics := twitch.NewMetricsCollector()
		metrics.SetOnChange(func(endpoint string, m twitch.Metrics) {
			logger.Debug("Request metrics", map[string]interface{}{
				"endpoint": endpoint,
				"requests": m.TotalRequests,
				"errors":   m.TotalErrors,
				"latency":  m.AverageLatency.String(),
			})
		})

		interceptors.AddRequestInterceptor(twitch.LoggingInterceptor(logger))
		interceptors.AddRequestInterceptor(twitch.MetricsRequestInterceptor(metrics))
		interceptors.AddResponseInterceptor(twitch.LoggingResponseInterceptor(logger))
		interceptors.AddResponseInterceptor(twitch.MetricsResponseInterceptor(metrics))
	}

	return &twitch.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
		Scopes:       config.Scopes,
		Endpoints:    endpoints(config),
		RetryMax:     constants.DefaultRetryMax,
		RateLimit:    constants.DefaultRateLimit,
		RateBurst:    constants.DefaultRateBurst,
		Debug:        verbose,
		Logger:       logger,
		UserAgent:    "twitch-cli",
		Interceptors: interceptors,
		Cache:        cache,
	}, nil
}

// storedToken rebuilds the access token saved in config, keeping its expiry.
func storedToken(config *Config) *twitch.AccessToken {
	token := twitch.NewAccessToken(config.AccessToken, config.Scopes...)
	token.RefreshToken = config.RefreshToken

	if config.TokenExpiresAt != nil {
		token.ExpiresIn = 1
		token.ObtainedAt = config.TokenExpiresAt.Add(-time.Second)
	}

	return token
}

// newTwitchClient builds a client from the stored configuration. Tokens that
// can be refreshed are written back to the config file whenever they change.
func newTwitchClient(ctx context.Context) (*client.Client, error) {
	config := loadConfig()
	if config.ClientID == "" {
		return nil, constants.ErrNoClientID
	}

	logger := newLogger()

	twitchConfig, err := clientConfig(config, logger)
	if err != nil {
		return nil, err
	}

	if config.AccessToken == "" || config.RefreshToken == "" || config.ClientSecret == "" {
		twitchClient, err := client.New(ctx, twitchConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}

		return twitchClient, nil
	}

	inner, err := auth.NewRefreshTokenAuthProvider(config.ClientID, config.ClientSecret, storedToken(config), newTokenClient(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	provider := auth.NewPersistingAuthProvider(inner, NewConfigPersister(), config.AccessToken, logger)

	twitchClient, err := client.NewWithAuthProvider(ctx, twitchConfig, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create client with token manager: %w", err)
	}

	return twitchClient, nil
}
