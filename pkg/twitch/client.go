package twitch

import (
	"context"
	"time"
)

// UsersClient provides access to the Helix users endpoints.
type UsersClient interface {
	// GetMe returns the user that owns the current access token.
	GetMe(ctx context.Context) (*User, error)
	// GetByLogin returns the user with the given login, or nil if none exists.
	GetByLogin(ctx context.Context, login string) (*User, error)
	// GetByID returns the user with the given id, or nil if none exists.
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByLogins resolves several logins, batching requests as needed.
	GetByLogins(ctx context.Context, logins ...string) ([]User, error)
}

// TokenClient provides access to the OAuth2 identity endpoints.
type TokenClient interface {
	ValidateToken(ctx context.Context) (*TokenInfo, error)
}

// Client is the handle returned by the twitchclient constructors.
type Client interface {
	TokenClient

	Users() UsersClient
	AuthProvider() AuthProvider

	// GetMe is a shortcut for Users().GetMe.
	GetMe(ctx context.Context) (*User, error)
	// GetUserByLogin is a shortcut for Users().GetByLogin.
	GetUserByLogin(ctx context.Context, login string) (*User, error)

	// Close releases cache connections held by the client.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a twitch.Client.
//
// # Authentication precedence
//
// When no AuthProvider is passed to the constructor explicitly, the concrete
// client (see pkg/twitchclient and internal/client) picks one:
//  1. AccessToken + ClientSecret + RefreshToken: a refresh-token provider that
//     renews the user token when it expires or a request fails with 401.
//  2. AccessToken: used directly as a static Bearer token.
//  3. ClientID/ClientSecret: the OAuth2 client_credentials grant (app token).
//  4. ClientID only: requests carry Client-ID and an empty Bearer token.
//
// # Timeouts and retries
//
// Per-request timeouts should generally be controlled via the context passed
// to client methods. Retry behavior can be tuned via RetryMax/RetryWaitMin/
// RetryWaitMax. RateLimit throttles requests on the client side before Helix
// starts answering with 429.
type Config struct {
	// ClientID: application client ID sent as the Client-ID header.
	ClientID string
	// ClientSecret: application secret for the client_credentials and
	// refresh_token grants.
	ClientSecret string
	// AccessToken: user or app access token.
	AccessToken string
	// RefreshToken: refresh token paired with a user AccessToken.
	RefreshToken string
	// Scopes: scopes the AccessToken is known to carry. When empty they are
	// discovered through the validate endpoint the first time a scope is needed.
	Scopes []string

	// Endpoints overrides the Helix, Kraken and auth base URLs. Zero values
	// fall back to DefaultEndpoints.
	Endpoints Endpoints

	// HTTPTimeout: default HTTP timeout for a single attempt.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient failures (>=500, 429,
	// and connection errors). If 0, a sensible default is used by the client.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// RateLimit: client-side requests per second; 0 disables limiting.
	RateLimit float64
	// RateBurst: burst size for RateLimit.
	RateBurst int

	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// Interceptors run around every Helix request.
	Interceptors *InterceptorChain

	// Cache: optional cache for user lookups. Nil disables caching.
	Cache *CacheConfig
}
