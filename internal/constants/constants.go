package constants

import "time"

// Twitch endpoints.
const (
	// HelixBaseURL is the base URL for the Helix API.
	HelixBaseURL = "https://api.twitch.tv/helix"

	// KrakenBaseURL is the base URL for the legacy Kraken API.
	KrakenBaseURL = "https://api.twitch.tv/kraken"

	// AuthBaseURL is the base URL for the OAuth2 identity service.
	AuthBaseURL = "https://id.twitch.tv/oauth2"
)

// Environment variables read by the smoke tests.
const (
	// EnvClientID holds the application client ID.
	EnvClientID = "TWITCH_CLIENT_ID"

	// EnvAccessToken holds a user or app access token.
	EnvAccessToken = "TWITCH_ACCESS_TOKEN"

	// EnvPrefix is the viper prefix for CLI settings.
	EnvPrefix = "TWITCH"
)

// CLI config file modes. The file holds tokens and secrets.
const (
	ConfigDirPerm  = 0750
	ConfigFilePerm = 0600
)

// Timeouts.
const (
	// DefaultHTTPTimeout bounds a single Helix call, retries excluded.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout bounds id.twitch.tv calls and NATS setup.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 1 * time.Second
	DefaultRetryWaitMax = 10 * time.Second
)

// Helix limits.
const (
	// MaxUsersPerRequest is the maximum number of login or id params per users request.
	MaxUsersPerRequest = 100

	// DefaultRateLimit is the client-side request rate (requests per second).
	// Helix grants 800 points per minute to a typical client.
	DefaultRateLimit = 13

	// DefaultRateBurst is the client-side burst size.
	DefaultRateBurst = 20
)

// Caching.
const (
	// DefaultCacheSize is the entry limit of a MemoryCache built without a size.
	DefaultCacheSize = 1000

	DefaultCacheTTL = 5 * time.Minute

	// UsersCacheTTL applies to users looked up by login or id.
	UsersCacheTTL = 10 * time.Minute

	// MaxCacheValueSize caps a single cached payload in bytes.
	MaxCacheValueSize = 1 << 20
)

// Circuit breaker defaults: open after 5 failures, allow trial calls after
// 30s, close after 2 successful trials.
const (
	CircuitBreakerThreshold        = 5
	CircuitBreakerTimeout          = 30 * time.Second
	CircuitBreakerSuccessThreshold = 2
)

// Token constants.
const (
	// TokenExpirationBuffer is subtracted from expiry when deciding to refresh.
	TokenExpirationBuffer = 30 * time.Second

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "

	// OAuthPrefix precedes the access token in validate requests.
	OAuthPrefix = "OAuth "
)

// CLI output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"

	JSONIndentSize = 2
)

// Placeholders in CLI tables.
const (
	NotAvailable = "N/A"
	None         = "none"

	// MaskedSecret replaces everything after the first SecretVisiblePrefix
	// characters of a secret.
	MaskedSecret        = "***"
	SecretVisiblePrefix = 4
)
