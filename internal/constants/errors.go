package constants

import "errors"

// Configuration errors.
var (
	ErrNoClientID         = errors.New("no client ID configured, use 'twitch login' or set TWITCH_CLIENT_ID")
	ErrNoAccessToken      = errors.New("no access token configured, use 'twitch login' or set TWITCH_ACCESS_TOKEN")
	ErrNoClientSecret     = errors.New("no client secret configured, use 'twitch config set client_secret <secret>'")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrInvalidOutput      = errors.New("invalid output format")
	ErrUserNotFoundByName = errors.New("user not found")
	ErrClientIDMismatch   = errors.New("token was issued to a different client ID")
	ErrInvalidConfig      = errors.New("invalid configuration")
)
