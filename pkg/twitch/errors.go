package twitch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError represents a non-2xx response from Helix or the identity service.
type APIError struct {
	StatusCode int    `json:"status"  yaml:"status"`
	ErrorText  string `json:"error"   yaml:"error"`
	Message    string `json:"message" yaml:"message"`
	URL        string `json:"-"       yaml:"url"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}

	return msg
}

// ScopeError is returned when a token lacks scopes and cannot be upgraded.
// Scopes holds every requested scope, Missing the ones the token lacks.
type ScopeError struct {
	Scopes  []string
	Missing []string
}

// Error implements the error interface.
func (e *ScopeError) Error() string {
	return fmt.Sprintf("This token does not have the requested scopes (%s) and can not be upgraded",
		strings.Join(e.Scopes, ", "))
}

// Common static errors that can be wrapped with context.
var (
	ErrCallURLRequired         = errors.New("no URL given")
	ErrCallBodyRequired        = errors.New("no body given")
	ErrProviderNotInitialized  = errors.New("auth provider has not been initialized with a token yet and is requesting scopes")
	ErrClientCredentialsScopes = errors.New("the client credentials flow does not support scopes")
	ErrUserNotFound            = errors.New("user not found")
	ErrConfigRequired          = errors.New("config is required")
	ErrAuthProviderRequired    = errors.New("auth provider is required")
	ErrClientIDRequired        = errors.New("client ID is required")
	ErrClientSecretRequired    = errors.New("client secret is required")
	ErrRefreshTokenRequired    = errors.New("refresh token is required")
	ErrCircuitBreakerOpen      = errors.New("circuit breaker is open")
	ErrInvalidCacheType        = errors.New("invalid cache type")
	ErrNATSURLRequired         = errors.New("NATS URL is required for NATS cache")
	ErrCacheKeyNotFound        = errors.New("key not found")
	ErrCacheEntryExpired       = errors.New("entry expired")
)

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrUserNotFound) {
		return true
	}

	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsRateLimited checks if the error is a 429 response.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

func hasStatus(err error, status int) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}

	return false
}

// ParseAPIError builds an APIError from a response body. Bodies that are not
// Twitch error JSON are kept verbatim in Message.
func ParseAPIError(url string, statusCode int, data []byte) *APIError {
	apiErr := &APIError{}

	err := json.Unmarshal(data, apiErr)
	if err != nil || (apiErr.Message == "" && apiErr.ErrorText == "") {
		apiErr.Message = strings.TrimSpace(string(data))
	}

	apiErr.StatusCode = statusCode
	apiErr.URL = url

	return apiErr
}
