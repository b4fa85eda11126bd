package auth

import (
	"slices"
	"sync"
	"time"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

// TokenStore holds the current access token.
type TokenStore struct {
	mu    sync.RWMutex
	token *twitch.AccessToken
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns a copy of the stored token, or nil.
func (s *TokenStore) Get() *twitch.AccessToken {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil
	}

	token := *s.token
	token.Scopes = slices.Clone(s.token.Scopes)

	return &token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *twitch.AccessToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}

// Usable reports whether token has a value and is not about to expire.
func Usable(token *twitch.AccessToken) bool {
	if token.IsEmpty() {
		return false
	}

	expiresAt := token.ExpiresAt()
	if expiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.TokenExpirationBuffer).Before(expiresAt)
}

// replaced reports, for a token found under the refresh lock, whether a
// concurrent caller already swapped out rejected for a usable token.
func replaced(rejected string) func(*twitch.AccessToken) bool {
	return func(current *twitch.AccessToken) bool {
		return Usable(current) && current.AccessToken != rejected
	}
}
