package auth

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

// StaticAuthProvider serves a token obtained elsewhere. It never refreshes.
type StaticAuthProvider struct {
	clientID  string
	validator TokenValidator

	mu          sync.Mutex
	token       *twitch.AccessToken
	scopes      []string
	scopesKnown bool
}

// StaticOption configures a StaticAuthProvider.
type StaticOption func(*StaticAuthProvider)

// WithScopes declares the scopes the token carries, skipping validation.
func WithScopes(scopes ...string) StaticOption {
	return func(p *StaticAuthProvider) {
		p.scopes = slices.Clone(scopes)
		p.scopesKnown = true
	}
}

// WithTokenValidator sets the validator used to discover scopes.
func WithTokenValidator(validator TokenValidator) StaticOption {
	return func(p *StaticAuthProvider) {
		p.validator = validator
	}
}

// NewStaticAuthProvider creates a provider for clientID. An empty accessToken
// leaves the provider uninitialized.
func NewStaticAuthProvider(clientID, accessToken string, opts ...StaticOption) *StaticAuthProvider {
	provider := &StaticAuthProvider{clientID: clientID}

	if accessToken != "" {
		provider.token = twitch.NewAccessToken(accessToken)
	}

	for _, opt := range opts {
		opt(provider)
	}

	if provider.validator == nil {
		provider.validator = NewTokenClient("")
	}

	if provider.token != nil && provider.scopesKnown {
		provider.token.Scopes = slices.Clone(provider.scopes)
	}

	return provider
}

// ClientID returns the client ID.
func (p *StaticAuthProvider) ClientID() string {
	return p.clientID
}

// CurrentScopes returns the known scopes; nil until they are declared or discovered.
func (p *StaticAuthProvider) CurrentScopes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.scopes)
}

// AccessToken returns the token. Requested scopes are checked against the
// known scopes, validating the token once to learn them if necessary.
func (p *StaticAuthProvider) AccessToken(ctx context.Context, scopes ...string) (*twitch.AccessToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == nil {
		if len(scopes) > 0 {
			return nil, twitch.ErrProviderNotInitialized
		}

		return twitch.EmptyAccessToken(), nil
	}

	if len(scopes) == 0 {
		return p.token, nil
	}

	if !p.scopesKnown {
		info, err := p.validator.ValidateToken(ctx, p.token.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("discovering token scopes: %w", err)
		}

		p.scopes = info.Scopes
		p.scopesKnown = true
		p.token.Scopes = slices.Clone(info.Scopes)
	}

	missing := twitch.MissingScopes(p.scopes, scopes)
	if len(missing) > 0 {
		return nil, &twitch.ScopeError{Scopes: scopes, Missing: missing}
	}

	return p.token, nil
}

// SetAccessToken replaces the token; its scopes become the known scopes.
func (p *StaticAuthProvider) SetAccessToken(token *twitch.AccessToken) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = token
	p.scopes = nil
	p.scopesKnown = false

	if token != nil && len(token.Scopes) > 0 {
		p.scopes = slices.Clone(token.Scopes)
		p.scopesKnown = true
	}
}
