package auth

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

// RefreshTokenSource exchanges refresh tokens.
type RefreshTokenSource interface {
	RefreshAccessToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*twitch.AccessToken, error)
}

// RefreshTokenAuthProvider serves a user token and renews it with its refresh
// token when it expires or the API rejects it.
type RefreshTokenAuthProvider struct {
	clientID     string
	clientSecret string
	source       RefreshTokenSource
	store        *TokenStore

	refreshMu sync.Mutex
}

// NewRefreshTokenAuthProvider creates a provider seeded with token, which must
// carry a refresh token.
func NewRefreshTokenAuthProvider(clientID, clientSecret string, token *twitch.AccessToken, source RefreshTokenSource) (*RefreshTokenAuthProvider, error) {
	if clientSecret == "" {
		return nil, twitch.ErrClientSecretRequired
	}

	if token == nil || token.RefreshToken == "" {
		return nil, twitch.ErrRefreshTokenRequired
	}

	if source == nil {
		source = NewTokenClient("")
	}

	store := NewTokenStore()
	store.Set(token)

	return &RefreshTokenAuthProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		source:       source,
		store:        store,
	}, nil
}

// ClientID returns the client ID.
func (p *RefreshTokenAuthProvider) ClientID() string {
	return p.clientID
}

// CurrentScopes returns the scopes of the current token.
func (p *RefreshTokenAuthProvider) CurrentScopes() []string {
	token := p.store.Get()
	if token == nil {
		return nil
	}

	return token.Scopes
}

// AccessToken returns the current token, refreshing it when expired. Scopes
// are checked against the token when it records any; refreshing cannot add
// scopes.
func (p *RefreshTokenAuthProvider) AccessToken(ctx context.Context, scopes ...string) (*twitch.AccessToken, error) {
	token := p.store.Get()

	if !Usable(token) {
		var err error

		token, err = p.refresh(ctx, Usable)
		if err != nil {
			return nil, err
		}
	}

	if len(token.Scopes) == 0 {
		return token, nil
	}

	missing := token.MissingScopes(scopes...)
	if len(missing) > 0 {
		return nil, &twitch.ScopeError{Scopes: scopes, Missing: missing}
	}

	return token, nil
}

// Refresh exchanges the refresh token for a new access token.
func (p *RefreshTokenAuthProvider) Refresh(ctx context.Context) (*twitch.AccessToken, error) {
	return p.refresh(ctx, nil)
}

// RefreshIfCurrent exchanges the refresh token unless rejected was already replaced.
func (p *RefreshTokenAuthProvider) RefreshIfCurrent(ctx context.Context, rejected string) (*twitch.AccessToken, error) {
	return p.refresh(ctx, replaced(rejected))
}

// SetAccessToken replaces the current token.
func (p *RefreshTokenAuthProvider) SetAccessToken(token *twitch.AccessToken) {
	p.store.Set(token)
}

func (p *RefreshTokenAuthProvider) refresh(ctx context.Context, keep func(*twitch.AccessToken) bool) (*twitch.AccessToken, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	current := p.store.Get()
	if keep != nil && keep(current) {
		return current, nil
	}

	if current == nil || current.RefreshToken == "" {
		return nil, twitch.ErrRefreshTokenRequired
	}

	token, err := p.source.RefreshAccessToken(ctx, p.clientID, p.clientSecret, current.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refreshing user token: %w", err)
	}

	if token.RefreshToken == "" {
		token.RefreshToken = current.RefreshToken
	}

	if len(token.Scopes) == 0 {
		token.Scopes = slices.Clone(current.Scopes)
	}

	p.store.Set(token)

	return token, nil
}
