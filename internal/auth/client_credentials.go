package auth

import (
	"context"
	"sync"

	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

// AppTokenSource issues app access tokens.
type AppTokenSource interface {
	AppAccessToken(ctx context.Context, clientID, clientSecret string) (*twitch.AccessToken, error)
}

// ClientCredentialsAuthProvider obtains app access tokens with the
// client_credentials grant and renews them when they expire.
type ClientCredentialsAuthProvider struct {
	clientID     string
	clientSecret string
	source       AppTokenSource
	store        *TokenStore

	refreshMu sync.Mutex
}

// NewClientCredentialsAuthProvider creates a provider. A nil source uses the
// production identity service.
func NewClientCredentialsAuthProvider(clientID, clientSecret string, source AppTokenSource) *ClientCredentialsAuthProvider {
	if source == nil {
		source = NewTokenClient("")
	}

	return &ClientCredentialsAuthProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		source:       source,
		store:        NewTokenStore(),
	}
}

// ClientID returns the client ID.
func (p *ClientCredentialsAuthProvider) ClientID() string {
	return p.clientID
}

// CurrentScopes is always empty; app tokens carry no scopes.
func (p *ClientCredentialsAuthProvider) CurrentScopes() []string {
	return nil
}

// AccessToken returns the current app token, fetching a new one when it is
// absent or expired. App tokens cannot carry scopes.
func (p *ClientCredentialsAuthProvider) AccessToken(ctx context.Context, scopes ...string) (*twitch.AccessToken, error) {
	if len(scopes) > 0 {
		return nil, twitch.ErrClientCredentialsScopes
	}

	token := p.store.Get()
	if Usable(token) {
		return token, nil
	}

	return p.refresh(ctx, Usable)
}

// Refresh unconditionally fetches a new app token.
func (p *ClientCredentialsAuthProvider) Refresh(ctx context.Context) (*twitch.AccessToken, error) {
	return p.refresh(ctx, nil)
}

// RefreshIfCurrent fetches a new app token unless rejected was already replaced.
func (p *ClientCredentialsAuthProvider) RefreshIfCurrent(ctx context.Context, rejected string) (*twitch.AccessToken, error) {
	return p.refresh(ctx, replaced(rejected))
}

// SetAccessToken replaces the current token.
func (p *ClientCredentialsAuthProvider) SetAccessToken(token *twitch.AccessToken) {
	p.store.Set(token)
}

// refresh fetches a token. When keep approves the token found under the
// lock, that token is returned and no grant is made.
func (p *ClientCredentialsAuthProvider) refresh(ctx context.Context, keep func(*twitch.AccessToken) bool) (*twitch.AccessToken, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	if current := p.store.Get(); keep != nil && keep(current) {
		return current, nil
	}

	token, err := p.source.AppAccessToken(ctx, p.clientID, p.clientSecret)
	if err != nil {
		return nil, err
	}

	p.store.Set(token)

	return token, nil
}
