package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister defines the interface for persisting config changes.
type ConfigPersister interface {
	UpdateToken(clientID, token string, expiresAt time.Time, refreshToken string) error
}

// PersistingAuthProvider wraps a refreshable provider and writes every new
// token back through a ConfigPersister.
type PersistingAuthProvider struct {
	inner     twitch.RefreshableAuthProvider
	persister ConfigPersister
	logger    twitch.Logger

	mutex     sync.Mutex
	lastToken string
}

// NewPersistingAuthProvider creates a persisting wrapper around inner.
// initialToken is the token already on disk.
func NewPersistingAuthProvider(inner twitch.RefreshableAuthProvider, persister ConfigPersister, initialToken string, logger twitch.Logger) *PersistingAuthProvider {
	if logger == nil {
		logger = twitch.NoopLogger{}
	}

	return &PersistingAuthProvider{
		inner:     inner,
		persister: persister,
		logger:    logger,
		lastToken: initialToken,
	}
}

// ClientID returns the client ID.
func (p *PersistingAuthProvider) ClientID() string {
	return p.inner.ClientID()
}

// CurrentScopes returns the scopes of the wrapped provider.
func (p *PersistingAuthProvider) CurrentScopes() []string {
	return p.inner.CurrentScopes()
}

// AccessToken returns a token from the wrapped provider, persisting it when
// the wrapped provider renewed it.
func (p *PersistingAuthProvider) AccessToken(ctx context.Context, scopes ...string) (*twitch.AccessToken, error) {
	token, err := p.inner.AccessToken(ctx, scopes...)
	if err != nil {
		return nil, err
	}

	p.persistIfChanged(token)

	return token, nil
}

// Refresh forces a refresh and persists the result.
func (p *PersistingAuthProvider) Refresh(ctx context.Context) (*twitch.AccessToken, error) {
	token, err := p.inner.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	p.persistIfChanged(token)

	return token, nil
}

// RefreshIfCurrent renews a rejected token through the wrapped provider and
// persists the result once per distinct token.
func (p *PersistingAuthProvider) RefreshIfCurrent(ctx context.Context, rejected string) (*twitch.AccessToken, error) {
	token, err := p.inner.RefreshIfCurrent(ctx, rejected)
	if err != nil {
		return nil, err
	}

	p.persistIfChanged(token)

	return token, nil
}

// SetAccessToken manually sets the access token. It is not persisted.
func (p *PersistingAuthProvider) SetAccessToken(token *twitch.AccessToken) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.inner.SetAccessToken(token)

	if token != nil {
		p.lastToken = token.AccessToken
	}
}

func (p *PersistingAuthProvider) persistIfChanged(token *twitch.AccessToken) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if token == nil || token.AccessToken == p.lastToken {
		return
	}

	err := p.persistToken(token)
	if err != nil {
		// The request proceeds with the new token either way.
		p.logger.Warn("failed to persist refreshed token", map[string]interface{}{"error": err.Error()})

		return
	}

	p.lastToken = token.AccessToken
}

// persistToken saves the token to config.
func (p *PersistingAuthProvider) persistToken(token *twitch.AccessToken) error {
	if p.persister == nil {
		return ErrNoConfigPersister
	}

	err := p.persister.UpdateToken(p.inner.ClientID(), token.AccessToken, token.ExpiresAt(), token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}

	return nil
}
