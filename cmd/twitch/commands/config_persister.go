package commands

import (
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateToken stores a renewed token for clientID in the config file.
func (p *ConfigPersister) UpdateToken(clientID, token string, expiresAt time.Time, refreshToken string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config, err := loadStoredConfig()
	if err != nil {
		return err
	}

	if config.ClientID != "" && config.ClientID != clientID {
		return fmt.Errorf("client '%s': %w", clientID, constants.ErrClientIDMismatch)
	}

	config.ClientID = clientID
	config.AccessToken = token

	config.TokenExpiresAt = nil
	if !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	if refreshToken != "" {
		config.RefreshToken = refreshToken
	}

	now := time.Now()
	config.LastRefreshed = &now

	return saveConfigStruct(config)
}
