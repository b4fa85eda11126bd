package twitch

import (
	"context"
	"slices"
	"time"
)

// AccessToken is an OAuth2 token as issued by the Twitch identity service.
type AccessToken struct {
	AccessToken  string    `json:"access_token"            yaml:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"    yaml:"expires_in,omitempty"`
	Scopes       []string  `json:"scope,omitempty"         yaml:"scope,omitempty"`
	TokenType    string    `json:"token_type,omitempty"    yaml:"token_type,omitempty"`
	ObtainedAt   time.Time `json:"-"                       yaml:"obtained_at"`
}

// NewAccessToken wraps an existing token string.
func NewAccessToken(value string, scopes ...string) *AccessToken {
	return &AccessToken{
		AccessToken: value,
		Scopes:      scopes,
		TokenType:   "bearer",
		ObtainedAt:  time.Now(),
	}
}

// EmptyAccessToken returns a token with no value. Requests made with it carry
// only the Client-ID header's authority.
func EmptyAccessToken() *AccessToken {
	return &AccessToken{ObtainedAt: time.Now()}
}

// IsExpired reports whether more than ExpiresIn seconds have passed since the
// token was obtained. Tokens without an expiry never expire.
func (t *AccessToken) IsExpired() bool {
	if t == nil {
		return true
	}

	if t.ExpiresIn <= 0 {
		return false
	}

	return time.Since(t.ObtainedAt) > time.Duration(t.ExpiresIn)*time.Second
}

// ExpiresAt returns the expiry time, or the zero time when the token has no expiry.
func (t *AccessToken) ExpiresAt() time.Time {
	if t == nil || t.ExpiresIn <= 0 {
		return time.Time{}
	}

	return t.ObtainedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// IsEmpty reports whether the token carries no value.
func (t *AccessToken) IsEmpty() bool {
	return t == nil || t.AccessToken == ""
}

// HasScopes reports whether the token carries every requested scope.
func (t *AccessToken) HasScopes(requested ...string) bool {
	return len(t.MissingScopes(requested...)) == 0
}

// MissingScopes returns the requested scopes the token does not carry.
func (t *AccessToken) MissingScopes(requested ...string) []string {
	var have []string
	if t != nil {
		have = t.Scopes
	}

	return MissingScopes(have, requested)
}

// MissingScopes returns the entries of requested not present in have.
func MissingScopes(have, requested []string) []string {
	var missing []string

	for _, scope := range requested {
		if !slices.Contains(have, scope) {
			missing = append(missing, scope)
		}
	}

	return missing
}

// AuthProvider supplies the client ID and access token for requests.
type AuthProvider interface {
	// ClientID returns the application client ID.
	ClientID() string
	// CurrentScopes returns the scopes the current token is known to carry.
	CurrentScopes() []string
	// AccessToken returns a token carrying at least the requested scopes.
	AccessToken(ctx context.Context, scopes ...string) (*AccessToken, error)
	// SetAccessToken replaces the current token.
	SetAccessToken(token *AccessToken)
}

// RefreshableAuthProvider can obtain a new token on demand.
type RefreshableAuthProvider interface {
	AuthProvider

	Refresh(ctx context.Context) (*AccessToken, error)

	// RefreshIfCurrent renews the token only while rejected is still the
	// current access token. Callers that lost the race get the token stored
	// by the winner, so concurrent 401s on one token cost a single grant.
	RefreshIfCurrent(ctx context.Context, rejected string) (*AccessToken, error)
}
