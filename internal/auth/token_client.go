package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/twitch-client/internal/http"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

// TokenValidator resolves a token to its TokenInfo.
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (*twitch.TokenInfo, error)
}

// TokenClient talks to the Twitch OAuth2 identity service.
type TokenClient struct {
	http *internalhttp.Client
}

// NewTokenClient creates a client for the identity service at authBaseURL.
func NewTokenClient(authBaseURL string, opts ...internalhttp.Option) *TokenClient {
	if authBaseURL == "" {
		authBaseURL = constants.AuthBaseURL
	}

	opts = append([]internalhttp.Option{internalhttp.WithTimeout(constants.ShortHTTPTimeout)}, opts...)

	return &TokenClient{
		http: internalhttp.NewClient(authBaseURL, nil, opts...),
	}
}

// AppAccessToken obtains an app access token with the client_credentials grant.
func (c *TokenClient) AppAccessToken(ctx context.Context, clientID, clientSecret string) (*twitch.AccessToken, error) {
	return c.requestToken(ctx, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	})
}

// RefreshAccessToken exchanges a refresh token for a new user access token.
func (c *TokenClient) RefreshAccessToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*twitch.AccessToken, error) {
	return c.requestToken(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"refresh_token": {refreshToken},
	})
}

// ValidateToken reports who a token belongs to and which scopes it carries.
func (c *TokenClient) ValidateToken(ctx context.Context, accessToken string) (*twitch.TokenInfo, error) {
	obtainedAt := time.Now()

	resp, err := c.http.Do(ctx, &internalhttp.Request{
		Method:  http.MethodGet,
		Path:    "validate",
		Headers: map[string]string{"Authorization": constants.OAuthPrefix + accessToken},
	})
	if err != nil {
		return nil, fmt.Errorf("validating access token: %w", err)
	}

	info := &twitch.TokenInfo{}

	err = internalhttp.DecodeJSON(resp, info)
	if err != nil {
		return nil, err
	}

	info.ObtainedAt = obtainedAt

	return info, nil
}

// RevokeToken invalidates a token.
func (c *TokenClient) RevokeToken(ctx context.Context, clientID, accessToken string) error {
	_, err := c.http.Do(ctx, &internalhttp.Request{
		Method: http.MethodPost,
		Path:   "revoke",
		Form: url.Values{
			"client_id": {clientID},
			"token":     {accessToken},
		},
	})
	if err != nil {
		return fmt.Errorf("revoking access token: %w", err)
	}

	return nil
}

func (c *TokenClient) requestToken(ctx context.Context, form url.Values) (*twitch.AccessToken, error) {
	obtainedAt := time.Now()

	resp, err := c.http.Do(ctx, &internalhttp.Request{
		Method: http.MethodPost,
		Path:   "token",
		Form:   form,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting %s token: %w", form.Get("grant_type"), err)
	}

	token := &twitch.AccessToken{}

	err = internalhttp.DecodeJSON(resp, token)
	if err != nil {
		return nil, err
	}

	token.ObtainedAt = obtainedAt

	return token, nil
}
