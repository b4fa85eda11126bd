package auth_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/twitch-client/internal/auth"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSourceFailed = errors.New("source failed")

type stubValidator struct {
	calls atomic.Int32
	info  *twitch.TokenInfo
	err   error
}

func (s *stubValidator) ValidateToken(ctx context.Context, accessToken string) (*twitch.TokenInfo, error) {
	s.calls.Add(1)

	return s.info, s.err
}

type stubTokenSource struct {
	calls atomic.Int32
	token func(n int32) *twitch.AccessToken
	err   error

	mu           sync.Mutex
	refreshToken string
}

func (s *stubTokenSource) AppAccessToken(ctx context.Context, clientID, clientSecret string) (*twitch.AccessToken, error) {
	n := s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}

	return s.token(n), nil
}

func (s *stubTokenSource) RefreshAccessToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*twitch.AccessToken, error) {
	s.mu.Lock()
	s.refreshToken = refreshToken
	s.mu.Unlock()

	return s.AppAccessToken(ctx, clientID, clientSecret)
}

func expiringToken(value string, expiresIn int64) *twitch.AccessToken {
	token := twitch.NewAccessToken(value)
	token.ExpiresIn = expiresIn

	return token
}

// refreshConcurrently renews rejected from n goroutines and returns the
// distinct tokens they received.
func refreshConcurrently(t *testing.T, provider twitch.RefreshableAuthProvider, rejected string, n int) []string {
	t.Helper()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		tokens []string
	)

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			token, err := provider.RefreshIfCurrent(context.Background(), rejected)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			tokens = append(tokens, token.AccessToken)
			mu.Unlock()
		}()
	}

	wg.Wait()

	slices.Sort(tokens)

	return slices.Compact(tokens)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestStaticAuthProvider(t *testing.T) {
	t.Parallel()

	t.Run("returns empty token when uninitialized", func(t *testing.T) {
		t.Parallel()

		provider := auth.NewStaticAuthProvider("client-id", "", auth.WithTokenValidator(&stubValidator{}))

		token, err := provider.AccessToken(context.Background())
		require.NoError(t, err)
		assert.True(t, token.IsEmpty())
		assert.Equal(t, "client-id", provider.ClientID())
	})

	t.Run("rejects scopes when uninitialized", func(t *testing.T) {
		t.Parallel()

		provider := auth.NewStaticAuthProvider("client-id", "", auth.WithTokenValidator(&stubValidator{}))

		_, err := provider.AccessToken(context.Background(), "chat:read")
		require.ErrorIs(t, err, twitch.ErrProviderNotInitialized)
	})

	t.Run("returns token without scope lookup", func(t *testing.T) {
		t.Parallel()

		validator := &stubValidator{}
		provider := auth.NewStaticAuthProvider("client-id", "abc", auth.WithTokenValidator(validator))

		token, err := provider.AccessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", token.AccessToken)
		assert.Equal(t, int32(0), validator.calls.Load())
		assert.Nil(t, provider.CurrentScopes())
	})

	t.Run("discovers scopes once", func(t *testing.T) {
		t.Parallel()

		validator := &stubValidator{info: &twitch.TokenInfo{Scopes: []string{"chat:read", "user:read:email"}}}
		provider := auth.NewStaticAuthProvider("client-id", "abc", auth.WithTokenValidator(validator))

		for range 3 {
			token, err := provider.AccessToken(context.Background(), "chat:read")
			require.NoError(t, err)
			assert.Equal(t, "abc", token.AccessToken)
		}

		assert.Equal(t, int32(1), validator.calls.Load())
		assert.Equal(t, []string{"chat:read", "user:read:email"}, provider.CurrentScopes())
	})

	t.Run("missing scopes", func(t *testing.T) {
		t.Parallel()

		provider := auth.NewStaticAuthProvider("client-id", "abc",
			auth.WithScopes("chat:read"), auth.WithTokenValidator(&stubValidator{}))

		_, err := provider.AccessToken(context.Background(), "chat:read", "chat:edit")

		var scopeErr *twitch.ScopeError

		require.ErrorAs(t, err, &scopeErr)
		assert.Equal(t, []string{"chat:read", "chat:edit"}, scopeErr.Scopes)
		assert.Equal(t, []string{"chat:edit"}, scopeErr.Missing)
		assert.Contains(t, err.Error(), "requested scopes (chat:read, chat:edit) and can not be upgraded")
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Parallel()

		provider := auth.NewStaticAuthProvider("client-id", "abc",
			auth.WithTokenValidator(&stubValidator{err: errSourceFailed}))

		_, err := provider.AccessToken(context.Background(), "chat:read")
		require.ErrorIs(t, err, errSourceFailed)
	})

	t.Run("set access token resets scopes", func(t *testing.T) {
		t.Parallel()

		provider := auth.NewStaticAuthProvider("client-id", "abc",
			auth.WithScopes("chat:read"), auth.WithTokenValidator(&stubValidator{}))

		provider.SetAccessToken(twitch.NewAccessToken("def", "bits:read"))

		token, err := provider.AccessToken(context.Background(), "bits:read")
		require.NoError(t, err)
		assert.Equal(t, "def", token.AccessToken)
		assert.Equal(t, []string{"bits:read"}, provider.CurrentScopes())
	})
}

func TestClientCredentialsAuthProvider(t *testing.T) {
	t.Parallel()

	t.Run("fetches and reuses app token", func(t *testing.T) {
		t.Parallel()

		source := &stubTokenSource{token: func(int32) *twitch.AccessToken { return expiringToken("app", 3600) }}
		provider := auth.NewClientCredentialsAuthProvider("client-id", "secret", source)

		for range 3 {
			token, err := provider.AccessToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "app", token.AccessToken)
		}

		assert.Equal(t, int32(1), source.calls.Load())
	})

	t.Run("rejects scopes", func(t *testing.T) {
		t.Parallel()

		provider := auth.NewClientCredentialsAuthProvider("client-id", "secret", &stubTokenSource{})

		_, err := provider.AccessToken(context.Background(), "chat:read")
		require.ErrorIs(t, err, twitch.ErrClientCredentialsScopes)
	})

	t.Run("refresh forces new token", func(t *testing.T) {
		t.Parallel()

		source := &stubTokenSource{token: func(n int32) *twitch.AccessToken {
			return expiringToken("app-"+string(rune('0'+n)), 3600)
		}}
		provider := auth.NewClientCredentialsAuthProvider("client-id", "secret", source)

		first, err := provider.AccessToken(context.Background())
		require.NoError(t, err)

		second, err := provider.Refresh(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, first.AccessToken, second.AccessToken)
		assert.Equal(t, int32(2), source.calls.Load())
	})

	t.Run("concurrent callers share one fetch", func(t *testing.T) {
		t.Parallel()

		source := &stubTokenSource{token: func(int32) *twitch.AccessToken {
			time.Sleep(10 * time.Millisecond)

			return expiringToken("app", 3600)
		}}
		provider := auth.NewClientCredentialsAuthProvider("client-id", "secret", source)

		var wg sync.WaitGroup

		for range 5 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := provider.AccessToken(context.Background())
				assert.NoError(t, err)
			}()
		}

		wg.Wait()
		assert.Equal(t, int32(1), source.calls.Load())
	})

	t.Run("concurrent rejections share one grant", func(t *testing.T) {
		t.Parallel()

		source := &stubTokenSource{token: func(n int32) *twitch.AccessToken {
			return expiringToken(fmt.Sprintf("app-%d", n), 3600)
		}}
		provider := auth.NewClientCredentialsAuthProvider("client-id", "secret", source)

		first, err := provider.AccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "app-1", first.AccessToken)

		assert.Equal(t, []string{"app-2"}, refreshConcurrently(t, provider, "app-1", 8))
		assert.Equal(t, int32(2), source.calls.Load())
	})

	t.Run("source error", func(t *testing.T) {
		t.Parallel()

		provider := auth.NewClientCredentialsAuthProvider("client-id", "secret", &stubTokenSource{err: errSourceFailed})

		_, err := provider.AccessToken(context.Background())
		require.ErrorIs(t, err, errSourceFailed)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestRefreshTokenAuthProvider(t *testing.T) {
	t.Parallel()

	t.Run("requires secret and refresh token", func(t *testing.T) {
		t.Parallel()

		_, err := auth.NewRefreshTokenAuthProvider("client-id", "", twitch.NewAccessToken("abc"), nil)
		require.ErrorIs(t, err, twitch.ErrClientSecretRequired)

		_, err = auth.NewRefreshTokenAuthProvider("client-id", "secret", twitch.NewAccessToken("abc"), nil)
		require.ErrorIs(t, err, twitch.ErrRefreshTokenRequired)
	})

	t.Run("serves current token while usable", func(t *testing.T) {
		t.Parallel()

		token := expiringToken("user", 3600)
		token.RefreshToken = "refresh"

		source := &stubTokenSource{}
		provider, err := auth.NewRefreshTokenAuthProvider("client-id", "secret", token, source)
		require.NoError(t, err)

		got, err := provider.AccessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "user", got.AccessToken)
		assert.Equal(t, int32(0), source.calls.Load())
	})

	t.Run("refreshes expired token and keeps refresh token", func(t *testing.T) {
		t.Parallel()

		token := &twitch.AccessToken{
			AccessToken:  "old",
			RefreshToken: "refresh",
			ExpiresIn:    60,
			Scopes:       []string{"chat:read"},
			ObtainedAt:   time.Now().Add(-time.Hour),
		}

		source := &stubTokenSource{token: func(int32) *twitch.AccessToken { return expiringToken("new", 3600) }}
		provider, err := auth.NewRefreshTokenAuthProvider("client-id", "secret", token, source)
		require.NoError(t, err)

		got, err := provider.AccessToken(context.Background(), "chat:read")
		require.NoError(t, err)
		assert.Equal(t, "new", got.AccessToken)
		assert.Equal(t, "refresh", got.RefreshToken)
		assert.Equal(t, []string{"chat:read"}, provider.CurrentScopes())
		assert.Equal(t, "refresh", source.refreshToken)
	})

	t.Run("missing scopes", func(t *testing.T) {
		t.Parallel()

		token := twitch.NewAccessToken("user", "chat:read")
		token.RefreshToken = "refresh"

		provider, err := auth.NewRefreshTokenAuthProvider("client-id", "secret", token, &stubTokenSource{})
		require.NoError(t, err)

		_, err = provider.AccessToken(context.Background(), "chat:read", "channel:manage:broadcast")

		var scopeErr *twitch.ScopeError

		require.ErrorAs(t, err, &scopeErr)
		assert.Equal(t, []string{"chat:read", "channel:manage:broadcast"}, scopeErr.Scopes)
		assert.Equal(t, []string{"channel:manage:broadcast"}, scopeErr.Missing)
	})

	t.Run("concurrent rejections share one grant", func(t *testing.T) {
		t.Parallel()

		token := expiringToken("rejected", 3600)
		token.RefreshToken = "refresh"

		source := &stubTokenSource{token: func(n int32) *twitch.AccessToken {
			return expiringToken(fmt.Sprintf("renewed-%d", n), 3600)
		}}
		provider, err := auth.NewRefreshTokenAuthProvider("client-id", "secret", token, source)
		require.NoError(t, err)

		got := refreshConcurrently(t, provider, "rejected", 8)
		assert.Equal(t, []string{"renewed-1"}, got)
		assert.Equal(t, int32(1), source.calls.Load())

		renewed, err := provider.RefreshIfCurrent(context.Background(), "renewed-1")
		require.NoError(t, err)
		assert.Equal(t, "renewed-2", renewed.AccessToken)
	})

	t.Run("refresh failure", func(t *testing.T) {
		t.Parallel()

		token := twitch.NewAccessToken("user")
		token.RefreshToken = "refresh"

		provider, err := auth.NewRefreshTokenAuthProvider("client-id", "secret", token, &stubTokenSource{err: errSourceFailed})
		require.NoError(t, err)

		_, err = provider.Refresh(context.Background())
		require.ErrorIs(t, err, errSourceFailed)
	})
}
