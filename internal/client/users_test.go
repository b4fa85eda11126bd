package client_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/fivetwenty-io/twitch-client/internal/client"
	internalhttp "github.com/fivetwenty-io/twitch-client/internal/http"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUsers(t *testing.T, writer http.ResponseWriter, users ...twitch.User) {
	t.Helper()

	if users == nil {
		users = []twitch.User{}
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(writer).Encode(twitch.UserResponse{Data: users})
}

func newTestUsersClient(serverURL string) *UsersClient {
	httpClient := internalhttp.NewClient(serverURL, nil, internalhttp.WithEndpoints(twitch.Endpoints{Helix: serverURL}))

	return NewUsersClient(httpClient)
}

func TestUsersClient_GetMe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/users", request.URL.Path)
		assert.Equal(t, http.MethodGet, request.Method)
		assert.Empty(t, request.URL.RawQuery)

		writeUsers(t, writer, twitch.User{ID: "44322889", Login: "dallas", DisplayName: "dallas"})
	}))
	defer server.Close()

	user, err := newTestUsersClient(server.URL).GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "44322889", user.ID)
	assert.Equal(t, "dallas", user.Login)
}

func TestUsersClient_GetMe_EmptyData(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeUsers(t, writer)
	}))
	defer server.Close()

	user, err := newTestUsersClient(server.URL).GetMe(context.Background())
	require.ErrorIs(t, err, twitch.ErrUserNotFound)
	assert.Nil(t, user)
}

func TestUsersClient_GetMe_Unauthorized(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusUnauthorized)
		_, _ = writer.Write([]byte(`{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`))
	}))
	defer server.Close()

	user, err := newTestUsersClient(server.URL).GetMe(context.Background())
	require.Error(t, err)
	assert.Nil(t, user)
	assert.True(t, twitch.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Invalid OAuth token")
}

func TestUsersClient_GetMe_InvalidPayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeUsers(t, writer, twitch.User{DisplayName: "no id"})
	}))
	defer server.Close()

	_, err := newTestUsersClient(server.URL).GetMe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid users response")
}

func TestUsersClient_GetByLogin(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "login=twitchdev", request.URL.RawQuery)

		writeUsers(t, writer, twitch.User{ID: "141981764", Login: "twitchdev", DisplayName: "TwitchDev"})
	}))
	defer server.Close()

	user, err := newTestUsersClient(server.URL).GetByLogin(context.Background(), "TwitchDev")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "141981764", user.ID)
}

func TestUsersClient_GetByLogin_NotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeUsers(t, writer)
	}))
	defer server.Close()

	user, err := newTestUsersClient(server.URL).GetByLogin(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUsersClient_GetByID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "141981764", request.URL.Query().Get("id"))

		writeUsers(t, writer, twitch.User{ID: "141981764", Login: "twitchdev"})
	}))
	defer server.Close()

	user, err := newTestUsersClient(server.URL).GetByID(context.Background(), "141981764")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "twitchdev", user.Login)
}

func TestUsersClient_GetByLogins_Batches(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)

		logins := request.URL.Query()["login"]
		assert.LessOrEqual(t, len(logins), 100)

		users := make([]twitch.User, 0, len(logins))
		for _, login := range logins {
			users = append(users, twitch.User{ID: "id-" + login, Login: login})
		}

		writeUsers(t, writer, users...)
	}))
	defer server.Close()

	logins := make([]string, 0, 151)
	for i := range 150 {
		logins = append(logins, fmt.Sprintf("user%d", i))
	}

	logins = append(logins, "USER0")

	users, err := newTestUsersClient(server.URL).GetByLogins(context.Background(), logins...)
	require.NoError(t, err)
	assert.Len(t, users, 150)
	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, "user0", users[0].Login)
}

func TestUsersClient_CachesLookups(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)

		writeUsers(t, writer, twitch.User{ID: "141981764", Login: "twitchdev"})
	}))
	defer server.Close()

	httpClient := internalhttp.NewClient(server.URL, nil, internalhttp.WithEndpoints(twitch.Endpoints{Helix: server.URL}))
	cache := twitch.NewCacheManager(twitch.NewMemoryCache(10), twitch.DefaultCacheOptions())
	users := NewUsersClientWithCache(httpClient, cache, time.Minute)

	ctx := context.Background()

	first, err := users.GetByLogin(ctx, "twitchdev")
	require.NoError(t, err)

	second, err := users.GetByID(ctx, "141981764")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, int64(1), cache.GetStats().Hits)
}

func TestUsersClient_GetByLoginsFetchesOnlyMisses(t *testing.T) {
	t.Parallel()

	var (
		mu        sync.Mutex
		requested [][]string
	)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		logins := request.URL.Query()["login"]

		mu.Lock()
		requested = append(requested, logins)
		mu.Unlock()

		users := make([]twitch.User, 0, len(logins))
		for _, login := range logins {
			if login != "nobody" {
				users = append(users, twitch.User{ID: "id-" + login, Login: login})
			}
		}

		writeUsers(t, writer, users...)
	}))
	defer server.Close()

	httpClient := internalhttp.NewClient(server.URL, nil, internalhttp.WithEndpoints(twitch.Endpoints{Helix: server.URL}))
	cache := twitch.NewCacheManager(twitch.NewMemoryCache(10), twitch.DefaultCacheOptions())
	users := NewUsersClientWithCache(httpClient, cache, time.Minute)

	ctx := context.Background()

	_, err := users.GetByLogin(ctx, "twitchdev")
	require.NoError(t, err)

	got, err := users.GetByLogins(ctx, "esl_sc2", "TwitchDev", "nobody")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "esl_sc2", got[0].Login)
	assert.Equal(t, "twitchdev", got[1].Login)
	assert.Equal(t, [][]string{{"twitchdev"}, {"esl_sc2", "nobody"}}, requested)

	got, err = users.GetByLogins(ctx, "twitchdev", "esl_sc2")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Len(t, requested, 2)
}
