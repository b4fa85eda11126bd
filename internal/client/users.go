package client

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/fivetwenty-io/twitch-client/internal/http"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

// UsersClient implements twitch.UsersClient.
type UsersClient struct {
	httpClient *http.Client
	cache      *twitch.CacheManager
	cacheTTL   time.Duration
	validate   *validator.Validate
}

// NewUsersClient creates a users client without caching.
func NewUsersClient(httpClient *http.Client) *UsersClient {
	return &UsersClient{
		httpClient: httpClient,
		validate:   validator.New(),
	}
}

// NewUsersClientWithCache creates a users client that caches lookups by login and id.
func NewUsersClientWithCache(httpClient *http.Client, cache *twitch.CacheManager, ttl time.Duration) *UsersClient {
	client := NewUsersClient(httpClient)
	client.cache = cache
	client.cacheTTL = ttl

	return client
}

// GetMe implements twitch.UsersClient.GetMe.
func (c *UsersClient) GetMe(ctx context.Context) (*twitch.User, error) {
	users, err := c.fetch(ctx, twitch.NewAPICall().WithURL("users"))
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}

	if len(users) == 0 {
		return nil, twitch.ErrUserNotFound
	}

	return &users[0], nil
}

// GetByLogin implements twitch.UsersClient.GetByLogin.
func (c *UsersClient) GetByLogin(ctx context.Context, login string) (*twitch.User, error) {
	login = strings.ToLower(login)

	return c.getOne(ctx, "login", login)
}

// GetByID implements twitch.UsersClient.GetByID.
func (c *UsersClient) GetByID(ctx context.Context, id string) (*twitch.User, error) {
	return c.getOne(ctx, "id", id)
}

// GetByLogins implements twitch.UsersClient.GetByLogins. Cached users are
// served without a request; the rest are fetched in batches. Results follow
// the order of logins, and unknown logins are omitted.
func (c *UsersClient) GetByLogins(ctx context.Context, logins ...string) ([]twitch.User, error) {
	unique := make([]string, 0, len(logins))
	for _, login := range logins {
		login = strings.ToLower(login)
		if login != "" && !slices.Contains(unique, login) {
			unique = append(unique, login)
		}
	}

	found := make(map[string]twitch.User, len(unique))
	misses := make([]string, 0, len(unique))

	for _, login := range unique {
		if cached := c.lookup(ctx, "login", login); cached != nil {
			found[login] = *cached

			continue
		}

		misses = append(misses, login)
	}

	for chunk := range slices.Chunk(misses, constants.MaxUsersPerRequest) {
		users, err := c.fetch(ctx, twitch.NewAPICall().WithURL("users").WithParams("login", chunk...))
		if err != nil {
			return nil, fmt.Errorf("getting users by login: %w", err)
		}

		for i := range users {
			c.store(ctx, &users[i])
			found[strings.ToLower(users[i].Login)] = users[i]
		}
	}

	result := make([]twitch.User, 0, len(found))

	for _, login := range unique {
		if user, ok := found[login]; ok {
			result = append(result, user)
		}
	}

	return result, nil
}

func (c *UsersClient) getOne(ctx context.Context, field, value string) (*twitch.User, error) {
	if cached := c.lookup(ctx, field, value); cached != nil {
		return cached, nil
	}

	users, err := c.fetch(ctx, twitch.NewAPICall().WithURL("users").WithParam(field, value))
	if err != nil {
		return nil, fmt.Errorf("getting user by %s: %w", field, err)
	}

	if len(users) == 0 {
		return nil, nil //nolint:nilnil // absent users are not an error
	}

	c.store(ctx, &users[0])

	return &users[0], nil
}

func (c *UsersClient) fetch(ctx context.Context, builder *twitch.APICallBuilder) ([]twitch.User, error) {
	call, err := builder.Build()
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Call(ctx, call)
	if err != nil {
		return nil, err
	}

	var payload twitch.UserResponse

	err = json.Unmarshal(resp.Body, &payload)
	if err != nil {
		return nil, fmt.Errorf("parsing users response: %w", err)
	}

	err = c.validate.Struct(&payload)
	if err != nil {
		return nil, fmt.Errorf("invalid users response: %w", err)
	}

	return payload.Data, nil
}

func cacheKey(field, value string) string {
	return "users:" + field + ":" + value
}

func (c *UsersClient) lookup(ctx context.Context, field, value string) *twitch.User {
	if c.cache == nil {
		return nil
	}

	data, err := c.cache.Get(ctx, cacheKey(field, value))
	if err != nil {
		return nil
	}

	user := &twitch.User{}

	err = json.Unmarshal(data, user)
	if err != nil {
		return nil
	}

	return user
}

func (c *UsersClient) store(ctx context.Context, user *twitch.User) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(user)
	if err != nil {
		return
	}

	_ = c.cache.Set(ctx, cacheKey("login", strings.ToLower(user.Login)), data, c.cacheTTL)
	_ = c.cache.Set(ctx, cacheKey("id", user.ID), data, c.cacheTTL)
}
