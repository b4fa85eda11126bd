package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
)

const defaultUserAgent = "twitch-client-go/1.0"

// Static errors for err113 compliance.
var (
	ErrNilResponse = errors.New("nil response")
)

// Client is a retrying HTTP client that authenticates requests against Twitch.
type Client struct {
	httpClient   *retryablehttp.Client
	baseURL      string
	endpoints    twitch.Endpoints
	provider     twitch.AuthProvider
	logger       twitch.Logger
	debug        bool
	userAgent    string
	limiter      *rate.Limiter
	interceptors *twitch.InterceptorChain
}

// Request is a single API request. Path may be relative to the client's base
// URL or an absolute URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	RawBody []byte
	Form    url.Values
	Headers map[string]string
	Scopes  []string
}

// Response holds a fully read response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	URL        string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger twitch.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.httpClient.Logger = NewLeveledLogger(logger)
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig tunes retry behavior.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil

			return
		}

		if burst <= 0 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *twitch.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithEndpoints sets the endpoints used to resolve APICalls.
func WithEndpoints(endpoints twitch.Endpoints) Option {
	return func(c *Client) {
		c.endpoints = endpoints.WithDefaults()
	}
}

// NewClient creates a client. provider may be nil for unauthenticated requests.
func NewClient(baseURL string, provider twitch.AuthProvider, opts ...Option) *Client {
	client := &Client{
		httpClient: NewRetryableClient(nil, constants.DefaultRetryMax,
			constants.DefaultRetryWaitMin, constants.DefaultRetryWaitMax, constants.DefaultHTTPTimeout),
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: twitch.DefaultEndpoints(),
		provider:  provider,
		userAgent: defaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// NewRetryableClient builds the underlying retrying client. Exhausted retries
// hand back the last response instead of an error so callers can decode it.
func NewRetryableClient(logger twitch.Logger, retryMax int, waitMin, waitMax, timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = waitMin
	client.RetryWaitMax = waitMax
	client.HTTPClient.Timeout = timeout
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil

	if logger != nil {
		client.Logger = NewLeveledLogger(logger)
	}

	return client
}

// AuthProvider returns the provider used to authenticate requests.
func (c *Client) AuthProvider() twitch.AuthProvider {
	return c.provider
}

// Endpoints returns the endpoints used to resolve APICalls.
func (c *Client) Endpoints() twitch.Endpoints {
	return c.endpoints
}

// Call executes an APICall.
func (c *Client) Call(ctx context.Context, call *twitch.APICall) (*Response, error) {
	req := &Request{
		Method: call.Method,
		Path:   call.FullURL(c.endpoints),
		Scopes: call.Scopes(),
	}

	if len(call.Body) > 0 {
		req.RawBody = call.Body
		if call.JSONBody {
			req.Headers = map[string]string{"Content-Type": "application/json"}
		}
	}

	return c.Do(ctx, req)
}

// Do executes a request. On a 401 from a refreshable provider the rejected
// token is renewed once and the request repeated. Non-2xx responses are returned
// together with a *twitch.APIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	token, err := c.accessToken(ctx, req.Scopes)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		refreshable, ok := c.provider.(twitch.RefreshableAuthProvider)
		if ok {
			c.logDebug("Refreshing access token after 401", map[string]interface{}{"url": resp.URL})

			token, err = refreshable.RefreshIfCurrent(ctx, token.AccessToken)
			if err != nil {
				return resp, fmt.Errorf("refreshing access token: %w", err)
			}

			resp, err = c.send(ctx, req, token)
			if err != nil {
				return nil, err
			}
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp, twitch.ParseAPIError(resp.URL, resp.StatusCode, resp.Body)
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) accessToken(ctx context.Context, scopes []string) (*twitch.AccessToken, error) {
	if c.provider == nil {
		return twitch.EmptyAccessToken(), nil
	}

	token, err := c.provider.AccessToken(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("getting access token: %w", err)
	}

	return token, nil
}

func (c *Client) buildURL(req *Request) string {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(target, "/")
	}

	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}

		target += sep + req.Query.Encode()
	}

	return target
}

func (c *Client) encodeBody(req *Request) ([]byte, string, error) {
	switch {
	case req.RawBody != nil:
		return req.RawBody, "", nil
	case req.Form != nil:
		return []byte(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}

		return data, "application/json", nil
	default:
		return nil, "", nil
	}
}

//nolint:funlen // request assembly, interception and logging read best in one place
func (c *Client) send(ctx context.Context, req *Request, token *twitch.AccessToken) (*Response, error) {
	target := c.buildURL(req)

	body, contentType, err := c.encodeBody(req)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(twitch.RequestIDHeader, uuid.New().String())

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if c.provider != nil {
		httpReq.Header.Set("Client-ID", c.provider.ClientID())
	}

	if !token.IsEmpty() {
		httpReq.Header.Set("Authorization", constants.BearerPrefix+token.AccessToken)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	intercepted := &twitch.Request{
		Method:  method,
		URL:     target,
		Headers: httpReq.Header,
		Body:    body,
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		err = c.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	c.logDebug("HTTP Request", map[string]interface{}{
		"method":     method,
		"url":        target,
		"request_id": httpReq.Header.Get(twitch.RequestIDHeader),
	})

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &twitch.Response{Error: err})

		return nil, fmt.Errorf("executing request to %s: %w", target, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
		URL:        target,
	}

	c.logDebug("HTTP Response", map[string]interface{}{
		"status_code": resp.StatusCode,
		"url":         target,
		"body_size":   len(respBody),
	})

	err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &twitch.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) logDebug(msg string, fields map[string]interface{}) {
	if c.debug && c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

// DecodeJSON unmarshals a response body.
func DecodeJSON(resp *Response, out interface{}) error {
	if resp == nil {
		return ErrNilResponse
	}

	err := json.NewDecoder(bytes.NewReader(resp.Body)).Decode(out)
	if err != nil {
		return fmt.Errorf("decoding response from %s: %w", resp.URL, err)
	}

	return nil
}
