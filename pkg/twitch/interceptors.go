package twitch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const startedAtKey = "started_at"

// Helix rate-limit headers, reported on every response.
var rateLimitHeaders = map[string]string{
	"Ratelimit-Limit":     "ratelimit_limit",
	"Ratelimit-Remaining": "ratelimit_remaining",
	"Ratelimit-Reset":     "ratelimit_reset",
}

// Request is the view of an outgoing Helix or OAuth call seen by interceptors.
type Request struct {
	Method   string
	URL      string
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response is the view of a completed call seen by interceptors.
// Error is set when the transport failed and no status is available.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

func (r *Response) failed(minStatus int) bool {
	return r.Error != nil || r.StatusCode >= minStatus
}

// RequestInterceptor runs before a call is sent. Returning an error aborts the call.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor runs after a call completes.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain holds interceptors in registration order. A nil chain is empty.
type InterceptorChain struct {
	before []RequestInterceptor
	after  []ResponseInterceptor
}

// NewInterceptorChain returns an empty chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor appends a request interceptor.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.before = append(c.before, interceptor)
}

// AddResponseInterceptor appends a response interceptor.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.after = append(c.after, interceptor)
}

// ExecuteRequestInterceptors runs request interceptors until one fails.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	if c == nil {
		return nil
	}

	for i, interceptor := range c.before {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor %d: %w", i, err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs response interceptors until one fails.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	if c == nil {
		return nil
	}

	for i, interceptor := range c.after {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor %d: %w", i, err)
		}
	}

	return nil
}

// LoggingInterceptor logs each outgoing call at debug level.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		logger.Debug("API Request", map[string]interface{}{
			"method":     req.Method,
			"url":        req.URL,
			"request_id": req.Headers.Get(RequestIDHeader),
		})

		return nil
	}
}

// LoggingResponseInterceptor logs each completed call, including the Helix
// rate-limit headers when present. Transport failures are logged as errors.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL,
			"status_code": resp.StatusCode,
		}

		for header, field := range rateLimitHeaders {
			if value := resp.Headers.Get(header); value != "" {
				fields[field] = value
			}
		}

		if resp.Error == nil {
			logger.Debug("API Response", fields)

			return nil
		}

		fields["error"] = resp.Error.Error()
		logger.Error("API Response Error", fields)

		return nil
	}
}

// RateLimitInterceptor blocks until the limiter admits the call or ctx is done.
func RateLimitInterceptor(limiter *rate.Limiter) RequestInterceptor {
	return func(ctx context.Context, _ *Request) error {
		err := limiter.Wait(ctx)
		if err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}

		return nil
	}
}

// HeaderInterceptor sets fixed headers on every call.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = http.Header{}
		}

		for name, value := range headers {
			req.Headers.Set(name, value)
		}

		return nil
	}
}

// Metrics holds call statistics for one endpoint.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector aggregates Metrics per "METHOD url" endpoint, query excluded.
type MetricsCollector struct {
	mu       sync.Mutex
	byKey    map[string]*Metrics
	onChange func(endpoint string, metrics Metrics)
}

// NewMetricsCollector returns an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{byKey: map[string]*Metrics{}}
}

// SetOnChange registers fn to receive a snapshot after every recorded call.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, metrics Metrics)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// GetMetrics returns a copy of the metrics for endpoint, or nil if none were recorded.
func (m *MetricsCollector) GetMetrics(endpoint string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byKey[endpoint]
	if !ok {
		return nil
	}

	snapshot := *current

	return &snapshot
}

// Endpoints lists the endpoints recorded so far.
func (m *MetricsCollector) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.byKey))
	for key := range m.byKey {
		keys = append(keys, key)
	}

	return keys
}

func (m *MetricsCollector) record(endpoint string, latency time.Duration, failed bool) {
	m.mu.Lock()

	current := m.byKey[endpoint]
	if current == nil {
		current = &Metrics{}
		m.byKey[endpoint] = current
	}

	current.TotalRequests++
	current.LastRequestTime = time.Now()
	current.TotalLatency += latency
	current.AverageLatency = current.TotalLatency / time.Duration(current.TotalRequests)

	if failed {
		current.TotalErrors++
	}

	snapshot, notify := *current, m.onChange

	m.mu.Unlock()

	if notify != nil {
		notify(endpoint, snapshot)
	}
}

// MetricsRequestInterceptor stamps the call start time into req.Metadata.
func MetricsRequestInterceptor(_ *MetricsCollector) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = map[string]interface{}{}
		}

		req.Metadata[startedAtKey] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor records the call in collector. Calls with a
// transport error or a 4xx/5xx status count as errors.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		var latency time.Duration
		if started, ok := req.Metadata[startedAtKey].(time.Time); ok {
			latency = time.Since(started)
		}

		path, _, _ := strings.Cut(req.URL, "?")
		collector.record(req.Method+" "+path, latency, resp.failed(http.StatusBadRequest))

		return nil
	}
}

// CircuitState is the state of a CircuitBreaker.
type CircuitState string

// Circuit breaker states.
const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half-open"
)

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the circuit.
	Threshold int
	// Timeout is how long the circuit stays open before a trial call.
	Timeout time.Duration
	// SuccessThreshold is the number of half-open successes that close it again.
	SuccessThreshold int
}

// CircuitBreaker stops calls to a failing API. Only transport errors and 5xx
// responses count as failures. While half-open it admits at most
// SuccessThreshold trial calls per Timeout window.
type CircuitBreaker struct {
	mu         sync.Mutex
	config     CircuitBreakerConfig
	state      CircuitState
	failures   int
	successes  int
	trials     int
	openedAt   time.Time
	trialStart time.Time
}

// NewCircuitBreaker returns a closed breaker. A nil config uses the package defaults.
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	breaker := &CircuitBreaker{
		state: CircuitClosed,
		config: CircuitBreakerConfig{
			Threshold:        constants.CircuitBreakerThreshold,
			Timeout:          constants.CircuitBreakerTimeout,
			SuccessThreshold: constants.CircuitBreakerSuccessThreshold,
		},
	}

	if config != nil {
		breaker.config = *config
	}

	return breaker
}

// State returns the current circuit state.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// allow reports whether a call may proceed, moving an expired open circuit to
// half-open. Trial slots are handed out again once a window passes without
// the trials settling the state.
func (b *CircuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(b.openedAt) <= b.config.Timeout {
			return false
		}

		b.state, b.successes = CircuitHalfOpen, 0
		b.resetTrials()
	case CircuitHalfOpen:
		if time.Since(b.trialStart) > b.config.Timeout {
			b.resetTrials()
		}
	}

	if b.trials >= b.config.SuccessThreshold {
		return false
	}

	b.trials++

	return true
}

func (b *CircuitBreaker) resetTrials() {
	b.trials, b.trialStart = 0, time.Now()
}

func (b *CircuitBreaker) record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if failed {
		b.failures++
		if b.state == CircuitHalfOpen || b.failures >= b.config.Threshold {
			b.state, b.openedAt = CircuitOpen, time.Now()
		}

		return
	}

	if b.state == CircuitHalfOpen {
		b.successes++
		if b.successes < b.config.SuccessThreshold {
			return
		}

		b.state = CircuitClosed
	}

	b.failures = 0
}

// CircuitBreakerRequestInterceptor rejects calls with ErrCircuitBreakerOpen while the circuit is open.
func CircuitBreakerRequestInterceptor(breaker *CircuitBreaker) RequestInterceptor {
	return func(context.Context, *Request) error {
		if !breaker.allow() {
			return ErrCircuitBreakerOpen
		}

		return nil
	}
}

// CircuitBreakerResponseInterceptor feeds call outcomes into breaker.
func CircuitBreakerResponseInterceptor(breaker *CircuitBreaker) ResponseInterceptor {
	return func(_ context.Context, _ *Request, resp *Response) error {
		breaker.record(resp.failed(http.StatusInternalServerError))

		return nil
	}
}
