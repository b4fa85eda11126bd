package twitch_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var errInterceptor = errors.New("interceptor failed")

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
	fields  []map[string]interface{}
}

func (l *recordingLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, level+":"+msg)
	l.fields = append(l.fields, fields)
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }

func (l *recordingLogger) Info(msg string, fields map[string]interface{}) { l.record("info", msg, fields) }

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) { l.record("warn", msg, fields) }

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	t.Parallel()

	chain := twitch.NewInterceptorChain()

	var order []int

	chain.AddRequestInterceptor(func(ctx context.Context, req *twitch.Request) error {
		order = append(order, 1)

		return nil
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *twitch.Request) error {
		order = append(order, 2)

		return errInterceptor
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *twitch.Request) error {
		order = append(order, 3)

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &twitch.Request{})
	require.ErrorIs(t, err, errInterceptor)
	assert.Equal(t, []int{1, 2}, order)
}

func TestInterceptorChain_NilSafe(t *testing.T) {
	t.Parallel()

	var chain *twitch.InterceptorChain

	require.NoError(t, chain.ExecuteRequestInterceptors(context.Background(), &twitch.Request{}))
	require.NoError(t, chain.ExecuteResponseInterceptors(context.Background(), &twitch.Request{}, &twitch.Response{}))
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	req := &twitch.Request{}

	err := twitch.HeaderInterceptor(map[string]string{"X-Test": "value"})(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "value", req.Headers.Get("X-Test"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	req := &twitch.Request{Method: http.MethodGet, URL: "https://api.twitch.tv/helix/users", Headers: http.Header{}}

	require.NoError(t, twitch.LoggingInterceptor(logger)(context.Background(), req))

	headers := http.Header{}
	headers.Set("Ratelimit-Remaining", "42")

	require.NoError(t, twitch.LoggingResponseInterceptor(logger)(context.Background(), req,
		&twitch.Response{StatusCode: http.StatusOK, Headers: headers}))
	require.NoError(t, twitch.LoggingResponseInterceptor(logger)(context.Background(), req,
		&twitch.Response{Error: errInterceptor}))

	assert.Equal(t, []string{"debug:API Request", "debug:API Response", "error:API Response Error"}, logger.entries)
	assert.Equal(t, "42", logger.fields[1]["ratelimit_remaining"])
}

func TestRateLimitInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := twitch.RateLimitInterceptor(rate.NewLimiter(rate.Every(time.Hour), 1))

	require.NoError(t, interceptor(context.Background(), &twitch.Request{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	require.Error(t, interceptor(ctx, &twitch.Request{}))
}

func TestMetricsCollector(t *testing.T) {
	t.Parallel()

	collector := twitch.NewMetricsCollector()

	var changes int

	collector.SetOnChange(func(endpoint string, metrics twitch.Metrics) {
		changes++
	})

	reqInterceptor := twitch.MetricsRequestInterceptor(collector)
	respInterceptor := twitch.MetricsResponseInterceptor(collector)

	for _, status := range []int{http.StatusOK, http.StatusBadRequest} {
		req := &twitch.Request{Method: http.MethodGet, URL: "https://api.twitch.tv/helix/users?id=1"}

		require.NoError(t, reqInterceptor(context.Background(), req))
		require.NoError(t, respInterceptor(context.Background(), req, &twitch.Response{StatusCode: status}))
	}

	metrics := collector.GetMetrics("GET https://api.twitch.tv/helix/users")
	require.NotNil(t, metrics)
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)
	assert.Equal(t, 2, changes)
	assert.Equal(t, []string{"GET https://api.twitch.tv/helix/users"}, collector.Endpoints())
	assert.Nil(t, collector.GetMetrics("GET elsewhere"))
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	breaker := twitch.NewCircuitBreaker(&twitch.CircuitBreakerConfig{
		Threshold:        2,
		Timeout:          20 * time.Millisecond,
		SuccessThreshold: 1,
	})

	before := twitch.CircuitBreakerRequestInterceptor(breaker)
	after := twitch.CircuitBreakerResponseInterceptor(breaker)
	ctx := context.Background()
	req := &twitch.Request{}

	for range 2 {
		require.NoError(t, before(ctx, req))
		require.NoError(t, after(ctx, req, &twitch.Response{StatusCode: http.StatusServiceUnavailable}))
	}

	assert.Equal(t, twitch.CircuitOpen, breaker.State())
	require.ErrorIs(t, before(ctx, req), twitch.ErrCircuitBreakerOpen)

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, before(ctx, req))
	assert.Equal(t, twitch.CircuitHalfOpen, breaker.State())
	require.ErrorIs(t, before(ctx, req), twitch.ErrCircuitBreakerOpen, "only one trial call while half-open")

	require.NoError(t, after(ctx, req, &twitch.Response{StatusCode: http.StatusOK}))
	assert.Equal(t, twitch.CircuitClosed, breaker.State())
	require.NoError(t, before(ctx, req))
}

func TestCircuitBreaker_HalfOpenTrialLimit(t *testing.T) {
	t.Parallel()

	breaker := twitch.NewCircuitBreaker(&twitch.CircuitBreakerConfig{
		Threshold:        1,
		Timeout:          20 * time.Millisecond,
		SuccessThreshold: 2,
	})

	before := twitch.CircuitBreakerRequestInterceptor(breaker)
	after := twitch.CircuitBreakerResponseInterceptor(breaker)
	ctx := context.Background()
	req := &twitch.Request{}

	require.NoError(t, before(ctx, req))
	require.NoError(t, after(ctx, req, &twitch.Response{Error: errInterceptor}))
	require.Equal(t, twitch.CircuitOpen, breaker.State())

	time.Sleep(30 * time.Millisecond)

	var admitted atomic.Int32

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if before(ctx, req) == nil {
				admitted.Add(1)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(2), admitted.Load())
	assert.Equal(t, twitch.CircuitHalfOpen, breaker.State())

	// Trials that never report back do not block the circuit for good.
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, before(ctx, req))
}
