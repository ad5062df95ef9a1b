package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/observability"
)

const (
	// DefaultTimeout bounds every upstream call.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "OLASIS/4.0 (+https://olasis.app)"

	// maxBodyBytes caps how much of an upstream body is decoded.
	maxBodyBytes = 10 << 20
)

// Outcome labels recorded for every upstream call.
const (
	outcomeOK      = "ok"
	outcomeNetwork = "network"
	outcomeStatus  = "status"
	outcomeDecode  = "decode"
)

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Source names the upstream for logs and metrics (e.g. "openalex").
	Source string

	// Timeout is the per-call timeout. Defaults to 10 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Defaults to 10.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed. Defaults to 10.
	BurstSize int

	// MaxRetries is the number of retries on 429 and 5xx responses.
	// Zero, the default, disables retries.
	MaxRetries int

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header name for the API key.
	APIKeyHeader string
}

// HTTPClient wraps http.Client with rate limiting, optional retries and
// JSON decoding. It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

// NewHTTPClient creates a new HTTP client with rate limiting.
// metrics may be nil.
func NewHTTPClient(cfg HTTPClientConfig, logger zerolog.Logger, metrics *observability.Metrics) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 10
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Source == "" {
		cfg.Source = "upstream"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
		logger:      logger.With().Str("component", "sources").Str("source", cfg.Source).Logger(),
		metrics:     metrics,
	}
}

// Source returns the upstream name this client was configured for.
func (c *HTTPClient) Source() string {
	return c.config.Source
}

// GetJSON performs a GET request against rawURL with the given query
// parameters and extra headers, decoding a JSON body into dst.
//
// Network failures, timeouts, non-2xx responses and decode failures are all
// logged at warn level and returned as errors wrapping ErrNoResult. Context
// cancellation additionally wraps the context error.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, params url.Values, headers http.Header, dst any) error {
	start := time.Now()

	target, err := url.Parse(rawURL)
	if err != nil {
		return c.fail(outcomeNetwork, rawURL, start, fmt.Errorf("parsing url: %w", err))
	}
	if len(params) > 0 {
		query := target.Query()
		for key, values := range params {
			for _, v := range values {
				query.Add(key, v)
			}
		}
		target.RawQuery = query.Encode()
	}
	fullURL := target.String()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return c.fail(outcomeNetwork, fullURL, start, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.Do(req)
	if err != nil {
		return c.fail(outcomeNetwork, fullURL, start, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return c.fail(outcomeStatus, fullURL, start,
			domain.NewExternalAPIError(c.config.Source, resp.StatusCode, string(body), nil))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return c.fail(outcomeDecode, fullURL, start, fmt.Errorf("decoding response: %w", err))
	}

	c.metrics.RecordUpstreamRequest(c.config.Source, outcomeOK, time.Since(start).Seconds())
	return nil
}

// fail logs and records a failed fetch and wraps cause with ErrNoResult.
func (c *HTTPClient) fail(outcome, rawURL string, start time.Time, cause error) error {
	c.metrics.RecordUpstreamRequest(c.config.Source, outcome, time.Since(start).Seconds())

	logger := observability.WithUpstreamContext(c.logger, c.config.Source, rawURL)
	logger.Warn().
		Err(cause).
		Str("outcome", outcome).
		Dur("elapsed", time.Since(start)).
		Msg("upstream fetch returned no result")

	return fmt.Errorf("%w: %s: %w", ErrNoResult, c.config.Source, cause)
}

// Do executes an HTTP request with rate limiting and, when MaxRetries is
// positive, retries on 429 (honoring Retry-After) and 5xx responses.
// Non-retryable responses are returned as-is for the caller to inspect.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.config.MaxRetries {
				if err := c.waitForRetry(req.Context(), c.config.RetryDelay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		if c.shouldRetry(resp.StatusCode) && attempt < c.config.MaxRetries {
			retryDelay := c.getRetryDelay(resp)
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			c.logger.Debug().
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Dur("delay", retryDelay).
				Float64("tokens", c.rateLimiter.Tokens()).
				Msg("retrying upstream request")
			if err := c.waitForRetry(req.Context(), retryDelay); err != nil {
				return nil, err
			}
			continue
		}

		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("unexpected error: no response received")
}

// shouldRetry returns true for 429 and 5xx status codes.
func (c *HTTPClient) shouldRetry(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}

// getRetryDelay honors Retry-After in seconds or HTTP-date form, falling
// back to the configured retry delay.
func (c *HTTPClient) getRetryDelay(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return c.config.RetryDelay
	}

	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return c.config.RetryDelay
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}

	return c.config.RetryDelay
}

// waitForRetry waits for delay, respecting context cancellation.
func (c *HTTPClient) waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
