package solscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnt/stakewatch/internal/metrics"
	"golang.org/x/time/rate"
)

// Default configuration values
const (
	DefaultBaseURL    = "https://pro-api.solscan.io/v2.0"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
)

var (
	// ErrRequestTimeout marks a request that exceeded its timeout. It is
	// retried like any other transient failure.
	ErrRequestTimeout = errors.New("solscan: request timed out")

	// ErrUpstreamUnavailable marks a request that failed after the whole
	// retry budget was exhausted.
	ErrUpstreamUnavailable = errors.New("solscan: upstream unavailable")
)

// Client issues authenticated requests to the Solscan pro API with a
// bounded retry budget and request pacing. Every call carries its own
// instance of the retry policy; no budget is shared across calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets the API base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetries configures retry behavior
func WithRetries(maxRetries int, retryDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = retryDelay
	}
}

// WithRateLimit sets the request pacing toward the API
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new Solscan API client with the given options
func NewClient(token string, logger zerolog.Logger, options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		token:      token,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		// Rate limit to ~5 req/s to stay under the pro tier limits
		limiter: rate.NewLimiter(rate.Limit(5.0), 10),
		logger:  logger.With().Str("component", "solscan_client").Logger(),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// ListStakeAccounts fetches one page of the stake accounts owned by a wallet
func (c *Client) ListStakeAccounts(ctx context.Context, address string, page, pageSize int) (*StakeAccountPage, error) {
	query := url.Values{}
	query.Set("address", address)
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	body, err := c.get(ctx, "/account/stake", query, "stake")
	if err != nil {
		return nil, err
	}

	var result StakeAccountPage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stake account page: %w", err)
	}
	result.PageNumber = page

	c.logger.Debug().
		Str("address", address).
		Int("page", page).
		Int("accounts", len(result.Data)).
		Bool("has_metadata", result.Metadata != nil).
		Msg("Fetched stake account page")

	return &result, nil
}

// ExportRewards downloads the raw reward history export for a stake account
func (c *Client) ExportRewards(ctx context.Context, account string) (string, error) {
	query := url.Values{}
	query.Set("address", account)

	body, err := c.get(ctx, "/account/reward/export", query, "reward_export")
	if err != nil {
		return "", err
	}

	c.logger.Debug().
		Str("account", account).
		Int("bytes", len(body)).
		Msg("Fetched reward export")

	return string(body), nil
}

// GetPortfolio fetches the wallet's native balance in lamports
func (c *Client) GetPortfolio(ctx context.Context, address string) (uint64, error) {
	query := url.Values{}
	query.Set("address", address)

	body, err := c.get(ctx, "/account/portfolio", query, "portfolio")
	if err != nil {
		return 0, err
	}

	var result portfolioResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to unmarshal portfolio: %w", err)
	}

	return result.Data.NativeBalance.Amount, nil
}

// get performs a GET request with pacing, per-attempt timeout and a fixed
// inter-retry delay. After the retry budget is exhausted the last error is
// surfaced wrapped in ErrUpstreamUnavailable.
func (c *Client) get(ctx context.Context, path string, query url.Values, endpoint string) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doOnce(ctx, requestURL)
		if err == nil {
			metrics.RecordUpstreamRequest(endpoint, "success")
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			metrics.RecordUpstreamRequest(endpoint, "cancelled")
			return nil, ctx.Err()
		}

		metrics.RecordUpstreamRequest(endpoint, "failed")
		c.logger.Warn().
			Err(err).
			Str("path", path).
			Int("attempt", attempt).
			Int("max_retries", c.maxRetries).
			Msg("Upstream request failed")
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrUpstreamUnavailable, c.maxRetries, lastErr)
}

// doOnce performs a single request attempt
func (c *Client) doOnce(ctx context.Context, requestURL string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrRequestTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrRequestTimeout, err)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return body, nil
}

// isTimeout reports whether the error is a request timeout
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
