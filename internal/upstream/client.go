// Package upstream is the HTTP client for the odds feed (The Odds API v4 shape).
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cypherlabdev/odds-pipeline-service/internal/metrics"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
)

var _ service.OddsFeed = (*Client)(nil)

const feedTimeLayout = "2006-01-02T15:04:05Z"

// Client fetches events and per-event odds with rate limiting and retries
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     ClientConfig
	retryStart time.Duration
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// ClientConfig holds options for creating a new Client
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	RequestsPerSec int
	MaxRetries     int
	MaxRetryWait   time.Duration
}

// NewClient creates a new feed client
func NewClient(config ClientConfig, m *metrics.Metrics, logger zerolog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.the-odds-api.com"
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.RequestsPerSec == 0 {
		config.RequestsPerSec = 5
	}
	if config.MaxRetryWait == 0 {
		config.MaxRetryWait = 30 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSec), config.RequestsPerSec),
		config:     config,
		retryStart: 500 * time.Millisecond,
		metrics:    m,
		logger:     logger.With().Str("component", "upstream_client").Logger(),
	}
}

// FetchEvents lists the events of sportKey commencing in [from, to]
func (c *Client) FetchEvents(ctx context.Context, sportKey string, from, to time.Time) ([]models.FeedEvent, error) {
	query := url.Values{}
	query.Set("commenceTimeFrom", from.UTC().Format(feedTimeLayout))
	query.Set("commenceTimeTo", to.UTC().Format(feedTimeLayout))

	var events []models.FeedEvent
	if err := c.get(ctx, fmt.Sprintf("/v4/sports/%s/events", url.PathEscape(sportKey)), query, &events); err != nil {
		return nil, fmt.Errorf("failed to fetch %s events: %w", sportKey, err)
	}

	c.logger.Debug().
		Str("sport", sportKey).
		Int("events", len(events)).
		Msg("fetched events")

	return events, nil
}

// FetchEventOdds fetches the given markets for one event, limited to books
func (c *Client) FetchEventOdds(ctx context.Context, sportKey, eventID string, books, markets []string) (*models.FeedEvent, error) {
	query := url.Values{}
	query.Set("oddsFormat", "american")
	query.Set("dateFormat", "iso")
	if len(books) > 0 {
		query.Set("bookmakers", strings.Join(books, ","))
	} else {
		query.Set("regions", "us")
	}
	if len(markets) > 0 {
		query.Set("markets", strings.Join(markets, ","))
	}

	path := fmt.Sprintf("/v4/sports/%s/events/%s/odds", url.PathEscape(sportKey), url.PathEscape(eventID))

	var event models.FeedEvent
	if err := c.get(ctx, path, query, &event); err != nil {
		return nil, fmt.Errorf("failed to fetch odds for event %s: %w", eventID, err)
	}

	return &event, nil
}

// get performs a GET with rate limiting, a per-attempt timeout and exponential backoff.
// 5xx, 429 and transport errors are retried; other statuses are permanent.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	query.Set("apiKey", c.config.APIKey)
	target := c.config.BaseURL + path + "?" + query.Encode()

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(c.redactKey(err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return c.redactKey(err)
		}
		defer resp.Body.Close()

		c.recordQuota(resp.Header)

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			if statusErr.Retryable() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = c.retryStart
	strategy.MaxElapsedTime = c.config.MaxRetryWait

	retries := c.config.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(strategy, uint64(retries)), ctx)

	return backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		c.logger.Warn().
			Err(err).
			Str("path", path).
			Dur("retry_in", wait).
			Msg("upstream request failed, retrying")
	})
}

// redactKey strips the API key from errors that embed the request URL
func (c *Client) redactKey(err error) error {
	var urlErr *url.Error
	if c.config.APIKey == "" || !errors.As(err, &urlErr) {
		return err
	}
	redacted := *urlErr
	redacted.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(c.config.APIKey), "REDACTED")
	return &redacted
}

func (c *Client) recordQuota(header http.Header) {
	remaining, errRemaining := strconv.Atoi(header.Get("x-requests-remaining"))
	used, errUsed := strconv.Atoi(header.Get("x-requests-used"))
	if errRemaining != nil || errUsed != nil {
		return
	}
	c.metrics.Quota(models.FeedQuota{Remaining: remaining, Used: used})
}

// HTTPStatusError represents an error due to a non-200 HTTP status code
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return "non-200 status code: " + http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("non-200 status code: %s: %s", http.StatusText(e.StatusCode), e.Body)
}

// Retryable reports whether the status is worth retrying
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// StatusCode extracts the HTTP status from err, or 0
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
