// Package seatapi is the HTTP client for the ticketing API seat inventory.
// It paces requests, and maps non-2xx responses onto the seat error taxonomy
// so the cache can tell rate limiting apart from other failures. It never
// retries; cool-down is owned by the cache.
package seatapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/seat"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client fetches seat inventories. It satisfies cache.Fetcher.
type Client struct {
	logger     logger.Logger
	config     *Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithNow replaces the time source used to resolve HTTP-date Retry-After values
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a seat API client
func New(log logger.Logger, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	c := &Client{
		logger:     log,
		config:     cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchSeats returns the seat inventory of one event
func (c *Client) FetchSeats(ctx context.Context, eventID string) ([]seat.Record, error) {
	if eventID == "" {
		return nil, ErrEmptyEventID
	}
	body, err := c.get(ctx, "/events/"+url.PathEscape(eventID)+"/seats")
	if err != nil {
		return nil, err
	}

	var seats []seat.Record
	if len(body) == 0 {
		return seats, nil
	}
	if err := json.Unmarshal(body, &seats); err != nil {
		return nil, ErrDecode(err)
	}
	return seats, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("seatapi: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &seat.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return nil, &seat.NetworkError{Err: err}
	}

	c.logger.Debug("seat api request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, c.responseError(resp, body)
}

// responseError maps a non-2xx response onto the seat error taxonomy
func (c *Client) responseError(resp *http.Response, body []byte) error {
	message := errorMessage(body)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &seat.RateLimitedError{
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
			Message:    message,
		}
	}
	return &seat.ServerError{Status: resp.StatusCode, Message: message}
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// MaxRetryAfter caps the wait a Retry-After header can ask for
const MaxRetryAfter = 24 * time.Hour

// ParseRetryAfter parses a Retry-After header given as delta-seconds or an
// HTTP date. It returns 0 when the header is absent, malformed or not in
// the future, and at most MaxRetryAfter.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0
		}
		if secs >= MaxRetryAfter.Seconds() {
			return MaxRetryAfter
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return min(d, MaxRetryAfter)
		}
	}
	return 0
}
