// Package client implements the HTTP client used to talk to the EDGAR
// archives. It throttles requests to stay under the SEC's fair-access
// rate limit, retries failed requests a configurable number of times,
// and knows how to recognize EDGAR's error pages.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.sec.gov/"

// EDGAR reports some lookup failures with a 200 status and an error
// message in the body, so the body has to be inspected too.
var errorMarkers = []string{
	"The value you submitted is not valid",
	"No matching Ticker Symbol.",
	"No matching CIK.",
	"No matching companies.",
}

// QueryError is returned when EDGAR rejects a request, either through a
// bad status code or an error message embedded in the response body.
type QueryError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *QueryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("edgar query failed (%d): %s: %s", e.StatusCode, e.Message, e.URL)
	}
	return fmt.Sprintf("edgar query failed: %s: %s", e.Message, e.URL)
}

// Response holds the parts of an HTTP response the rest of the system
// cares about.
type Response struct {
	StatusCode int
	Body       string
	URL        string
}

// Client is a rate-limited http client for interacting with EDGAR.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	retryCount  int
	pause       time.Duration
	rateLimit   int
	log         logrus.FieldLogger
}

// Option allows for customization of the client.
type Option func(*Client)

// WithHTTPClient allows custom HTTP client configuration.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets a custom user agent string. The SEC requires a
// user agent of the form "Company Name contact@email.com".
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithBaseURL overrides the EDGAR base address. Mostly useful in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/") + "/"
	}
}

// WithRetryCount sets how many times a failed request is retried.
func WithRetryCount(retryCount int) Option {
	return func(c *Client) {
		c.retryCount = retryCount
	}
}

// WithPause sets the wait between retries of a failed request.
func WithPause(pause time.Duration) Option {
	return func(c *Client) {
		c.pause = pause
	}
}

// WithRateLimit sets the number of requests per second the client will
// issue. EDGAR bans clients exceeding 10 requests per second.
func WithRateLimit(rateLimit int) Option {
	return func(c *Client) {
		c.rateLimit = rateLimit
	}
}

// WithLogger sets the logger used for download progress.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a new EDGAR client. Configuration is validated eagerly so
// that a bad rate limit or retry count fails here rather than on the
// first network call.
func New(options ...Option) (*Client, error) {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "CompanyName <contact@email.com>",
		retryCount: 3,
		pause:      500 * time.Millisecond,
		rateLimit:  10,
		log:        logrus.StandardLogger(),
	}

	for _, option := range options {
		option(client)
	}

	if client.rateLimit <= 0 || client.rateLimit > 10 {
		return nil, fmt.Errorf("rate limit must be between 1 and 10, got %d", client.rateLimit)
	}
	if client.retryCount < 0 {
		return nil, fmt.Errorf("retry count must not be negative, got %d", client.retryCount)
	}
	if client.pause < 0 {
		return nil, fmt.Errorf("pause must not be negative, got %s", client.pause)
	}

	client.rateLimiter = rate.NewLimiter(rate.Limit(client.rateLimit), client.rateLimit)
	return client, nil
}

// URL joins a relative EDGAR path onto the client's base address.
func (c *Client) URL(path string) string {
	return c.baseURL + strings.TrimPrefix(path, "/")
}

// RateLimit returns the configured requests-per-second budget.
func (c *Client) RateLimit() int {
	return c.rateLimit
}

// GetResponse fetches a relative EDGAR path and returns the response
// body. Requests failing validation are retried up to the configured
// retry count with a fixed pause in between.
func (c *Client) GetResponse(ctx context.Context, path string, params url.Values) (*Response, error) {
	fullURL := c.URL(path)
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pause):
			}
		}

		resp, err := c.get(ctx, fullURL)
		if err != nil {
			lastErr = err
			continue
		}
		if err := validateResponse(resp); err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

// GetDocument fetches a relative EDGAR path and parses the body as an
// HTML document.
func (c *Client) GetDocument(ctx context.Context, path string, params url.Values) (*goquery.Document, error) {
	resp, err := c.GetResponse(ctx, path, params)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return doc, nil
}

// Fetch retrieves the raw contents of an absolute URL.
func (c *Client) Fetch(ctx context.Context, fullURL string) ([]byte, error) {
	resp, err := c.get(ctx, fullURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &QueryError{
			StatusCode: resp.StatusCode,
			URL:        fullURL,
			Message:    "unexpected status code",
		}
	}
	return []byte(resp.Body), nil
}

func (c *Client) get(ctx context.Context, fullURL string) (*Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		URL:        fullURL,
	}, nil
}

func validateResponse(resp *Response) error {
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return &QueryError{
			StatusCode: resp.StatusCode,
			URL:        resp.URL,
			Message:    "the page does not exist",
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &QueryError{
			StatusCode: resp.StatusCode,
			URL:        resp.URL,
			Message:    "rate limit hit, SEC temporarily bans IPs exceeding it",
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &QueryError{
			StatusCode: resp.StatusCode,
			URL:        resp.URL,
			Message:    "client-side error",
		}
	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		return &QueryError{
			StatusCode: resp.StatusCode,
			URL:        resp.URL,
			Message:    "server-side error",
		}
	}
	for _, marker := range errorMarkers {
		if strings.Contains(resp.Body, marker) {
			return &QueryError{
				StatusCode: resp.StatusCode,
				URL:        resp.URL,
				Message:    marker,
			}
		}
	}
	if resp.StatusCode != http.StatusOK {
		return &QueryError{
			StatusCode: resp.StatusCode,
			URL:        resp.URL,
			Message:    "unexpected status code",
		}
	}
	return nil
}
