package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cesargomez89/radioqueue/internal/constants"
)

// Client spaces requests to one upstream and retries throttled responses.
type Client struct {
	lastRequest        time.Time
	httpClient         *http.Client
	userAgent          string
	minRequestInterval time.Duration
	mu                 sync.Mutex
}

// NewClient creates a paced client. A nil httpClient gets a default with a
// bounded timeout.
func NewClient(httpClient *http.Client, minRequestInterval time.Duration, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: constants.SearchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	return &Client{
		httpClient:         httpClient,
		minRequestInterval: minRequestInterval,
		userAgent:          userAgent,
	}
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// GetJSON issues a GET and decodes a 2xx JSON body into out. Other statuses
// yield a *StatusError.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Do executes req with pacing and retries. 429 and 503 responses are retried
// honouring Retry-After.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var lastErr error
	for attempt := 0; attempt < constants.DefaultRetryCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := sleep(ctx, c.claimSlot()); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if sleepErr := sleep(ctx, backoff(attempt)); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		if resp.StatusCode != http.StatusServiceUnavailable && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		retryAfter := parseRetryAfter(resp)
		_ = resp.Body.Close()
		lastErr = fmt.Errorf("rate limited (status %d)", resp.StatusCode)

		wait := backoff(attempt)
		if retryAfter > wait {
			wait = retryAfter
		}
		if retryAfter > 0 {
			c.pushBack(retryAfter)
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// claimSlot reserves the next request time and returns how long to wait for it.
func (c *Client) claimSlot() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	next := c.lastRequest.Add(c.minRequestInterval)
	if now.Before(next) {
		c.lastRequest = next
		return next.Sub(now)
	}
	c.lastRequest = now
	return 0
}

func (c *Client) pushBack(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if next := time.Now().Add(d); c.lastRequest.Before(next) {
		c.lastRequest = next
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * constants.DefaultRetryBase
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter reads a Retry-After header and returns the duration to wait.
func parseRetryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		return time.Until(t)
	}
	return 0
}
