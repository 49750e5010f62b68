// Package github provides a rate-limited client for the GitHub search
// and content APIs.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the GitHub REST API base URL.
	BaseURL = "https://api.github.com"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultRateLimit paces requests well under the search API budget.
	DefaultRateLimit = 0.7

	// DefaultRateLimitBuffer is the remaining-quota margin under which
	// the client blocks until the quota resets.
	DefaultRateLimitBuffer = 10

	// DefaultMaxRetries bounds retries for transient failures.
	DefaultMaxRetries = 3

	// maxReadmeBytes caps README downloads. Anything longer is truncated
	// and treated as thin evidence, never as an error.
	maxReadmeBytes = 512 * 1024
)

// quotaState mirrors the X-RateLimit response headers.
type quotaState struct {
	limit     int
	remaining int
	reset     time.Time
}

// Client is a rate-limited GitHub API client. It is not safe for
// concurrent use; runs are single-threaded by design.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	buffer     int
	maxRetries int
	backoff    time.Duration
	quota      quotaState
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the API token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the request pacing in requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// WithRateLimitBuffer sets the remaining-quota safety margin.
func WithRateLimitBuffer(n int) ClientOption {
	return func(c *Client) { c.buffer = n }
}

// WithRetry sets the retry budget and base backoff for transient errors.
func WithRetry(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.backoff = backoff
	}
}

// NewClient creates a GitHub API client. It reads GITHUB_TOKEN from the
// environment unless WithToken overrides it.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		token:      os.Getenv("GITHUB_TOKEN"),
		baseURL:    BaseURL,
		buffer:     DefaultRateLimitBuffer,
		maxRetries: DefaultMaxRetries,
		backoff:    time.Second,
		quota:      quotaState{limit: 60, remaining: 60},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quota returns the last observed rate limit state.
func (c *Client) Quota() (limit, remaining int, reset time.Time) {
	return c.quota.limit, c.quota.remaining, c.quota.reset
}

// waitForQuota blocks until the quota resets when the remaining budget is
// under the safety buffer. This is a scheduling suspension, not an error.
func (c *Client) waitForQuota(ctx context.Context) error {
	if c.quota.remaining >= c.buffer {
		return nil
	}
	wait := time.Until(c.quota.reset)
	if wait <= 0 {
		return nil
	}
	fmt.Fprintf(os.Stderr, "rate limit low (%d remaining), waiting %s until reset\n",
		c.quota.remaining, wait.Round(time.Second))
	return sleepCtx(ctx, wait+time.Second)
}

func (c *Client) updateQuota(resp *http.Response) {
	if v := resp.Header.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.quota.limit = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.quota.remaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil && ts > 0 {
			c.quota.reset = time.Unix(ts, 0)
		}
	}
}

// get performs a GET with quota waiting, pacing, and bounded retries for
// transient failures. The decoded JSON lands in out.
func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.backoff<<(attempt-1)); err != nil {
				return err
			}
		}

		if err := c.waitForQuota(ctx); err != nil {
			return err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.getOnce(ctx, rawURL, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrTransient, lastErr)
}

// getOnce performs a single request. The first return tells the caller
// whether the failure is worth retrying.
func (c *Client) getOnce(ctx context.Context, rawURL string, out any) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "weightwatch")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, err
	}
	defer resp.Body.Close()
	c.updateQuota(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return false, ErrNotFound
	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			// Primary rate limit: wait for reset, then retry.
			if waitErr := sleepCtx(ctx, time.Until(c.quota.reset)+time.Second); waitErr != nil {
				return false, waitErr
			}
			return true, ErrRateLimited
		}
		if after := resp.Header.Get("Retry-After"); after != "" {
			// Secondary (abuse) rate limit.
			if secs, convErr := strconv.Atoi(after); convErr == nil {
				if waitErr := sleepCtx(ctx, time.Duration(secs)*time.Second); waitErr != nil {
					return false, waitErr
				}
				return true, ErrRateLimited
			}
		}
		return false, ErrUnauthorized
	case http.StatusUnauthorized:
		return false, ErrUnauthorized
	default:
		err := statusError(resp.StatusCode, rawURL)
		return IsTransient(err), err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReadmeBytes*4))
	if err != nil {
		// Truncated bodies happen; retry once with backoff rather than
		// failing the whole query.
		return true, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return true, fmt.Errorf("decoding response: %w", err)
	}
	return false, nil
}

// searchResponse is the search API envelope.
type searchResponse struct {
	TotalCount int       `json:"total_count"`
	Items      []apiRepo `json:"items"`
}

// apiRepo is the subset of repository fields the tracker consumes.
type apiRepo struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Topics      []string `json:"topics"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// SearchRepos runs one repository search pass. Sort is "stars",
// "updated", or empty for best match. Results are capped at maxResults
// with transparent pagination.
func (c *Client) SearchRepos(ctx context.Context, query string, minStars int, createdAfter string, sort string, maxResults int) ([]Hit, error) {
	full := fmt.Sprintf("%s in:name,description,readme stars:>=%d", query, minStars)
	if createdAfter != "" {
		full += " created:>=" + createdAfter
	}

	perPage := maxResults
	if perPage > 100 {
		perPage = 100
	}

	var hits []Hit
	for page := 1; len(hits) < maxResults; page++ {
		u := fmt.Sprintf("%s/search/repositories?q=%s&per_page=%d&page=%d",
			c.baseURL, url.QueryEscape(full), perPage, page)
		if sort != "" {
			u += "&sort=" + sort + "&order=desc"
		}

		var resp searchResponse
		if err := c.get(ctx, u, &resp); err != nil {
			return nil, err
		}
		if len(resp.Items) == 0 {
			break
		}

		for _, item := range resp.Items {
			hits = append(hits, hitFromAPI(item))
			if len(hits) >= maxResults {
				break
			}
		}
		if len(resp.Items) < perPage {
			break
		}
	}

	return hits, nil
}

// readmeResponse is the contents API envelope for a README.
type readmeResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetReadme fetches and decodes a repository README. A missing README or
// an undecodable payload returns empty text, which downstream detection
// treats as insufficient evidence.
func (c *Client) GetReadme(ctx context.Context, owner, repo string) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/readme", c.baseURL, owner, repo)

	var resp readmeResponse
	if err := c.get(ctx, u, &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	raw := strings.ReplaceAll(resp.Content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", nil
	}
	if len(decoded) > maxReadmeBytes {
		decoded = decoded[:maxReadmeBytes]
	}
	return string(decoded), nil
}

func hitFromAPI(item apiRepo) Hit {
	return Hit{
		FullName:    item.FullName,
		Name:        item.Name,
		URL:         item.HTMLURL,
		Stars:       item.Stars,
		Description: clip(item.Description, 200),
		Topics:      item.Topics,
		CreatedAt:   clip(item.CreatedAt, 10),
		UpdatedAt:   clip(item.UpdatedAt, 10),
	}
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
