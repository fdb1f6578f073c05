package dbl

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/dbl-go/pkg/httpclient"
)

const (
	// DefaultBaseURL is the API root. Endpoint paths are appended to it.
	DefaultBaseURL = "https://top.gg/api"

	defaultTimeout   = 30 * time.Second
	userAgentProduct = "dbl-go"
	userAgentVersion = "0.2"
)

// Client is the endpoint interface to the top.gg API. It holds no mutable
// state after construction and is safe for concurrent use.
type Client struct {
	token     string
	baseURL   string
	userAgent string
	timeout   time.Duration
	http      httpclient.Client
	log       Logger
}

// Option mutates the client during construction.
type Option func(*Client)

// WithBaseURL overrides the API root (useful for tests and proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient installs a custom transport.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the timeout of the default transport. It has no effect
// when WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUserAgent sets a custom User-Agent string.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = log }
}

// New constructs a Client authenticated with token.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMissing
	}
	c := &Client{
		token:     token,
		baseURL:   DefaultBaseURL,
		userAgent: defaultUserAgent(),
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(c.timeout)
	}
	c.baseURL = sanitizeBaseURL(c.baseURL)
	c.log = ensureLogger(c.log)
	return c, nil
}

// NewWithClient constructs a Client that sends requests through hc.
func NewWithClient(hc httpclient.Client, token string) (*Client, error) {
	return New(token, WithHTTPClient(hc))
}

// Bot fetches information about a bot.
func (c *Client) Bot(ctx context.Context, bot BotID) (*Bot, error) {
	var out Bot
	if err := c.get(ctx, "/bots/"+bot.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search lists bots matching filter.
func (c *Client) Search(ctx context.Context, filter Filter) (*Listing, error) {
	var out Listing
	if err := c.get(ctx, "/bots", filter.Values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches the sharding stats of a bot.
func (c *Client) Stats(ctx context.Context, bot BotID) (*Stats, error) {
	var out Stats
	if err := c.get(ctx, "/bots/"+bot.String()+"/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStats posts new sharding stats for a bot.
//
//	err := client.UpdateStats(ctx, bot, dbl.CumulativeStats{ServerCount: 1234})
func (c *Client) UpdateStats(ctx context.Context, bot BotID, stats ShardStats) error {
	if stats == nil {
		return fmt.Errorf("dbl: stats must not be nil")
	}
	_, err := c.request(ctx, http.MethodPost, "/bots/"+bot.String()+"/stats", nil, stats)
	return err
}

// Votes returns the last 1000 voters of a bot.
func (c *Client) Votes(ctx context.Context, bot BotID) ([]User, error) {
	var out []User
	if err := c.get(ctx, "/bots/"+bot.String()+"/votes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HasVoted reports whether user voted for bot in the past 24 hours.
func (c *Client) HasVoted(ctx context.Context, bot BotID, user UserID) (bool, error) {
	query := url.Values{"userId": {user.String()}}
	var out userVoted
	if err := c.get(ctx, "/bots/"+bot.String()+"/check", query, &out); err != nil {
		return false, err
	}
	return out.Voted > 0, nil
}

// User fetches information about a user.
func (c *Client) User(ctx context.Context, user UserID) (*DetailedUser, error) {
	var out DetailedUser
	if err := c.get(ctx, "/users/"+user.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	resp, err := c.request(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode(),
			Body:       bodySnippet(resp.Body()),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// request sends one call and maps the status code: 429 becomes a
// *RatelimitError, any other status >= 400 an *HTTPError.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) (httpclient.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	headers := map[string]string{
		"Authorization": c.token,
		"Accept":        "application/json",
	}
	if ua := strings.TrimSpace(c.userAgent); ua != "" {
		headers["User-Agent"] = ua
	}
	if body != nil {
		headers["Content-Type"] = "application/json"
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  method,
		URL:     target,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		c.log.WarnObj("dbl request failed", "dbl_request", map[string]any{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, &HTTPError{Err: err}
	}

	status := resp.StatusCode()
	c.log.DebugObj("dbl request", "dbl_request", map[string]any{
		"method":     method,
		"path":       path,
		"status":     status,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	switch {
	case status == http.StatusTooManyRequests:
		if rl := parseRatelimit(resp); rl != nil {
			return nil, rl
		}
		return nil, &HTTPError{StatusCode: status, Body: bodySnippet(resp.Body())}
	case status >= http.StatusBadRequest:
		return nil, &HTTPError{StatusCode: status, Body: bodySnippet(resp.Body())}
	}
	return resp, nil
}

// parseRatelimit reads retry_after from the body, falling back to the
// Retry-After header. Fractional seconds round up.
func parseRatelimit(resp httpclient.Response) *RatelimitError {
	var rl ratelimitBody
	if err := json.Unmarshal(resp.Body(), &rl); err == nil && rl.RetryAfter != nil && *rl.RetryAfter >= 0 {
		return &RatelimitError{RetryAfter: clampSeconds(*rl.RetryAfter)}
	}
	if h := resp.Header(); h != nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(h.Get("Retry-After")), 64); err == nil && v >= 0 {
			return &RatelimitError{RetryAfter: clampSeconds(v)}
		}
	}
	return nil
}

func clampSeconds(v float64) uint32 {
	v = math.Ceil(v)
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

func sanitizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

func defaultUserAgent() string {
	goVer := strings.TrimPrefix(runtime.Version(), "go")
	return fmt.Sprintf("%s/%s (+https://github.com/samvad-hq/dbl-go; Go%s; %s/%s)",
		userAgentProduct, userAgentVersion, goVer, runtime.GOOS, runtime.GOARCH)
}
