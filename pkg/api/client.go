package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/feedkit/pkg/feed"
	"github.com/dmitrymomot/feedkit/pkg/logger"
)

// Client talks to the hosted notifications platform: paginated feed fetches
// and batch status mutations. It implements feed.FetchClient and is safe
// for concurrent use.
type Client struct {
	baseURL   string
	apiKey    string
	userToken string
	userID    string
	feedID    string
	client    *http.Client
	log       *slog.Logger

	// timeoutOverride is applied after option processing so WithTimeout
	// and WithHTTPClient compose in either order.
	timeoutOverride time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default pooled HTTP client. Useful for custom
// transports, proxies, or testing. Nil clients are ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithUserToken attaches a signed user token sent as X-Feed-User-Token on
// every request. Required by platforms running in enhanced security mode.
func WithUserToken(token string) Option {
	return func(c *Client) {
		c.userToken = token
	}
}

// WithLogger sets the logger for the Client.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
// Ignored when WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeoutOverride = d
		}
	}
}

// New creates a platform API client scoped to one user's feed channel.
func New(baseURL, apiKey, userID, feedID string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if userID == "" || feedID == "" {
		return nil, ErrMissingFeedScope
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		userID:  userID,
		feedID:  feedID,
		log:     slog.Default(),
		client: &http.Client{
			Timeout: 30 * time.Second, // Per-request timeout, overridden by WithTimeout
			Transport: &http.Transport{
				MaxIdleConns:        100,              // Total connections across all hosts
				MaxIdleConnsPerHost: 10,               // Connections per endpoint
				IdleConnTimeout:     90 * time.Second, // Close idle connections after 90s
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeoutOverride > 0 {
		c.client.Timeout = c.timeoutOverride
	}
	return c, nil
}

// FetchFeed requests one page of the feed for the given query and cursors.
func (c *Client) FetchFeed(ctx context.Context, req feed.FeedRequest) (*feed.FeedResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/feeds/%s", c.baseURL, url.PathEscape(c.userID), url.PathEscape(c.feedID))

	q := url.Values{}
	q.Set("status", string(req.Query.Status))
	q.Set("archived", string(req.Query.Archived))
	q.Set("order", string(req.Query.Order))
	q.Set("page_size", strconv.Itoa(req.Query.PageSize))
	if req.Query.Tenant != "" {
		q.Set("tenant", req.Query.Tenant)
	}
	for _, cat := range req.Query.WorkflowCategories {
		q.Add("workflow_categories[]", cat)
	}
	if len(req.Query.TriggerData) > 0 {
		td, err := json.Marshal(req.Query.TriggerData)
		if err != nil {
			return nil, fmt.Errorf("api: encode trigger data: %w", err)
		}
		q.Set("trigger_data", string(td))
	}
	if req.After != "" {
		q.Set("after", req.After)
	}
	if req.Before != "" {
		q.Set("before", req.Before)
	}

	var resp feed.FeedResponse
	if err := c.do(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateStatus applies one lifecycle mutation to a batch of items.
func (c *Client) UpdateStatus(ctx context.Context, update feed.StatusUpdate) (*feed.StatusResponse, error) {
	if len(update.ItemIDs) == 0 {
		return &feed.StatusResponse{}, nil
	}

	endpoint := fmt.Sprintf("%s/v1/messages/batch/%s", c.baseURL, url.PathEscape(string(update.Kind)))
	body := struct {
		MessageIDs []string `json:"message_ids"`
	}{MessageIDs: update.ItemIDs}

	var resp feed.StatusResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userToken != "" {
		req.Header.Set("X-Feed-User-Token", c.userToken)
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	c.log.LogAttrs(ctx, slog.LevelDebug, "api request completed",
		logger.Component("api"),
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		logger.Duration(time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// decodeError maps a non-2xx response to a typed *Error, wrapping the
// well-known sentinels so callers can branch with errors.Is.
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
	}
	return apiErr
}
