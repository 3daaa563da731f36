// Package agelookup resolves token age through a block-explorer account
// API: the timestamp of the first transaction ever recorded for an address.
package agelookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bsc-token-sniper/internal/freshness"
	"bsc-token-sniper/internal/retry"
)

// DefaultTimeout bounds a single explorer request.
const DefaultTimeout = 10 * time.Second

// Client queries a BscScan-compatible explorer API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	policy  retry.Policy
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient creates an explorer client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
		policy:  retry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ freshness.AgeLookup = (*Client)(nil)

type txListResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type txEntry struct {
	TimeStamp string `json:"timeStamp"`
}

// FirstTxTimestamp returns the timestamp of the first transaction for the
// address, or freshness.ErrNoHistory when the explorer has none.
func (c *Client) FirstTxTimestamp(ctx context.Context, tokenAddress string) (time.Time, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", tokenAddress)
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("page", "1")
	params.Set("offset", "1")
	params.Set("sort", "asc")
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	// Empty history is a definitive answer, not a transient failure, so it
	// short-circuits the retry loop.
	var first time.Time
	var noHistory bool
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		ts, err := c.fetchFirstTx(ctx, params)
		if errors.Is(err, freshness.ErrNoHistory) {
			noHistory = true
			return nil
		}
		if err != nil {
			return err
		}
		first = ts
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	if noHistory {
		return time.Time{}, freshness.ErrNoHistory
	}
	return first, nil
}

func (c *Client) fetchFirstTx(ctx context.Context, params url.Values) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("build explorer request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("explorer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("explorer status %d", resp.StatusCode)
	}

	var payload txListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return time.Time{}, fmt.Errorf("decode explorer response: %w", err)
	}

	// The explorer returns result as an array on success and as an error
	// string otherwise; an unparseable result counts as no history.
	var txs []txEntry
	if err := json.Unmarshal(payload.Result, &txs); err != nil || len(txs) == 0 {
		return time.Time{}, freshness.ErrNoHistory
	}

	unix, err := strconv.ParseInt(txs[0].TimeStamp, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse first tx timestamp %q: %w", txs[0].TimeStamp, err)
	}
	return time.Unix(unix, 0).UTC(), nil
}
