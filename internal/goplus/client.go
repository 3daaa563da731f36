// Package goplus fetches token risk attributes from a GoPlus-compatible
// token security API and normalizes the stringly payload into typed
// domain attributes.
package goplus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/retry"
)

const (
	// DefaultBaseURL is the public GoPlus security API endpoint.
	DefaultBaseURL = "https://api.gopluslabs.io"

	// DefaultChainID targets BNB Smart Chain.
	DefaultChainID = "56"

	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 15 * time.Second
)

// Client queries the token security API.
type Client struct {
	baseURL string
	chainID string
	apiKey  string
	client  *http.Client
	policy  retry.Policy
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithChainID overrides the target chain.
func WithChainID(chainID string) Option {
	return func(c *Client) { c.chainID = chainID }
}

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient creates a token security API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		chainID: DefaultChainID,
		client:  &http.Client{Timeout: DefaultTimeout},
		policy:  retry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type securityResponse struct {
	Code    int                        `json:"code"`
	Message string                     `json:"message"`
	Result  map[string]json.RawMessage `json:"result"`
}

// TokenSecurity fetches and parses risk attributes for a token. A response
// that carries no entry for the token yields attributes with Valid=false,
// which the scorer treats as an unknown token.
func (c *Client) TokenSecurity(ctx context.Context, tokenAddress string) (domain.RiskAttributes, error) {
	endpoint := fmt.Sprintf("%s/api/v1/token_security/%s?contract_addresses=%s",
		c.baseURL, c.chainID, strings.ToLower(tokenAddress))

	var attrs domain.RiskAttributes
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		parsed, err := c.fetchSecurity(ctx, endpoint, tokenAddress)
		if err != nil {
			return err
		}
		attrs = parsed
		return nil
	})
	if err != nil {
		return domain.RiskAttributes{}, err
	}
	return attrs, nil
}

func (c *Client) fetchSecurity(ctx context.Context, endpoint, tokenAddress string) (domain.RiskAttributes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.RiskAttributes{}, fmt.Errorf("build security request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.RiskAttributes{}, fmt.Errorf("security request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RiskAttributes{}, fmt.Errorf("security API status %d", resp.StatusCode)
	}

	var payload securityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.RiskAttributes{}, fmt.Errorf("decode security response: %w", err)
	}

	// Result keys are lowercased token addresses.
	raw, ok := payload.Result[strings.ToLower(tokenAddress)]
	if !ok {
		return domain.RiskAttributes{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.RiskAttributes{}, fmt.Errorf("decode token entry: %w", err)
	}
	return ParseAttributes(fields), nil
}

// ParseAttributes converts the API's stringly token entry into typed risk
// attributes. Missing keys take zero values; only a fully empty entry marks
// the attributes invalid. The API reports taxes as fractions ("0.05" is a
// 5% tax) and dex listing as "is_in_dex"; attributes carry taxes in percent
// and the listing flag as IsTrading.
func ParseAttributes(fields map[string]json.RawMessage) domain.RiskAttributes {
	if len(fields) == 0 {
		return domain.RiskAttributes{}
	}
	return domain.RiskAttributes{
		Valid:                   true,
		TokenName:               parseString(fields, "token_name"),
		TokenSymbol:             parseString(fields, "token_symbol"),
		IsHoneypot:              parseFlag(fields, "is_honeypot"),
		HoneypotWithSameCreator: parseFlag(fields, "honeypot_with_same_creator"),
		TotalSupply:             parseNumber(fields, "total_supply"),
		LPTotalSupply:           parseNumber(fields, "lp_total_supply"),
		HolderCount:             int(parseNumber(fields, "holder_count")),
		IsTrading:               parseFlag(fields, "is_in_dex"),
		IsOpenSource:            parseFlag(fields, "is_open_source"),
		BuyTaxPct:               parseNumber(fields, "buy_tax") * 100,
		SellTaxPct:              parseNumber(fields, "sell_tax") * 100,
		IsMintable:              parseFlag(fields, "is_mintable"),
		CanTakeBackOwnership:    parseFlag(fields, "can_take_back_ownership"),
		OwnerChangeBalance:      parseFlag(fields, "owner_change_balance"),
		CannotSellAll:           parseFlag(fields, "cannot_sell_all"),
		IsProxy:                 parseFlag(fields, "is_proxy"),
		ExternalCall:            parseFlag(fields, "external_call"),
		HiddenOwner:             parseFlag(fields, "hidden_owner"),
	}
}

// parseFlag reads a "0"/"1" field. The API is inconsistent about quoting,
// so bare numbers are accepted too.
func parseFlag(fields map[string]json.RawMessage, key string) bool {
	return parseNumber(fields, key) == 1
}

func parseString(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

func parseNumber(fields map[string]json.RawMessage, key string) float64 {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	text := strings.Trim(string(raw), `"`)
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return value
}
