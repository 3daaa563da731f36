// Package config loads bot configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BSC mainnet contract addresses.
const (
	DefaultRouterAddress  = "0x10ed43c718714eb63d5aa57b78b54704e256024e"
	DefaultFactoryAddress = "0xca143ce32fe78f1f7019d7d551a6402fc5350c73"
	DefaultWBNBAddress    = "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
)

// Config holds the full bot configuration. Zero-value fields are filled
// with defaults by Load.
type Config struct {
	// Chain endpoints.
	RPCEndpoint string
	WSEndpoint  string
	ChainID     int

	// Contract addresses.
	RouterAddress  string
	FactoryAddress string
	WBNBAddress    string

	// External providers.
	GoPlusAPIKey   string
	ExplorerAPIURL string
	ExplorerAPIKey string

	// Storage. PostgresDSN empty means the JSON portfolio file is used.
	PostgresDSN   string
	ClickhouseDSN string
	PortfolioPath string

	// Telegram notifications. Disabled when the token is empty.
	TelegramToken  string
	TelegramChatID string

	// WalletAddress enables the pre-buy funds check when set.
	WalletAddress string

	// Trading parameters.
	BuyAmountBNB     decimal.Decimal
	GasReserveBNB    decimal.Decimal
	BuySlippagePct   float64
	SellSlippagePct  float64
	MaxTrackedTokens int
	ProfitTake5xPct  float64
	ProfitTake10xPct float64
	MonitorInterval  time.Duration

	// Discovery and analysis parameters.
	MaxTokenAgeMinutes float64
	FreshThreshold     int
	StandardThreshold  int
	MinHoldersCount    int
	MaxRetries         int
	RetryDelay         time.Duration
	Denylist           []string

	// HTTP API.
	APIAddr     string
	MetricsAddr string
}

// defaultDenylist covers established tokens that show up in fresh pools but
// are never snipe candidates.
var defaultDenylist = []string{
	"0x55d398326f99059ff775485246999027b3197955", // USDT
	"0xe9e7cea3dedca5984780bafc599bd69add087d56", // BUSD
	"0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d", // USDC
	DefaultWBNBAddress,                            // WBNB
	"0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82", // CAKE
	"0x7130d2a12b9bcbfae4f2634d864a1ee1ce3ead9c", // BTCB
	"0x2170ed0880ac9a755fd29b2688956bd959f933f8", // ETH
}

// Load builds a Config from the environment, applying defaults for every
// unset variable.
func Load() (*Config, error) {
	cfg := &Config{
		RPCEndpoint:    os.Getenv("BSC_RPC_ENDPOINT"),
		WSEndpoint:     os.Getenv("BSC_WS_ENDPOINT"),
		ChainID:        envInt("BSC_CHAIN_ID", 56),
		RouterAddress:  envString("ROUTER_ADDRESS", DefaultRouterAddress),
		FactoryAddress: envString("FACTORY_ADDRESS", DefaultFactoryAddress),
		WBNBAddress:    envString("WBNB_ADDRESS", DefaultWBNBAddress),

		GoPlusAPIKey:   os.Getenv("GOPLUS_API_KEY"),
		ExplorerAPIURL: envString("EXPLORER_API_URL", "https://api.bscscan.com/api"),
		ExplorerAPIKey: os.Getenv("EXPLORER_API_KEY"),

		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN: os.Getenv("CLICKHOUSE_DSN"),
		PortfolioPath: envString("PORTFOLIO_PATH", "portfolio.json"),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),
		WalletAddress:  strings.ToLower(os.Getenv("WALLET_ADDRESS")),

		BuySlippagePct:   envFloat("BUY_SLIPPAGE_PCT", 12.0),
		SellSlippagePct:  envFloat("SELL_SLIPPAGE_PCT", 15.0),
		MaxTrackedTokens: envInt("MAX_TRACKED_TOKENS", 1000),
		ProfitTake5xPct:  envFloat("PROFIT_TAKE_5X_PCT", 25.0),
		ProfitTake10xPct: envFloat("PROFIT_TAKE_10X_PCT", 25.0),
		MonitorInterval:  envDuration("MONITOR_INTERVAL", 30*time.Second),

		MaxTokenAgeMinutes: envFloat("MAX_TOKEN_AGE_MINUTES", 3.0),
		FreshThreshold:     envInt("FRESH_SECURITY_THRESHOLD", 60),
		StandardThreshold:  envInt("SECURITY_THRESHOLD", 80),
		MinHoldersCount:    envInt("MIN_HOLDERS_COUNT", 1),
		MaxRetries:         envInt("MAX_RETRIES", 3),
		RetryDelay:         envDuration("RETRY_DELAY", 2*time.Second),

		APIAddr:     envString("API_ADDR", ":8080"),
		MetricsAddr: envString("METRICS_ADDR", ":9090"),
	}

	var err error
	if cfg.BuyAmountBNB, err = envDecimal("BUY_AMOUNT_BNB", "0.000008"); err != nil {
		return nil, err
	}
	if cfg.GasReserveBNB, err = envDecimal("GAS_RESERVE_BNB", "0.0008"); err != nil {
		return nil, err
	}

	if raw := os.Getenv("TOKEN_DENYLIST"); raw != "" {
		for _, addr := range strings.Split(raw, ",") {
			if addr = strings.ToLower(strings.TrimSpace(addr)); addr != "" {
				cfg.Denylist = append(cfg.Denylist, addr)
			}
		}
	} else {
		cfg.Denylist = append([]string(nil), defaultDenylist...)
	}

	return cfg, nil
}

// Validate checks required fields and parameter ranges.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("BSC_RPC_ENDPOINT is required")
	}
	if c.BuyAmountBNB.Sign() <= 0 {
		return fmt.Errorf("buy amount must be positive, got %s", c.BuyAmountBNB)
	}
	if c.MaxTrackedTokens <= 0 {
		return fmt.Errorf("max tracked tokens must be positive, got %d", c.MaxTrackedTokens)
	}
	if c.MaxTokenAgeMinutes <= 0 {
		return fmt.Errorf("max token age must be positive, got %f", c.MaxTokenAgeMinutes)
	}
	if c.FreshThreshold < 0 || c.FreshThreshold > 100 {
		return fmt.Errorf("fresh threshold out of range: %d", c.FreshThreshold)
	}
	if c.StandardThreshold < 0 || c.StandardThreshold > 100 {
		return fmt.Errorf("standard threshold out of range: %d", c.StandardThreshold)
	}
	if c.ProfitTake5xPct < 0 || c.ProfitTake5xPct > 100 ||
		c.ProfitTake10xPct < 0 || c.ProfitTake10xPct > 100 {
		return fmt.Errorf("profit take percents must be within 0..100")
	}
	if c.TelegramToken != "" && c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

// Denylisted reports whether a token address is excluded from sniping.
func (c *Config) Denylisted(address string) bool {
	address = strings.ToLower(address)
	for _, d := range c.Denylist {
		if d == address {
			return true
		}
	}
	return false
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envDecimal(key, fallback string) (decimal.Decimal, error) {
	raw := envString(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q", key, raw)
	}
	return d, nil
}
