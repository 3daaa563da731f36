// Package trading quotes and executes swaps against a PancakeSwap-style
// V2 router.
package trading

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"bsc-token-sniper/internal/domain"
)

// Slippage tolerances applied to router quotes, in percent.
const (
	DefaultBuySlippagePct  = 12.0
	DefaultSellSlippagePct = 15.0
)

// Trade errors.
var (
	// ErrInsufficientFunds is returned when the wallet cannot cover the
	// trade plus the gas reserve.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoLiquidity is returned when the router has no route for a pair.
	ErrNoLiquidity = errors.New("no liquidity for pair")
)

// Executor performs swaps. Implementations decide whether trades hit the
// chain or are simulated.
type Executor interface {
	// Buy swaps BNB for tokens.
	Buy(ctx context.Context, tokenAddress string, amountBNB decimal.Decimal) (*domain.TradeResult, error)

	// Sell swaps tokens for BNB.
	Sell(ctx context.Context, tokenAddress string, amountTokens int64) (*domain.TradeResult, error)

	// TokenPrice quotes the current per-token price in BNB.
	TokenPrice(ctx context.Context, tokenAddress string) (decimal.Decimal, error)
}
