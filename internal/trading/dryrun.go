package trading

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bsc-token-sniper/internal/domain"
)

// BalanceSource reads a wallet's native balance in wei.
type BalanceSource interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
}

// DryRunExecutor fills trades at the router quote without touching the
// chain. It is the default executor; live signing sits behind the same
// interface.
type DryRunExecutor struct {
	quoter  *Quoter
	log     *logrus.Logger
	counter atomic.Uint64

	// Optional funds check against a real wallet.
	balances   BalanceSource
	wallet     string
	gasReserve decimal.Decimal
}

// DryRunOption configures a DryRunExecutor.
type DryRunOption func(*DryRunExecutor)

// WithWallet enables a pre-buy balance check: buys fail with
// ErrInsufficientFunds when the wallet cannot cover the amount plus the gas
// reserve.
func WithWallet(balances BalanceSource, address string, gasReserve decimal.Decimal) DryRunOption {
	return func(e *DryRunExecutor) {
		e.balances = balances
		e.wallet = address
		e.gasReserve = gasReserve
	}
}

// NewDryRunExecutor creates a simulated executor backed by real quotes.
func NewDryRunExecutor(quoter *Quoter, log *logrus.Logger, opts ...DryRunOption) *DryRunExecutor {
	if log == nil {
		log = logrus.New()
	}
	e := &DryRunExecutor{quoter: quoter, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile-time interface check.
var _ Executor = (*DryRunExecutor)(nil)

// Buy simulates swapping BNB for tokens at the current quote.
func (e *DryRunExecutor) Buy(ctx context.Context, tokenAddress string, amountBNB decimal.Decimal) (*domain.TradeResult, error) {
	if err := e.checkFunds(ctx, amountBNB); err != nil {
		return &domain.TradeResult{Err: err.Error()}, err
	}

	tokens, err := e.quoter.TokensForBNB(ctx, tokenAddress, amountBNB)
	if err != nil {
		return &domain.TradeResult{Err: err.Error()}, fmt.Errorf("quote buy: %w", err)
	}

	result := &domain.TradeResult{
		Success:      true,
		TxHash:       e.nextTxHash("buy"),
		AmountBNB:    amountBNB,
		AmountTokens: tokens,
		SlippagePct:  DefaultBuySlippagePct,
		Timestamp:    time.Now().UTC(),
	}
	e.log.WithFields(logrus.Fields{
		"token":  tokenAddress,
		"bnb":    amountBNB.String(),
		"tokens": tokens,
	}).Info("dry-run buy filled")
	return result, nil
}

// Sell simulates swapping tokens for BNB at the current quote.
func (e *DryRunExecutor) Sell(ctx context.Context, tokenAddress string, amountTokens int64) (*domain.TradeResult, error) {
	proceeds, err := e.quoter.BNBForTokens(ctx, tokenAddress, amountTokens)
	if err != nil {
		return &domain.TradeResult{Err: err.Error()}, fmt.Errorf("quote sell: %w", err)
	}

	result := &domain.TradeResult{
		Success:      true,
		TxHash:       e.nextTxHash("sell"),
		AmountBNB:    proceeds,
		AmountTokens: amountTokens,
		SlippagePct:  DefaultSellSlippagePct,
		Timestamp:    time.Now().UTC(),
	}
	e.log.WithFields(logrus.Fields{
		"token":    tokenAddress,
		"tokens":   amountTokens,
		"proceeds": proceeds.String(),
	}).Info("dry-run sell filled")
	return result, nil
}

// TokenPrice quotes the BNB price of one whole token.
func (e *DryRunExecutor) TokenPrice(ctx context.Context, tokenAddress string) (decimal.Decimal, error) {
	return e.quoter.TokenPrice(ctx, tokenAddress)
}

func (e *DryRunExecutor) nextTxHash(side string) string {
	return fmt.Sprintf("dryrun-%s-%d", side, e.counter.Add(1))
}

// checkFunds verifies the wallet covers the buy plus the gas reserve.
// A no-op unless a wallet is configured.
func (e *DryRunExecutor) checkFunds(ctx context.Context, amountBNB decimal.Decimal) error {
	if e.balances == nil {
		return nil
	}
	wei, err := e.balances.Balance(ctx, e.wallet)
	if err != nil {
		return fmt.Errorf("read wallet balance: %w", err)
	}
	balance := weiToBNB(wei)
	if balance.LessThan(amountBNB.Add(e.gasReserve)) {
		e.log.WithFields(logrus.Fields{
			"balance":  balance.String(),
			"required": amountBNB.Add(e.gasReserve).String(),
		}).Warn("wallet cannot cover buy")
		return ErrInsufficientFunds
	}
	return nil
}
