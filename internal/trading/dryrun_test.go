package trading

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestDryRunExecutor_Buy(t *testing.T) {
	tokensOut := new(big.Int).Mul(big.NewInt(1000), tokenUnit)
	node := &callCapture{out: []*big.Int{big.NewInt(8000000000000), tokensOut}}
	exec := NewDryRunExecutor(NewQuoter(node, testRouter, testWBNB), quietLogger())

	result, err := exec.Buy(context.Background(), testToken, bnb("0.000008"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("dry-run buy should succeed")
	}
	if result.AmountTokens != 1000 {
		t.Errorf("expected 1000 tokens, got %d", result.AmountTokens)
	}
	if !result.AmountBNB.Equal(bnb("0.000008")) {
		t.Errorf("expected BNB spent to match order, got %s", result.AmountBNB)
	}
	if result.SlippagePct != DefaultBuySlippagePct {
		t.Errorf("expected buy slippage %v, got %v", DefaultBuySlippagePct, result.SlippagePct)
	}
	if result.TxHash == "" || result.Timestamp.IsZero() {
		t.Errorf("missing fill provenance: %+v", result)
	}
}

func TestDryRunExecutor_Sell(t *testing.T) {
	node := &callCapture{out: []*big.Int{
		new(big.Int).Mul(big.NewInt(250), tokenUnit),
		big.NewInt(40000000000000),
	}}
	exec := NewDryRunExecutor(NewQuoter(node, testRouter, testWBNB), quietLogger())

	result, err := exec.Sell(context.Background(), testToken, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.AmountTokens != 250 {
		t.Errorf("unexpected fill %+v", result)
	}
	if !result.AmountBNB.Equal(bnb("0.00004")) {
		t.Errorf("expected 0.00004 BNB proceeds, got %s", result.AmountBNB)
	}
	if result.SlippagePct != DefaultSellSlippagePct {
		t.Errorf("expected sell slippage %v, got %v", DefaultSellSlippagePct, result.SlippagePct)
	}
}

func TestDryRunExecutor_TxHashesAreUnique(t *testing.T) {
	node := &callCapture{out: []*big.Int{big.NewInt(1), new(big.Int).Mul(big.NewInt(10), tokenUnit)}}
	exec := NewDryRunExecutor(NewQuoter(node, testRouter, testWBNB), quietLogger())

	first, err := exec.Buy(context.Background(), testToken, bnb("0.000008"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := exec.Buy(context.Background(), testToken, bnb("0.000008"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TxHash == second.TxHash {
		t.Errorf("tx hashes must be unique, both %s", first.TxHash)
	}
}

func TestDryRunExecutor_PropagatesQuoteFailure(t *testing.T) {
	node := &callCapture{err: errors.New("execution reverted")}
	exec := NewDryRunExecutor(NewQuoter(node, testRouter, testWBNB), quietLogger())

	result, err := exec.Buy(context.Background(), testToken, bnb("0.000008"))
	if err == nil {
		t.Fatal("expected quote failure to propagate")
	}
	if result == nil || result.Success {
		t.Errorf("failed buy must not report success: %+v", result)
	}
	if result.Err == "" {
		t.Error("failure detail missing from result")
	}
}

type stubBalances struct {
	wei *big.Int
}

func (s *stubBalances) Balance(context.Context, string) (*big.Int, error) {
	return s.wei, nil
}

func TestDryRunExecutor_InsufficientFunds(t *testing.T) {
	node := &callCapture{out: []*big.Int{big.NewInt(1), new(big.Int).Mul(big.NewInt(10), tokenUnit)}}
	// Wallet holds 0.0005 BNB; reserve alone is 0.0008.
	balances := &stubBalances{wei: big.NewInt(500000000000000)}
	exec := NewDryRunExecutor(NewQuoter(node, testRouter, testWBNB), quietLogger(),
		WithWallet(balances, "0xwallet", bnb("0.0008")))

	result, err := exec.Buy(context.Background(), testToken, bnb("0.000008"))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if result.Success {
		t.Error("underfunded buy must not succeed")
	}

	// Fund the wallet; the same buy fills.
	balances.wei = big.NewInt(2000000000000000) // 0.002 BNB
	if _, err := exec.Buy(context.Background(), testToken, bnb("0.000008")); err != nil {
		t.Errorf("funded buy failed: %v", err)
	}
}

func TestDryRunExecutor_TokenPrice(t *testing.T) {
	node := &callCapture{out: []*big.Int{tokenUnit, big.NewInt(20000000000000)}}
	exec := NewDryRunExecutor(NewQuoter(node, testRouter, testWBNB), quietLogger())

	price, err := exec.TokenPrice(context.Background(), testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(bnb("0.00002")) {
		t.Errorf("expected 0.00002, got %s", price)
	}
}
