package portfolio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/storage"
	"bsc-token-sniper/internal/storage/memory"
)

type stubSeller struct {
	calls []int64
	fail  bool
}

func (s *stubSeller) Sell(_ context.Context, tokenAddress string, amountTokens int64) (*domain.TradeResult, error) {
	if s.fail {
		return nil, errors.New("router reverted")
	}
	s.calls = append(s.calls, amountTokens)
	return &domain.TradeResult{
		Success:      true,
		TxHash:       "0xsell",
		AmountBNB:    decimal.RequireFromString("0.00001"),
		AmountTokens: amountTokens,
		Timestamp:    time.Now().UTC(),
	}, nil
}

type stubPrices struct {
	prices map[string]decimal.Decimal
}

func (s *stubPrices) TokenPrice(_ context.Context, tokenAddress string) (decimal.Decimal, error) {
	price, ok := s.prices[tokenAddress]
	if !ok {
		return decimal.Zero, errors.New("no route")
	}
	return price, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestLedger(t *testing.T, seller Seller) *Ledger {
	t.Helper()
	ledger := NewLedger(memory.NewPositionStore(), seller, Options{Logger: quietLogger()})
	if err := ledger.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return ledger
}

func openPosition(t *testing.T, ledger *Ledger, addr string, tokens int64) {
	t.Helper()
	added, err := ledger.AddPosition(context.Background(), &domain.TokenPosition{
		TokenAddress:   addr,
		TokenSymbol:    "TKN",
		AmountTokens:   tokens,
		AmountInvested: decimal.RequireFromString("0.000008"),
		EntryPrice:     decimal.RequireFromString("0.000000008"),
		EntryTimestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("add position: %v", err)
	}
	if !added {
		t.Fatal("position should have been added")
	}
}

func TestAddPosition_DuplicateReturnsFalse(t *testing.T) {
	ledger := newTestLedger(t, &stubSeller{})
	openPosition(t, ledger, "0xaaa", 1000)

	added, err := ledger.AddPosition(context.Background(), &domain.TokenPosition{
		TokenAddress: "0xaaa",
		AmountTokens: 500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added {
		t.Error("duplicate add must return false")
	}
	p, _ := ledger.Get("0xaaa")
	if p.AmountTokens != 1000 {
		t.Error("duplicate add must not overwrite the original position")
	}
}

func TestAddPosition_CapacityLimit(t *testing.T) {
	ledger := NewLedger(memory.NewPositionStore(), &stubSeller{}, Options{
		MaxPositions: 1,
		Logger:       quietLogger(),
	})
	openPosition(t, ledger, "0xaaa", 1000)

	added, err := ledger.AddPosition(context.Background(), &domain.TokenPosition{
		TokenAddress: "0xbbb",
		AmountTokens: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added {
		t.Error("add beyond capacity must return false")
	}
}

func TestAddPosition_ZeroTokensRecordedAsOne(t *testing.T) {
	ledger := newTestLedger(t, &stubSeller{})

	added, err := ledger.AddPosition(context.Background(), &domain.TokenPosition{
		TokenAddress: "0xaaa",
		AmountTokens: 0,
	})
	if err != nil || !added {
		t.Fatalf("add failed: added=%v err=%v", added, err)
	}
	p, _ := ledger.Get("0xaaa")
	if p.AmountTokens != 1 {
		t.Errorf("zero token amount should be recorded as 1, got %d", p.AmountTokens)
	}
}

func TestRefresh_UpdatesPnL(t *testing.T) {
	ledger := newTestLedger(t, &stubSeller{})
	openPosition(t, ledger, "0xaaa", 1000)

	// Double the entry price: 1000 * 0.000000016 = 0.000016 value on
	// 0.000008 invested, 100% gain.
	_, err := ledger.Refresh(context.Background(), "0xaaa", decimal.RequireFromString("0.000000016"))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	p, _ := ledger.Get("0xaaa")
	if p.PnLPercent == nil || *p.PnLPercent < 99.9 || *p.PnLPercent > 100.1 {
		t.Errorf("expected ~100%% gain, got %v", p.PnLPercent)
	}
	if p.PnLAmount == nil || !p.PnLAmount.Equal(decimal.RequireFromString("0.000008")) {
		t.Errorf("expected 0.000008 BNB gain, got %v", p.PnLAmount)
	}
	if len(p.PartialSales) != 0 {
		t.Error("no target should fire below 500% gain")
	}
}

func TestRefresh_FiresBothTargetsInOnePass(t *testing.T) {
	seller := &stubSeller{}
	ledger := newTestLedger(t, seller)
	openPosition(t, ledger, "0xaaa", 1000)

	// 12x the entry price clears both the 5x and 10x rungs at once.
	events, err := ledger.Refresh(context.Background(), "0xaaa", decimal.RequireFromString("0.000000096"))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 profit events, got %d", len(events))
	}
	if events[0].Sale.Target != "5x" || events[1].Sale.Target != "10x" {
		t.Errorf("targets must fire ascending: %s, %s", events[0].Sale.Target, events[1].Sale.Target)
	}
	if !events[1].Completed {
		t.Error("last event should mark the position completed")
	}

	p, _ := ledger.Get("0xaaa")
	if sold := p.TokensSold(); sold != 500 {
		t.Errorf("expected 500 of 1000 tokens sold, got %d", sold)
	}
	if p.RemainingTokens() != 500 {
		t.Errorf("expected 500 tokens remaining, got %d", p.RemainingTokens())
	}
	if p.Monitoring {
		t.Error("monitoring must stop after all targets fire")
	}
	if p.State() != domain.PositionFullyRealized {
		t.Errorf("expected FULLY_REALIZED, got %s", p.State())
	}
}

func TestRefresh_IsIdempotentAfterCompletion(t *testing.T) {
	seller := &stubSeller{}
	ledger := newTestLedger(t, seller)
	openPosition(t, ledger, "0xaaa", 1000)

	price := decimal.RequireFromString("0.000000096")
	ledger.Refresh(context.Background(), "0xaaa", price)

	events, err := ledger.Refresh(context.Background(), "0xaaa", price.Mul(decimal.NewFromInt(2)))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("completed position must not fire again, got %d events", len(events))
	}
	if len(seller.calls) != 2 {
		t.Errorf("expected exactly 2 sales ever, got %d", len(seller.calls))
	}
}

func TestRefresh_FailedSaleLeavesTargetUnfired(t *testing.T) {
	seller := &stubSeller{fail: true}
	ledger := newTestLedger(t, seller)
	openPosition(t, ledger, "0xaaa", 1000)

	price := decimal.RequireFromString("0.000000096")
	events, err := ledger.Refresh(context.Background(), "0xaaa", price)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("failed sale must produce no events, got %d", len(events))
	}

	p, _ := ledger.Get("0xaaa")
	if len(p.PartialSales) != 0 || !p.Monitoring {
		t.Error("failed sale must leave the position untouched")
	}

	// Once selling works again the same refresh fires the ladder.
	seller.fail = false
	events, err = ledger.Refresh(context.Background(), "0xaaa", price)
	if err != nil {
		t.Fatalf("refresh after recovery: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected both targets after recovery, got %d", len(events))
	}
}

func TestRefresh_SaleCappedAtRemainingTokens(t *testing.T) {
	seller := &stubSeller{}
	ledger := NewLedger(memory.NewPositionStore(), seller, Options{
		Targets: []ProfitTarget{
			{Label: "2x", GainPercent: 100, SellPercent: 80},
			{Label: "3x", GainPercent: 200, SellPercent: 80},
		},
		Logger: quietLogger(),
	})
	openPosition(t, ledger, "0xaaa", 1000)

	// 4x gain clears both rungs; the second rung wants 800 tokens but only
	// 200 remain.
	_, err := ledger.Refresh(context.Background(), "0xaaa", decimal.RequireFromString("0.000000032"))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(seller.calls) != 2 || seller.calls[0] != 800 || seller.calls[1] != 200 {
		t.Errorf("expected sales of 800 then 200, got %v", seller.calls)
	}
	p, _ := ledger.Get("0xaaa")
	if p.RemainingTokens() != 0 {
		t.Errorf("expected 0 remaining, got %d", p.RemainingTokens())
	}
}

func TestRefresh_UnknownToken(t *testing.T) {
	ledger := newTestLedger(t, &stubSeller{})

	_, err := ledger.Refresh(context.Background(), "0xmissing", decimal.New(1, -8))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshAll_SkipsFailedPriceLookups(t *testing.T) {
	seller := &stubSeller{}
	ledger := newTestLedger(t, seller)
	openPosition(t, ledger, "0xaaa", 1000)
	openPosition(t, ledger, "0xbbb", 1000)

	prices := &stubPrices{prices: map[string]decimal.Decimal{
		"0xbbb": decimal.RequireFromString("0.000000096"),
	}}
	events := ledger.RefreshAll(context.Background(), prices)

	if len(events) != 2 {
		t.Fatalf("expected 2 events for the quotable token, got %d", len(events))
	}
	for _, e := range events {
		if e.TokenAddress != "0xbbb" {
			t.Errorf("unexpected event token %s", e.TokenAddress)
		}
	}
}

func TestLedger_SurvivesRestart(t *testing.T) {
	store := memory.NewPositionStore()
	seller := &stubSeller{}
	ctx := context.Background()

	ledger := NewLedger(store, seller, Options{Logger: quietLogger()})
	ledger.Load(ctx)
	openPosition(t, ledger, "0xaaa", 1000)
	ledger.Refresh(ctx, "0xaaa", decimal.RequireFromString("0.000000048")) // 6x, fires 5x rung

	restarted := NewLedger(store, seller, Options{Logger: quietLogger()})
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	p, ok := restarted.Get("0xaaa")
	if !ok {
		t.Fatal("position lost across restart")
	}
	if len(p.PartialSales) != 1 || p.PartialSales[0].Target != "5x" {
		t.Errorf("sale history lost across restart: %+v", p.PartialSales)
	}

	// The restarted ledger must not re-fire the 5x rung.
	events, _ := restarted.Refresh(ctx, "0xaaa", decimal.RequireFromString("0.000000048"))
	if len(events) != 0 {
		t.Errorf("restarted ledger re-fired a target: %+v", events)
	}
}

func TestSummary_PricesRemainingTokensOnly(t *testing.T) {
	seller := &stubSeller{}
	ledger := newTestLedger(t, seller)
	openPosition(t, ledger, "0xaaa", 1000)

	price := decimal.RequireFromString("0.000000048") // 6x, sells 250 at the 5x rung
	ledger.Refresh(context.Background(), "0xaaa", price)

	summary := ledger.Summary()
	if summary.TotalPositions != 1 || summary.ActivePositions != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	// 750 remaining tokens at the refreshed price.
	wantValue := price.Mul(decimal.NewFromInt(750))
	if !summary.CurrentValue.Equal(wantValue) {
		t.Errorf("expected current value %s, got %s", wantValue, summary.CurrentValue)
	}
	if len(summary.Positions) != 1 || summary.Positions[0].PartialSales != 1 {
		t.Errorf("unexpected position summary: %+v", summary.Positions)
	}
}
