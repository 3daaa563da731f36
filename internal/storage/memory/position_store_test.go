package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/storage"
)

func testPosition(addr string, ts time.Time) *domain.TokenPosition {
	return &domain.TokenPosition{
		TokenAddress:   addr,
		TokenSymbol:    "TKN",
		AmountTokens:   1000,
		AmountInvested: decimal.RequireFromString("0.000008"),
		EntryPrice:     decimal.RequireFromString("0.000000008"),
		EntryTimestamp: ts,
		Monitoring:     true,
	}
}

func TestPositionStore_SaveAndGet(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	p := testPosition("0xaaa", time.Now())
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AmountTokens != 1000 || got.TokenSymbol != "TKN" {
		t.Errorf("unexpected position: %+v", got)
	}
}

func TestPositionStore_SaveReplacesExisting(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	p := testPosition("0xaaa", time.Now())
	store.Save(ctx, p)

	p.PartialSales = append(p.PartialSales, domain.SaleRecord{Target: "5x", TokensSold: 250})
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("save update: %v", err)
	}

	got, _ := store.Get(ctx, "0xaaa")
	if len(got.PartialSales) != 1 {
		t.Errorf("expected 1 sale after update, got %d", len(got.PartialSales))
	}
}

func TestPositionStore_GetNotFound(t *testing.T) {
	store := NewPositionStore()

	_, err := store.Get(context.Background(), "0xmissing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_SaveInvalidInput(t *testing.T) {
	store := NewPositionStore()

	if err := store.Save(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Save(context.Background(), &domain.TokenPosition{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty address, got %v", err)
	}
}

func TestPositionStore_LoadAllOrderedByEntryTime(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()
	base := time.Now()

	store.Save(ctx, testPosition("0xccc", base.Add(2*time.Minute)))
	store.Save(ctx, testPosition("0xaaa", base))
	store.Save(ctx, testPosition("0xbbb", base.Add(time.Minute)))

	all, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(all))
	}
	if all[0].TokenAddress != "0xaaa" || all[2].TokenAddress != "0xccc" {
		t.Errorf("positions not ordered by entry time: %s, %s, %s",
			all[0].TokenAddress, all[1].TokenAddress, all[2].TokenAddress)
	}
}

func TestPositionStore_Delete(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	store.Save(ctx, testPosition("0xaaa", time.Now()))
	if err := store.Delete(ctx, "0xaaa"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "0xaaa"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "0xaaa"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}
}

func TestPositionStore_ReturnsCopies(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	p := testPosition("0xaaa", time.Now())
	p.PartialSales = []domain.SaleRecord{{Target: "5x", TokensSold: 250}}
	store.Save(ctx, p)

	got, _ := store.Get(ctx, "0xaaa")
	got.PartialSales[0].TokensSold = 999
	got.AmountTokens = 0

	fresh, _ := store.Get(ctx, "0xaaa")
	if fresh.PartialSales[0].TokensSold != 250 || fresh.AmountTokens != 1000 {
		t.Error("mutating a returned position must not affect the store")
	}
}
