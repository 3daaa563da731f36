// Package portfolio tracks purchased tokens and executes the profit-taking
// ladder against price updates.
package portfolio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/storage"
)

// DefaultMaxPositions bounds the ledger when no limit is configured.
const DefaultMaxPositions = 1000

// Seller executes a partial sale of a held token.
type Seller interface {
	Sell(ctx context.Context, tokenAddress string, amountTokens int64) (*domain.TradeResult, error)
}

// PriceSource quotes the current per-token price in BNB.
type PriceSource interface {
	TokenPrice(ctx context.Context, tokenAddress string) (decimal.Decimal, error)
}

// ProfitEvent reports one fired profit target.
type ProfitEvent struct {
	TokenAddress string
	TokenSymbol  string
	Sale         domain.SaleRecord
	// Completed is true when this sale fired the last target and the
	// position left monitoring.
	Completed bool
}

// Options configures a Ledger.
type Options struct {
	// Targets is the profit-taking ladder (nil uses DefaultTargets).
	Targets []ProfitTarget
	// MaxPositions caps concurrently tracked tokens (0 uses DefaultMaxPositions).
	MaxPositions int
	Logger       *logrus.Logger
}

// Ledger is the authoritative set of open positions. All mutations go
// through the ledger mutex and are persisted to the store before returning,
// so a crash never loses an executed sale.
type Ledger struct {
	mu        sync.Mutex
	positions map[string]*domain.TokenPosition

	store   storage.PositionStore
	seller  Seller
	targets []ProfitTarget
	maxPos  int
	log     *logrus.Logger
}

// NewLedger creates a Ledger. Call Load before use to restore persisted
// positions.
func NewLedger(store storage.PositionStore, seller Seller, opts Options) *Ledger {
	targets := opts.Targets
	if len(targets) == 0 {
		targets = DefaultTargets()
	}
	maxPos := opts.MaxPositions
	if maxPos <= 0 {
		maxPos = DefaultMaxPositions
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Ledger{
		positions: make(map[string]*domain.TokenPosition),
		store:     store,
		seller:    seller,
		targets:   sortTargets(targets),
		maxPos:    maxPos,
		log:       log,
	}
}

// Load restores positions from the store.
func (l *Ledger) Load(ctx context.Context) error {
	stored, err := l.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range stored {
		l.positions[p.TokenAddress] = p
	}
	l.log.WithField("positions", len(stored)).Info("portfolio loaded")
	return nil
}

// AddPosition registers a freshly purchased token. Returns false without
// error when the token is already tracked or the ledger is full. A zero
// token amount is recorded as one unit so the position stays visible.
func (l *Ledger) AddPosition(ctx context.Context, p *domain.TokenPosition) (bool, error) {
	if p == nil || p.TokenAddress == "" {
		return false, storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.positions[p.TokenAddress]; exists {
		l.log.WithField("token", p.TokenAddress).Warn("position already tracked")
		return false, nil
	}
	if len(l.positions) >= l.maxPos {
		l.log.WithFields(logrus.Fields{
			"token": p.TokenAddress,
			"limit": l.maxPos,
		}).Warn("position limit reached, not tracking")
		return false, nil
	}

	positionCopy := *p
	if positionCopy.AmountTokens <= 0 {
		positionCopy.AmountTokens = 1
	}
	if positionCopy.EntryTimestamp.IsZero() {
		positionCopy.EntryTimestamp = time.Now().UTC()
	}
	positionCopy.Monitoring = true

	if err := l.store.Save(ctx, &positionCopy); err != nil {
		return false, fmt.Errorf("persist position: %w", err)
	}
	l.positions[positionCopy.TokenAddress] = &positionCopy

	l.log.WithFields(logrus.Fields{
		"token":    positionCopy.TokenAddress,
		"symbol":   positionCopy.TokenSymbol,
		"tokens":   positionCopy.AmountTokens,
		"invested": positionCopy.AmountInvested.String(),
	}).Info("position opened")
	return true, nil
}

// RemovePosition drops a position from tracking and storage.
func (l *Ledger) RemovePosition(ctx context.Context, tokenAddress string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.positions[tokenAddress]; !exists {
		return storage.ErrNotFound
	}
	if err := l.store.Delete(ctx, tokenAddress); err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	delete(l.positions, tokenAddress)
	return nil
}

// Get returns a copy of a tracked position.
func (l *Ledger) Get(tokenAddress string) (*domain.TokenPosition, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, exists := l.positions[tokenAddress]
	if !exists {
		return nil, false
	}
	return copyPosition(p), true
}

// Positions returns copies of all tracked positions.
func (l *Ledger) Positions() []*domain.TokenPosition {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]*domain.TokenPosition, 0, len(l.positions))
	for _, p := range l.positions {
		result = append(result, copyPosition(p))
	}
	return result
}

// MonitoredAddresses returns the addresses still being price-monitored.
func (l *Ledger) MonitoredAddresses() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var addrs []string
	for addr, p := range l.positions {
		if p.Monitoring {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// Refresh applies a price update to one position: recompute P&L, then fire
// every profit target the new price satisfies, lowest rung first. Returned
// events are sales that executed during this call.
//
// A failed sale leaves its target unfired so the next refresh retries it.
// P&L is computed against the original token amount, matching how the
// targets are expressed.
func (l *Ledger) Refresh(ctx context.Context, tokenAddress string, price decimal.Decimal) ([]ProfitEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, exists := l.positions[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	priceCopy := price
	p.CurrentPrice = &priceCopy

	currentValue := price.Mul(decimal.NewFromInt(p.AmountTokens))
	pnlAmount := currentValue.Sub(p.AmountInvested)
	p.PnLAmount = &pnlAmount

	var pnlPercent float64
	if p.AmountInvested.IsPositive() {
		pnlPercent, _ = pnlAmount.Div(p.AmountInvested).Mul(decimal.NewFromInt(100)).Float64()
	}
	p.PnLPercent = &pnlPercent

	var events []ProfitEvent
	if p.Monitoring {
		events = l.fireTargetsLocked(ctx, p, pnlPercent)
	}

	if err := l.store.Save(ctx, p); err != nil {
		return events, fmt.Errorf("persist position: %w", err)
	}
	return events, nil
}

// fireTargetsLocked executes eligible profit targets in ascending order.
func (l *Ledger) fireTargetsLocked(ctx context.Context, p *domain.TokenPosition, pnlPercent float64) []ProfitEvent {
	var events []ProfitEvent

	for _, target := range l.targets {
		if pnlPercent < target.GainPercent || p.SoldAtTarget(target.Label) {
			continue
		}

		toSell := int64(math.Floor(float64(p.AmountTokens) * target.SellPercent / 100))
		if remaining := p.RemainingTokens(); toSell > remaining {
			toSell = remaining
		}
		if toSell <= 0 {
			l.log.WithFields(logrus.Fields{
				"token":  p.TokenAddress,
				"target": target.Label,
			}).Warn("no tokens left to sell for target")
			continue
		}

		result, err := l.seller.Sell(ctx, p.TokenAddress, toSell)
		if err != nil || result == nil || !result.Success {
			l.log.WithFields(logrus.Fields{
				"token":  p.TokenAddress,
				"target": target.Label,
				"tokens": toSell,
			}).WithError(err).Error("profit-taking sale failed")
			// Do not attempt higher rungs after a failed sale.
			break
		}

		sale := domain.SaleRecord{
			Target:           target.Label,
			ProfitPercent:    pnlPercent,
			TokensSold:       toSell,
			ProceedsReceived: result.AmountBNB,
			Timestamp:        result.Timestamp,
			TxHash:           result.TxHash,
		}
		if sale.Timestamp.IsZero() {
			sale.Timestamp = time.Now().UTC()
		}
		p.PartialSales = append(p.PartialSales, sale)

		l.log.WithFields(logrus.Fields{
			"token":    p.TokenAddress,
			"target":   target.Label,
			"tokens":   toSell,
			"proceeds": sale.ProceedsReceived.String(),
			"pnl_pct":  fmt.Sprintf("%.1f", pnlPercent),
		}).Info("profit target hit")

		events = append(events, ProfitEvent{
			TokenAddress: p.TokenAddress,
			TokenSymbol:  p.TokenSymbol,
			Sale:         sale,
		})
	}

	if l.allTargetsFiredLocked(p) {
		p.Monitoring = false
		if len(events) > 0 {
			events[len(events)-1].Completed = true
		}
		l.log.WithField("token", p.TokenAddress).Info("all profit targets hit, monitoring stopped")
	}
	return events
}

func (l *Ledger) allTargetsFiredLocked(p *domain.TokenPosition) bool {
	for _, target := range l.targets {
		if !p.SoldAtTarget(target.Label) {
			return false
		}
	}
	return true
}

// RefreshAll fetches a price for every monitored position and refreshes it.
// Price lookup failures are logged and skipped; one bad token must not
// stall the rest of the portfolio.
func (l *Ledger) RefreshAll(ctx context.Context, prices PriceSource) []ProfitEvent {
	var events []ProfitEvent
	for _, addr := range l.MonitoredAddresses() {
		price, err := prices.TokenPrice(ctx, addr)
		if err != nil {
			l.log.WithField("token", addr).WithError(err).Warn("price lookup failed")
			continue
		}
		fired, err := l.Refresh(ctx, addr, price)
		if err != nil {
			l.log.WithField("token", addr).WithError(err).Error("position refresh failed")
		}
		events = append(events, fired...)
	}
	return events
}

// Summary aggregates the ledger. Current value prices remaining tokens
// only; proceeds from executed sales are realized and excluded from the
// mark-to-market total.
func (l *Ledger) Summary() *domain.PortfolioSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := &domain.PortfolioSummary{
		TotalPositions: len(l.positions),
		TotalInvested:  decimal.Zero,
		CurrentValue:   decimal.Zero,
		UpdatedAt:      time.Now().UTC(),
	}

	for _, p := range l.positions {
		if p.Monitoring {
			summary.ActivePositions++
		} else {
			summary.CompletedPositions++
		}
		summary.TotalInvested = summary.TotalInvested.Add(p.AmountInvested)
		if p.CurrentPrice != nil {
			remainingValue := p.CurrentPrice.Mul(decimal.NewFromInt(p.RemainingTokens()))
			summary.CurrentValue = summary.CurrentValue.Add(remainingValue)
		}

		pnlBNB := "0"
		if p.PnLAmount != nil {
			pnlBNB = p.PnLAmount.String()
		}
		summary.Positions = append(summary.Positions, domain.PositionSummary{
			TokenAddress: p.TokenAddress,
			Symbol:       p.TokenSymbol,
			Name:         p.TokenName,
			InvestedBNB:  p.AmountInvested.String(),
			PnLPercent:   copyFloat(p.PnLPercent),
			PnLBNB:       pnlBNB,
			Monitoring:   p.Monitoring,
			PartialSales: len(p.PartialSales),
		})
	}

	summary.PnLAmount = summary.CurrentValue.Sub(summary.TotalInvested)
	if summary.TotalInvested.IsPositive() {
		summary.PnLPercent, _ = summary.PnLAmount.
			Div(summary.TotalInvested).Mul(decimal.NewFromInt(100)).Float64()
	}
	return summary
}

func copyPosition(p *domain.TokenPosition) *domain.TokenPosition {
	positionCopy := *p
	positionCopy.PartialSales = append([]domain.SaleRecord(nil), p.PartialSales...)
	if p.CurrentPrice != nil {
		price := *p.CurrentPrice
		positionCopy.CurrentPrice = &price
	}
	if p.PnLPercent != nil {
		pnl := *p.PnLPercent
		positionCopy.PnLPercent = &pnl
	}
	if p.PnLAmount != nil {
		amount := *p.PnLAmount
		positionCopy.PnLAmount = &amount
	}
	return &positionCopy
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
