package memory

import (
	"context"
	"sort"
	"sync"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenPosition // keyed by token address
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.TokenPosition),
	}
}

// Verify interface compliance at compile time.
var _ storage.PositionStore = (*PositionStore)(nil)

// Save inserts or replaces a position keyed by token address.
func (s *PositionStore) Save(_ context.Context, p *domain.TokenPosition) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[p.TokenAddress] = copyPosition(p)
	return nil
}

// Get retrieves a position by token address. Returns ErrNotFound if not exists.
func (s *PositionStore) Get(_ context.Context, tokenAddress string) (*domain.TokenPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyPosition(p), nil
}

// LoadAll retrieves every stored position, ordered by purchase time ASC.
func (s *PositionStore) LoadAll(_ context.Context) ([]*domain.TokenPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenPosition, 0, len(s.data))
	for _, p := range s.data {
		result = append(result, copyPosition(p))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EntryTimestamp.Before(result[j].EntryTimestamp)
	})

	return result, nil
}

// Delete removes a position. Returns ErrNotFound if not exists.
func (s *PositionStore) Delete(_ context.Context, tokenAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tokenAddress]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, tokenAddress)
	return nil
}

// copyPosition deep-copies a position to prevent external mutation of the
// sale history.
func copyPosition(p *domain.TokenPosition) *domain.TokenPosition {
	positionCopy := *p
	if p.PartialSales != nil {
		positionCopy.PartialSales = make([]domain.SaleRecord, len(p.PartialSales))
		copy(positionCopy.PartialSales, p.PartialSales)
	}
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
