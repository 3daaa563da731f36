package storage

import (
	"context"

	"bsc-token-sniper/internal/domain"
)

// PositionStore persists the position ledger.
type PositionStore interface {
	// Save inserts or replaces a position keyed by token address.
	Save(ctx context.Context, p *domain.TokenPosition) error

	// Get retrieves a position by token address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, tokenAddress string) (*domain.TokenPosition, error)

	// LoadAll retrieves every stored position, ordered by purchase time ASC.
	LoadAll(ctx context.Context) ([]*domain.TokenPosition, error)

	// Delete removes a position. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, tokenAddress string) error
}

// VerdictSink records security verdicts for later analysis. Verdict history
// is append-only.
type VerdictSink interface {
	// Insert appends a verdict.
	Insert(ctx context.Context, v *domain.SecurityVerdict) error

	// GetByToken retrieves all verdicts for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, tokenAddress string) ([]*domain.SecurityVerdict, error)
}
