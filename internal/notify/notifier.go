// Package notify pushes bot lifecycle events to an operator channel.
package notify

import (
	"context"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/portfolio"
)

// Notifier receives bot lifecycle events. Implementations must be safe for
// concurrent use; delivery is best-effort and never blocks trading.
type Notifier interface {
	// Discovery announces a token candidate that passed the freshness gate.
	Discovery(ctx context.Context, event domain.DiscoveryEvent)

	// Verdict announces a completed security analysis.
	Verdict(ctx context.Context, verdict *domain.SecurityVerdict)

	// PurchaseSuccess announces a filled buy.
	PurchaseSuccess(ctx context.Context, position *domain.TokenPosition)

	// ProfitTake announces a fired profit target.
	ProfitTake(ctx context.Context, event portfolio.ProfitEvent)

	// Error announces an operational failure worth the operator's attention.
	Error(ctx context.Context, during string, err error)

	// Status announces a free-form state change (startup, shutdown).
	Status(ctx context.Context, message string)

	// Summary announces the periodic portfolio digest.
	Summary(ctx context.Context, summary *domain.PortfolioSummary)
}

// Nop discards every notification.
type Nop struct{}

var _ Notifier = Nop{}

func (Nop) Discovery(context.Context, domain.DiscoveryEvent)       {}
func (Nop) Verdict(context.Context, *domain.SecurityVerdict)       {}
func (Nop) PurchaseSuccess(context.Context, *domain.TokenPosition) {}
func (Nop) ProfitTake(context.Context, portfolio.ProfitEvent)      {}
func (Nop) Error(context.Context, string, error)                   {}
func (Nop) Status(context.Context, string)                         {}
func (Nop) Summary(context.Context, *domain.PortfolioSummary)      {}
