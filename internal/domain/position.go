package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionState describes where a position sits in the profit-taking
// lifecycle. The state is derived from the sale history rather than stored:
// ACTIVE (no targets hit) → PARTIALLY_REALIZED (some hit) →
// FULLY_REALIZED (all hit, monitoring stopped). No transition leaves
// FULLY_REALIZED.
type PositionState string

const (
	PositionActive            PositionState = "ACTIVE"
	PositionPartiallyRealized PositionState = "PARTIALLY_REALIZED"
	PositionFullyRealized     PositionState = "FULLY_REALIZED"
)

// SaleRecord is one partial profit-taking sale. Immutable once appended.
type SaleRecord struct {
	Target           string          `json:"target"`
	ProfitPercent    float64         `json:"profit_percent"`
	TokensSold       int64           `json:"amount_tokens"`
	ProceedsReceived decimal.Decimal `json:"amount_bnb_received"`
	Timestamp        time.Time       `json:"timestamp"`
	TxHash           string          `json:"tx_hash"`
}

// TokenPosition is the durable entity tracked by the portfolio ledger,
// keyed by token address.
type TokenPosition struct {
	TokenAddress   string           `json:"token_address"`
	TokenName      string           `json:"token_name"`
	TokenSymbol    string           `json:"token_symbol"`
	AmountTokens   int64            `json:"amount_tokens"`
	AmountInvested decimal.Decimal  `json:"amount_bnb_invested"`
	EntryPrice     decimal.Decimal  `json:"buy_price_bnb"`
	EntryTimestamp time.Time        `json:"buy_timestamp"`
	EntryTxHash    string           `json:"buy_tx_hash"`
	CurrentPrice   *decimal.Decimal `json:"current_price_bnb,omitempty"`
	PnLPercent     *float64         `json:"profit_loss_percent,omitempty"`
	PnLAmount      *decimal.Decimal `json:"profit_loss_bnb,omitempty"`
	Monitoring     bool             `json:"is_monitoring"`
	PartialSales   []SaleRecord     `json:"partial_sales"`
}

// TokensSold returns the total token units sold across partial sales.
func (p *TokenPosition) TokensSold() int64 {
	var sold int64
	for _, s := range p.PartialSales {
		sold += s.TokensSold
	}
	return sold
}

// RemainingTokens returns the unsold token units.
func (p *TokenPosition) RemainingTokens() int64 {
	return p.AmountTokens - p.TokensSold()
}

// SoldAtTarget reports whether a profit target has already fired.
func (p *TokenPosition) SoldAtTarget(target string) bool {
	for _, s := range p.PartialSales {
		if s.Target == target {
			return true
		}
	}
	return false
}

// State derives the lifecycle state from the sale history.
func (p *TokenPosition) State() PositionState {
	switch {
	case !p.Monitoring:
		return PositionFullyRealized
	case len(p.PartialSales) > 0:
		return PositionPartiallyRealized
	default:
		return PositionActive
	}
}

// PositionSummary is the per-position slice of a portfolio summary.
type PositionSummary struct {
	TokenAddress string   `json:"token_address"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	InvestedBNB  string   `json:"invested_bnb"`
	PnLPercent   *float64 `json:"profit_loss_percent,omitempty"`
	PnLBNB       string   `json:"profit_loss_bnb"`
	Monitoring   bool     `json:"is_monitoring"`
	PartialSales int      `json:"partial_sales"`
}

// PortfolioSummary aggregates the ledger. CurrentValue prices remaining
// (unsold) tokens only; proceeds of already-sold tokens are realized, not
// mark-to-market.
type PortfolioSummary struct {
	TotalPositions     int               `json:"total_positions"`
	ActivePositions    int               `json:"active_positions"`
	CompletedPositions int               `json:"completed_positions"`
	TotalInvested      decimal.Decimal   `json:"total_invested_bnb"`
	CurrentValue       decimal.Decimal   `json:"total_current_value_bnb"`
	PnLAmount          decimal.Decimal   `json:"total_profit_loss_bnb"`
	PnLPercent         float64           `json:"total_profit_loss_percent"`
	Positions          []PositionSummary `json:"positions"`
	UpdatedAt          time.Time         `json:"last_updated"`
}
