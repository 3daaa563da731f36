package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
// A position row plus its position_sales rows are written together in one
// transaction so the ledger and sale history never diverge.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Save inserts or replaces a position keyed by token address.
func (s *PositionStore) Save(ctx context.Context, p *domain.TokenPosition) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save position: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO positions (
			token_address, token_name, token_symbol, amount_tokens,
			amount_invested, entry_price, entry_timestamp, entry_tx_hash,
			current_price, pnl_percent, pnl_amount, monitoring, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (token_address) DO UPDATE SET
			token_name = EXCLUDED.token_name,
			token_symbol = EXCLUDED.token_symbol,
			amount_tokens = EXCLUDED.amount_tokens,
			amount_invested = EXCLUDED.amount_invested,
			entry_price = EXCLUDED.entry_price,
			entry_timestamp = EXCLUDED.entry_timestamp,
			entry_tx_hash = EXCLUDED.entry_tx_hash,
			current_price = EXCLUDED.current_price,
			pnl_percent = EXCLUDED.pnl_percent,
			pnl_amount = EXCLUDED.pnl_amount,
			monitoring = EXCLUDED.monitoring,
			updated_at = now()
	`

	var currentPrice, pnlAmount *string
	if p.CurrentPrice != nil {
		price := p.CurrentPrice.String()
		currentPrice = &price
	}
	if p.PnLAmount != nil {
		amount := p.PnLAmount.String()
		pnlAmount = &amount
	}

	_, err = tx.Exec(ctx, upsert,
		p.TokenAddress,
		p.TokenName,
		p.TokenSymbol,
		p.AmountTokens,
		p.AmountInvested.String(),
		p.EntryPrice.String(),
		p.EntryTimestamp,
		p.EntryTxHash,
		currentPrice,
		p.PnLPercent,
		pnlAmount,
		p.Monitoring,
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}

	// The sale history is replaced wholesale; it is short (one row per
	// profit target) and this keeps the write idempotent.
	if _, err := tx.Exec(ctx, `DELETE FROM position_sales WHERE token_address = $1`, p.TokenAddress); err != nil {
		return fmt.Errorf("clear position sales: %w", err)
	}
	for _, sale := range p.PartialSales {
		_, err := tx.Exec(ctx, `
			INSERT INTO position_sales (
				token_address, target, profit_percent, tokens_sold,
				proceeds, sold_at, tx_hash
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			p.TokenAddress,
			sale.Target,
			sale.ProfitPercent,
			sale.TokensSold,
			sale.ProceedsReceived.String(),
			sale.Timestamp,
			sale.TxHash,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert position sale: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save position: %w", err)
	}
	return nil
}

// Get retrieves a position by token address. Returns ErrNotFound if not exists.
func (s *PositionStore) Get(ctx context.Context, tokenAddress string) (*domain.TokenPosition, error) {
	query := `
		SELECT token_address, token_name, token_symbol, amount_tokens,
		       amount_invested::text, entry_price::text, entry_timestamp,
		       entry_tx_hash, current_price::text, pnl_percent,
		       pnl_amount::text, monitoring
		FROM positions
		WHERE token_address = $1
	`

	row := s.pool.QueryRow(ctx, query, tokenAddress)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position: %w", err)
	}

	if err := s.attachSales(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadAll retrieves every stored position, ordered by purchase time ASC.
func (s *PositionStore) LoadAll(ctx context.Context) ([]*domain.TokenPosition, error) {
	query := `
		SELECT token_address, token_name, token_symbol, amount_tokens,
		       amount_invested::text, entry_price::text, entry_timestamp,
		       entry_tx_hash, current_price::text, pnl_percent,
		       pnl_amount::text, monitoring
		FROM positions
		ORDER BY entry_timestamp ASC, token_address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()

	var positions []*domain.TokenPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}

	for _, p := range positions {
		if err := s.attachSales(ctx, p); err != nil {
			return nil, err
		}
	}
	return positions, nil
}

// Delete removes a position. Returns ErrNotFound if not exists. Sale rows go
// with it via ON DELETE CASCADE.
func (s *PositionStore) Delete(ctx context.Context, tokenAddress string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM positions WHERE token_address = $1`, tokenAddress)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// attachSales loads the sale history for a position, ordered by sale time.
func (s *PositionStore) attachSales(ctx context.Context, p *domain.TokenPosition) error {
	query := `
		SELECT target, profit_percent, tokens_sold, proceeds::text, sold_at, tx_hash
		FROM position_sales
		WHERE token_address = $1
		ORDER BY sold_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, p.TokenAddress)
	if err != nil {
		return fmt.Errorf("load position sales: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sale domain.SaleRecord
		var proceeds string
		if err := rows.Scan(&sale.Target, &sale.ProfitPercent, &sale.TokensSold,
			&proceeds, &sale.Timestamp, &sale.TxHash); err != nil {
			return fmt.Errorf("scan sale row: %w", err)
		}
		sale.ProceedsReceived, err = decimal.NewFromString(proceeds)
		if err != nil {
			return fmt.Errorf("parse sale proceeds %q: %w", proceeds, err)
		}
		p.PartialSales = append(p.PartialSales, sale)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate sale rows: %w", err)
	}
	return nil
}

// scanPosition scans a single row into a TokenPosition.
func scanPosition(row pgx.Row) (*domain.TokenPosition, error) {
	var p domain.TokenPosition
	var amountInvested, entryPrice string
	var currentPrice, pnlAmount *string

	err := row.Scan(
		&p.TokenAddress,
		&p.TokenName,
		&p.TokenSymbol,
		&p.AmountTokens,
		&amountInvested,
		&entryPrice,
		&p.EntryTimestamp,
		&p.EntryTxHash,
		&currentPrice,
		&p.PnLPercent,
		&pnlAmount,
		&p.Monitoring,
	)
	if err != nil {
		return nil, err
	}

	if p.AmountInvested, err = decimal.NewFromString(amountInvested); err != nil {
		return nil, fmt.Errorf("parse amount invested %q: %w", amountInvested, err)
	}
	if p.EntryPrice, err = decimal.NewFromString(entryPrice); err != nil {
		return nil, fmt.Errorf("parse entry price %q: %w", entryPrice, err)
	}
	if currentPrice != nil {
		price, err := decimal.NewFromString(*currentPrice)
		if err != nil {
			return nil, fmt.Errorf("parse current price %q: %w", *currentPrice, err)
		}
		p.CurrentPrice = &price
	}
	if pnlAmount != nil {
		amount, err := decimal.NewFromString(*pnlAmount)
		if err != nil {
			return nil, fmt.Errorf("parse pnl amount %q: %w", *pnlAmount, err)
		}
		p.PnLAmount = &amount
	}
	return &p, nil
}
