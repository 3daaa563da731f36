package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeResult is the outcome of a buy or sell submitted to the trade
// executor. The core only consumes success/failure and realized amounts;
// gas and slippage mechanics live behind the executor boundary.
type TradeResult struct {
	Success      bool
	TxHash       string
	AmountBNB    decimal.Decimal // BNB spent (buy) or received (sell)
	AmountTokens int64           // tokens received (buy) or sold (sell)
	SlippagePct  float64
	GasUsed      int64
	BlockNumber  int64
	Timestamp    time.Time
	Err          string // provider-side failure detail, empty on success
}
