package domain

import "time"

// DiscoveryType identifies how a token candidate was first observed.
type DiscoveryType string

const (
	DiscoveryPairCreation      DiscoveryType = "pair_creation"
	DiscoveryLiquidityAddition DiscoveryType = "liquidity_addition"
)

// DiscoveryEvent represents a newly observed token candidate extracted from
// chain logs. It is consumed by the freshness/dedup gate and the scorer and
// then discarded; only the token address survives in the dedup set.
type DiscoveryEvent struct {
	TokenAddress string
	PairAddress  string
	Type         DiscoveryType
	TxHash       string
	BlockNumber  uint64
	BlockTime    time.Time
	AgeMinutes   float64 // filled in by the freshness gate
}

// TokenInfo carries basic metadata for a token contract.
type TokenInfo struct {
	Name     string
	Symbol   string
	Decimals int
}
