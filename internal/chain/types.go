// Package chain talks to a BSC node over JSON-RPC and WebSocket. Only the
// handful of calls the bot needs are implemented.
package chain

import "time"

// Head is a new-block header notification.
type Head struct {
	Number    uint64
	Hash      string
	Timestamp time.Time
}

// Transaction is the subset of an EVM transaction the bot inspects.
type Transaction struct {
	Hash  string
	From  string
	To    string
	Input string
	Value string // hex wei
}

// Block is a block with full transaction bodies.
type Block struct {
	Number       uint64
	Hash         string
	Timestamp    time.Time
	Transactions []Transaction
}

// Log is one receipt log entry.
type Log struct {
	Address     string
	Topics      []string
	Data        string
	TxHash      string
	BlockNumber uint64
}

// Receipt is a transaction receipt.
type Receipt struct {
	TxHash      string
	Status      bool
	BlockNumber uint64
	GasUsed     uint64
	Logs        []Log
}
