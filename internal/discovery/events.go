// Package discovery watches the chain for token launches: PairCreated
// events on the DEX factory and Mint (liquidity added) events on pair
// contracts.
package discovery

import (
	"fmt"
	"strings"

	"bsc-token-sniper/internal/chain"
	"bsc-token-sniper/internal/domain"
)

// Event signatures watched on BSC.
const (
	// PairCreatedTopic is keccak256("PairCreated(address,address,address,uint256)").
	PairCreatedTopic = "0x0d3648bd0f6ba80134a33ba9275ac585d9d315f0ad8355cddefde31afa28d0e9"

	// MintTopic is keccak256("Mint(address,uint256,uint256)"), emitted by a
	// pair when liquidity is added.
	MintTopic = "0x4c209b5fc8ad50758f13e2e1088ba56a560dff690a1c6fef26394f4c03821c4f"

	// WBNBAddress is the wrapped BNB contract, the quote side of every
	// pair this bot trades.
	WBNBAddress = "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
)

// ParseLog converts a matched factory or pair log into a discovery event.
// Mint logs carry no token address; the watcher resolves it from the pair
// contract afterwards.
func ParseLog(l chain.Log) (domain.DiscoveryEvent, error) {
	if len(l.Topics) == 0 {
		return domain.DiscoveryEvent{}, fmt.Errorf("log without topics")
	}

	switch strings.ToLower(l.Topics[0]) {
	case PairCreatedTopic:
		return parsePairCreated(l)
	case MintTopic:
		return domain.DiscoveryEvent{
			PairAddress: strings.ToLower(l.Address),
			Type:        domain.DiscoveryLiquidityAddition,
			TxHash:      l.TxHash,
			BlockNumber: l.BlockNumber,
		}, nil
	default:
		return domain.DiscoveryEvent{}, fmt.Errorf("unexpected topic %s", l.Topics[0])
	}
}

// parsePairCreated extracts the new token and pair from a factory event.
// token0 and token1 are indexed topics; the pair address is the first data
// word.
func parsePairCreated(l chain.Log) (domain.DiscoveryEvent, error) {
	if len(l.Topics) < 3 {
		return domain.DiscoveryEvent{}, fmt.Errorf("pair created log with %d topics", len(l.Topics))
	}

	token0, err := addressFromWord(l.Topics[1])
	if err != nil {
		return domain.DiscoveryEvent{}, err
	}
	token1, err := addressFromWord(l.Topics[2])
	if err != nil {
		return domain.DiscoveryEvent{}, err
	}

	data := strings.TrimPrefix(l.Data, "0x")
	if len(data) < 64 {
		return domain.DiscoveryEvent{}, fmt.Errorf("pair created log data too short")
	}
	pair, err := addressFromWord(data[:64])
	if err != nil {
		return domain.DiscoveryEvent{}, err
	}

	// The interesting side is whichever token is not WBNB. A pair of two
	// unknown tokens defaults to token0.
	token := token0
	if token0 == WBNBAddress {
		token = token1
	}

	return domain.DiscoveryEvent{
		TokenAddress: token,
		PairAddress:  pair,
		Type:         domain.DiscoveryPairCreation,
		TxHash:       l.TxHash,
		BlockNumber:  l.BlockNumber,
	}, nil
}

// addressFromWord extracts the trailing 20 bytes of a 32-byte word.
func addressFromWord(word string) (string, error) {
	hex := strings.ToLower(strings.TrimPrefix(word, "0x"))
	if len(hex) != 64 {
		return "", fmt.Errorf("expected 32-byte word, got %d hex chars", len(hex))
	}
	return "0x" + hex[24:], nil
}
