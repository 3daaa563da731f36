package discovery

import (
	"strings"
	"testing"

	"bsc-token-sniper/internal/chain"
	"bsc-token-sniper/internal/domain"
)

const (
	tokenA = "0x00000000000000000000000000000000000aaaaa"
	pairA  = "0x00000000000000000000000000000000000ccccc"
)

func wordFor(addr string) string {
	return "0x" + strings.Repeat("0", 24) + strings.TrimPrefix(addr, "0x")
}

func pairCreatedLog(token0, token1 string) chain.Log {
	return chain.Log{
		Address: "0xfactory",
		Topics: []string{
			PairCreatedTopic,
			wordFor(token0),
			wordFor(token1),
		},
		Data:        wordFor(pairA) + strings.Repeat("0", 64),
		TxHash:      "0xtx1",
		BlockNumber: 42,
	}
}

func TestParseLog_PairCreated_TokenIsNonWBNBSide(t *testing.T) {
	event, err := ParseLog(pairCreatedLog(WBNBAddress, tokenA))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != domain.DiscoveryPairCreation {
		t.Errorf("expected pair_creation, got %s", event.Type)
	}
	if event.TokenAddress != tokenA {
		t.Errorf("expected token %s, got %s", tokenA, event.TokenAddress)
	}
	if event.PairAddress != pairA {
		t.Errorf("expected pair %s, got %s", pairA, event.PairAddress)
	}
	if event.BlockNumber != 42 || event.TxHash != "0xtx1" {
		t.Errorf("provenance lost: %+v", event)
	}

	// WBNB on the other side selects token0.
	event, err = ParseLog(pairCreatedLog(tokenA, WBNBAddress))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.TokenAddress != tokenA {
		t.Errorf("expected token %s, got %s", tokenA, event.TokenAddress)
	}
}

func TestParseLog_Mint(t *testing.T) {
	event, err := ParseLog(chain.Log{
		Address:     strings.ToUpper(pairA), // emitters may be checksummed
		Topics:      []string{MintTopic, wordFor("0xrouter00000000000000000000000000000000")},
		TxHash:      "0xtx2",
		BlockNumber: 43,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != domain.DiscoveryLiquidityAddition {
		t.Errorf("expected liquidity_addition, got %s", event.Type)
	}
	if event.PairAddress != pairA {
		t.Errorf("expected pair %s, got %s", pairA, event.PairAddress)
	}
	if event.TokenAddress != "" {
		t.Error("mint logs carry no token address before resolution")
	}
}

func TestParseLog_Rejects(t *testing.T) {
	if _, err := ParseLog(chain.Log{}); err == nil {
		t.Error("empty log should fail")
	}
	if _, err := ParseLog(chain.Log{Topics: []string{"0xunknown"}}); err == nil {
		t.Error("unknown topic should fail")
	}
	bad := pairCreatedLog(WBNBAddress, tokenA)
	bad.Data = "0x1234"
	if _, err := ParseLog(bad); err == nil {
		t.Error("short data should fail")
	}
}
