package security

import (
	"testing"

	"bsc-token-sniper/internal/domain"
)

// safeAttrs returns a fully benign attribute snapshot.
func safeAttrs() domain.RiskAttributes {
	return domain.RiskAttributes{
		Valid:         true,
		TotalSupply:   1000000,
		LPTotalSupply: 600000,
		HolderCount:   3,
		BuyTaxPct:     2,
		SellTaxPct:    2,
		IsOpenSource:  true,
	}
}

func TestCheckHoneypot_FlagSetIsAlwaysUnsafe(t *testing.T) {
	cases := []domain.RiskAttributes{
		{Valid: true, IsHoneypot: true},
		{Valid: true, HoneypotWithSameCreator: true},
		{Valid: true, IsHoneypot: true, IsOpenSource: true, TotalSupply: 1e9, LPTotalSupply: 1e9},
	}
	for i, attrs := range cases {
		result := checkHoneypot(attrs)
		if result.Safe {
			t.Errorf("case %d: honeypot check should be unsafe", i)
		}
		if result.Score != 0 {
			t.Errorf("case %d: expected score 0, got %.0f", i, result.Score)
		}
	}
}

func TestCheckLiquidity_ZeroSupplyIsUnsafe(t *testing.T) {
	attrs := safeAttrs()
	attrs.TotalSupply = 0

	result := checkLiquidity(attrs, false)
	if result.Safe || result.Score != 0 {
		t.Errorf("zero total supply should be unsafe/0, got safe=%t score=%.0f", result.Safe, result.Score)
	}
}

func TestCheckLiquidity_FreshVsStandard(t *testing.T) {
	attrs := safeAttrs()
	attrs.LPTotalSupply = 150000 // 15% ratio

	fresh := checkLiquidity(attrs, true)
	if !fresh.Safe {
		t.Error("15% ratio should pass the fresh 10% bar")
	}
	if fresh.Score != 75 { // 15 * 5
		t.Errorf("expected fresh score 75, got %.0f", fresh.Score)
	}

	standard := checkLiquidity(attrs, false)
	if standard.Safe {
		t.Error("15% ratio should fail the standard 50% bar")
	}
	if standard.Score != 30 { // 15 * 2
		t.Errorf("expected standard score 30, got %.0f", standard.Score)
	}
}

func TestCheckLiquidity_ScoreCappedAt100(t *testing.T) {
	attrs := safeAttrs()
	attrs.LPTotalSupply = attrs.TotalSupply // 100% ratio

	for _, fresh := range []bool{true, false} {
		result := checkLiquidity(attrs, fresh)
		if result.Score != 100 {
			t.Errorf("fresh=%t: expected capped score 100, got %.0f", fresh, result.Score)
		}
	}
}

func TestCheckHolders_FreshTiers(t *testing.T) {
	cases := []struct {
		holders int
		score   float64
	}{
		{0, 90},
		{5, 90},
		{6, 75},
		{20, 75},
		{21, 60},
		{5000, 60},
	}
	for _, tc := range cases {
		attrs := safeAttrs()
		attrs.HolderCount = tc.holders

		result := checkHolders(attrs, true, DefaultMinHolderCount)
		if !result.Safe {
			t.Errorf("holders=%d: fresh holder check must always be safe", tc.holders)
		}
		if result.Score != tc.score {
			t.Errorf("holders=%d: expected score %.0f, got %.0f", tc.holders, tc.score, result.Score)
		}
	}
}

func TestCheckHolders_LaunchPhase(t *testing.T) {
	attrs := safeAttrs()
	attrs.HolderCount = 2
	attrs.IsTrading = false

	result := checkHolders(attrs, false, 5)
	if !result.Safe || result.Score != 70 {
		t.Errorf("expected launch phase safe/70, got safe=%t score=%.0f", result.Safe, result.Score)
	}
}

func TestCheckHolders_BelowMinimumIsUnsafe(t *testing.T) {
	attrs := safeAttrs()
	attrs.HolderCount = 4
	attrs.IsTrading = true

	result := checkHolders(attrs, false, 10)
	if result.Safe || result.Score != 20 {
		t.Errorf("expected unsafe/20, got safe=%t score=%.0f", result.Safe, result.Score)
	}
}

func TestCheckTaxes(t *testing.T) {
	attrs := safeAttrs()
	attrs.BuyTaxPct = 12
	attrs.SellTaxPct = 2

	result := checkTaxes(attrs)
	if result.Safe {
		t.Error("buy tax above 10% should be unsafe")
	}
	// buy side max(0, 100-120)=0, sell side 80, averaged
	if result.Score != 40 {
		t.Errorf("expected score 40, got %.0f", result.Score)
	}
}

func TestCheckProxy_PartialCredit(t *testing.T) {
	attrs := safeAttrs()
	attrs.IsProxy = true

	result := checkProxy(attrs)
	if result.Safe {
		t.Error("proxy contract should be unsafe")
	}
	if result.Score != 30 {
		t.Errorf("expected partial score 30, got %.0f", result.Score)
	}
}

func TestCheckExternalCalls_PartialCredit(t *testing.T) {
	attrs := safeAttrs()
	attrs.ExternalCall = true

	result := checkExternalCalls(attrs)
	if result.Safe || result.Score != 40 {
		t.Errorf("expected unsafe/40, got safe=%t score=%.0f", result.Safe, result.Score)
	}
}

func TestFailureDefaults_Asymmetry(t *testing.T) {
	invalid := domain.RiskAttributes{} // Valid=false: no provider data

	// Structurally risky checks fail closed.
	closed := []domain.CheckResult{
		checkHoneypot(invalid),
		checkLiquidity(invalid, false),
		checkHolders(invalid, false, 1),
		checkContractVerification(invalid),
		checkTaxes(invalid),
		checkMint(invalid),
		checkOwnership(invalid),
	}
	for _, c := range closed {
		if c.Safe || c.Score != 0 {
			t.Errorf("%s: expected conservative default, got safe=%t score=%.0f", c.Name, c.Safe, c.Score)
		}
	}

	// No-data-is-no-risk checks fail open.
	open := []domain.CheckResult{
		checkProxy(invalid),
		checkExternalCalls(invalid),
		checkHiddenOwner(invalid),
	}
	for _, c := range open {
		if !c.Safe || c.Score != 100 {
			t.Errorf("%s: expected permissive default, got safe=%t score=%.0f", c.Name, c.Safe, c.Score)
		}
	}
}
