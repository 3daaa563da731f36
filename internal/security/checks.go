package security

import (
	"fmt"

	"bsc-token-sniper/internal/domain"
)

// Per-check scoring constants.
const (
	maxAcceptableTaxPct = 10.0
	taxPenaltyPerPct    = 10.0

	minLiquidityRatioFresh    = 10.0
	minLiquidityRatioStandard = 50.0

	proxyPartialScore        = 30.0
	externalCallPartialScore = 40.0
	launchPhaseScore         = 70.0
	lowHolderScore           = 20.0
)

// conservative is the fail-closed outcome for checks with structurally
// risky defaults: no data means we must assume the worst.
func conservative(name, reason string) domain.CheckResult {
	return domain.CheckResult{Name: name, Safe: false, Score: 0, Reason: reason}
}

// permissive is the fail-open outcome for checks where absent data carries
// no-risk semantics (proxy, external call, hidden owner).
func permissive(name, reason string) domain.CheckResult {
	return domain.CheckResult{Name: name, Safe: true, Score: 100, Reason: reason}
}

func checkHoneypot(a domain.RiskAttributes) domain.CheckResult {
	if !a.Valid {
		return conservative(domain.CheckHoneypot, "risk data unavailable")
	}
	if a.IsHoneypot || a.HoneypotWithSameCreator {
		return domain.CheckResult{
			Name:   domain.CheckHoneypot,
			Safe:   false,
			Score:  0,
			Reason: "honeypot indicators present",
		}
	}
	return domain.CheckResult{Name: domain.CheckHoneypot, Safe: true, Score: 100}
}

func checkLiquidity(a domain.RiskAttributes, fresh bool) domain.CheckResult {
	if !a.Valid {
		return conservative(domain.CheckLiquidity, "risk data unavailable")
	}
	if a.TotalSupply == 0 {
		return conservative(domain.CheckLiquidity, "no total supply data")
	}

	ratio := a.LPTotalSupply / a.TotalSupply * 100

	// Fresh tokens get a lower bar and more generous scoring: seconds
	// after launch even a thin pool is acceptable.
	minRatio := minLiquidityRatioStandard
	score := min(100, ratio*2)
	if fresh {
		minRatio = minLiquidityRatioFresh
		score = min(100, ratio*5)
	}

	return domain.CheckResult{
		Name:   domain.CheckLiquidity,
		Safe:   ratio >= minRatio,
		Score:  score,
		Reason: fmt.Sprintf("liquidity ratio %.1f%% (min %.0f%%)", ratio, minRatio),
	}
}

// checkHolders inverts the usual holder-concentration intuition for fresh
// tokens: a token seconds old with a handful of holders is exactly what the
// sniping window targets, so low counts score high and are always safe.
func checkHolders(a domain.RiskAttributes, fresh bool, minHolders int) domain.CheckResult {
	if !a.Valid {
		return conservative(domain.CheckHolders, "risk data unavailable")
	}

	if fresh {
		var score float64
		switch {
		case a.HolderCount <= 5:
			score = 90
		case a.HolderCount <= 20:
			score = 75
		default:
			score = 60
		}
		return domain.CheckResult{
			Name:   domain.CheckHolders,
			Safe:   true,
			Score:  score,
			Reason: fmt.Sprintf("fresh token with %d holders", a.HolderCount),
		}
	}

	if a.HolderCount <= 2 && !a.IsTrading {
		return domain.CheckResult{
			Name:   domain.CheckHolders,
			Safe:   true,
			Score:  launchPhaseScore,
			Reason: "token at launch phase",
		}
	}

	if a.HolderCount < minHolders {
		return domain.CheckResult{
			Name:   domain.CheckHolders,
			Safe:   false,
			Score:  lowHolderScore,
			Reason: fmt.Sprintf("too few holders: %d", a.HolderCount),
		}
	}

	return domain.CheckResult{
		Name:   domain.CheckHolders,
		Safe:   a.HolderCount >= minHolders,
		Score:  min(100, float64(a.HolderCount)/100*100),
		Reason: fmt.Sprintf("%d holders", a.HolderCount),
	}
}

func checkContractVerification(a domain.RiskAttributes) domain.CheckResult {
	if !a.Valid {
		return conservative(domain.CheckContractVerification, "risk data unavailable")
	}
	if !a.IsOpenSource {
		return domain.CheckResult{
			Name:   domain.CheckContractVerification,
			Safe:   false,
			Score:  0,
			Reason: "contract source not verified",
		}
	}
	return domain.CheckResult{Name: domain.CheckContractVerification, Safe: true, Score: 100}
}

func checkTaxes(a domain.RiskAttributes) domain.CheckResult {
	if !a.Valid {
		return conservative(domain.CheckTax, "risk data unavailable")
	}

	// Each percentage point of tax costs ten points; buy and sell sides
	// are averaged.
	buyScore := max(0, 100-a.BuyTaxPct*taxPenaltyPerPct)
	sellScore := max(0, 100-a.SellTaxPct*taxPenaltyPerPct)

	return domain.CheckResult{
		Name:   domain.CheckTax,
		Safe:   a.BuyTaxPct <= maxAcceptableTaxPct && a.SellTaxPct <= maxAcceptableTaxPct,
		Score:  (buyScore + sellScore) / 2,
		Reason: fmt.Sprintf("buy tax %.1f%%, sell tax %.1f%%", a.BuyTaxPct, a.SellTaxPct),
	}
}

func checkMint(a domain.RiskAttributes) domain.CheckResult {
	if !a.Valid {
		return conservative(domain.CheckMint, "risk data unavailable")
	}
	if a.IsMintable || a.CanTakeBackOwnership {
		return domain.CheckResult{
			Name:   domain.CheckMint,
			Safe:   false,
			Score:  0,
			Reason: "supply can be inflated or ownership reclaimed",
		}
	}
	return domain.CheckResult{Name: domain.CheckMint, Safe: true, Score: 100}
}

func checkOwnership(a domain.RiskAttributes) domain.CheckResult {
	if !a.Valid {
		return conservative(domain.CheckOwnership, "risk data unavailable")
	}
	if a.OwnerChangeBalance || a.CannotSellAll {
		return domain.CheckResult{
			Name:   domain.CheckOwnership,
			Safe:   false,
			Score:  0,
			Reason: "owner can change balances or block full exits",
		}
	}
	return domain.CheckResult{Name: domain.CheckOwnership, Safe: true, Score: 100}
}

func checkProxy(a domain.RiskAttributes) domain.CheckResult {
	if !a.Valid {
		return permissive(domain.CheckProxy, "proxy data unavailable")
	}
	if a.IsProxy {
		// Partial credit: plenty of legitimate tokens sit behind proxies,
		// but upgradability is still a risk.
		return domain.CheckResult{
			Name:   domain.CheckProxy,
			Safe:   false,
			Score:  proxyPartialScore,
			Reason: "upgradeable proxy contract",
		}
	}
	return domain.CheckResult{Name: domain.CheckProxy, Safe: true, Score: 100}
}

func checkExternalCalls(a domain.RiskAttributes) domain.CheckResult {
	if !a.Valid {
		return permissive(domain.CheckExternalCall, "external call data unavailable")
	}
	if a.ExternalCall {
		return domain.CheckResult{
			Name:   domain.CheckExternalCall,
			Safe:   false,
			Score:  externalCallPartialScore,
			Reason: "contract makes external calls",
		}
	}
	return domain.CheckResult{Name: domain.CheckExternalCall, Safe: true, Score: 100}
}

func checkHiddenOwner(a domain.RiskAttributes) domain.CheckResult {
	if !a.Valid {
		return permissive(domain.CheckHiddenOwner, "hidden owner data unavailable")
	}
	if a.HiddenOwner {
		return domain.CheckResult{
			Name:   domain.CheckHiddenOwner,
			Safe:   false,
			Score:  0,
			Reason: "ownership is obscured",
		}
	}
	return domain.CheckResult{Name: domain.CheckHiddenOwner, Safe: true, Score: 100}
}
