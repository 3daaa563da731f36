package domain

import "time"

// Check name constants. The check set is fixed; every verdict carries one
// CheckResult per name below.
const (
	CheckHoneypot             = "honeypot_check"
	CheckLiquidity            = "liquidity_check"
	CheckHolders              = "holder_check"
	CheckContractVerification = "contract_verification"
	CheckTax                  = "tax_analysis"
	CheckMint                 = "mint_check"
	CheckOwnership            = "ownership_check"
	CheckProxy                = "proxy_check"
	CheckExternalCall         = "external_call_check"
	CheckHiddenOwner          = "hidden_owner_check"
)

// CheckResult is the outcome of one named security check.
// Ephemeral: it exists only inside a single analysis pass and the verdict
// produced by it.
type CheckResult struct {
	Name   string
	Safe   bool
	Score  float64 // 0..100
	Reason string  // human-readable detail or error text
}

// SecurityVerdict is the aggregated result of one scoring pass.
type SecurityVerdict struct {
	TokenAddress string
	Score        int // 0..100, weighted aggregate
	Safe         bool
	Fresh        bool
	Threshold    int // pass/fail bar used for this verdict
	Checks       []CheckResult
	Risks        []string // failing checks, for notification text
	Strengths    []string // passing checks, for notification text
	Timestamp    time.Time
}

// Check returns the result for a named check, or nil if absent.
func (v *SecurityVerdict) Check(name string) *CheckResult {
	for i := range v.Checks {
		if v.Checks[i].Name == name {
			return &v.Checks[i]
		}
	}
	return nil
}
