// Package security implements the weighted multi-factor token scoring model.
// Ten independent checks produce per-check scores which are aggregated into
// a 0-100 verdict with a pass/fail bar that differs between fresh and
// established tokens.
package security

import (
	"math"
	"strings"
	"time"

	"bsc-token-sniper/internal/domain"
)

// Default thresholds and limits.
const (
	DefaultStandardThreshold = 80
	DefaultFreshThreshold    = 60
	DefaultMinHolderCount    = 1

	freshBonus         = 10
	freshBonusMinScore = 50
)

// Config holds scorer tunables.
type Config struct {
	// FreshThreshold is the pass bar for fresh tokens. Deliberately lower
	// than the standard bar: a risk/speed tradeoff, not a bug.
	FreshThreshold int
	// StandardThreshold is the pass bar for established tokens.
	StandardThreshold int
	// MinHolderCount is the minimum holder count for non-fresh tokens.
	MinHolderCount int
}

// Scorer turns raw risk attributes into a SecurityVerdict. Scoring is pure
// and side-effect-free; one Scorer may be shared across goroutines.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer, filling zero config fields with defaults.
func NewScorer(cfg Config) *Scorer {
	if cfg.FreshThreshold == 0 {
		cfg.FreshThreshold = DefaultFreshThreshold
	}
	if cfg.StandardThreshold == 0 {
		cfg.StandardThreshold = DefaultStandardThreshold
	}
	if cfg.MinHolderCount == 0 {
		cfg.MinHolderCount = DefaultMinHolderCount
	}
	return &Scorer{cfg: cfg}
}

// Check tiers. Critical checks dominate the aggregate; standard checks are
// skipped entirely for fresh tokens because launch-second analysis cannot
// usefully weigh them.
var (
	criticalChecks = []string{
		domain.CheckHoneypot,
		domain.CheckHiddenOwner,
		domain.CheckMint,
		domain.CheckOwnership,
	}
	importantChecks = []string{
		domain.CheckLiquidity,
		domain.CheckTax,
	}
	standardChecks = []string{
		domain.CheckContractVerification,
		domain.CheckProxy,
		domain.CheckExternalCall,
	}
)

// Score runs all ten checks and aggregates them into a verdict.
func (s *Scorer) Score(tokenAddress string, attrs domain.RiskAttributes, fresh bool) *domain.SecurityVerdict {
	honeypot := checkHoneypot(attrs)
	checks := []domain.CheckResult{
		honeypot,
		checkLiquidity(attrs, fresh),
		checkHolders(attrs, fresh, s.cfg.MinHolderCount),
		checkContractVerification(attrs),
		checkTaxes(attrs),
		checkMint(attrs),
		checkOwnership(attrs),
		checkProxy(attrs),
		checkExternalCalls(attrs),
		checkHiddenOwner(attrs),
	}

	score := s.aggregate(checks, fresh)

	threshold := s.cfg.StandardThreshold
	if fresh {
		threshold = s.cfg.FreshThreshold
	}

	// A honeypot vetoes the verdict outright; with fresh-mode weights a
	// zero honeypot score alone cannot drag the aggregate under the bar.
	safe := score >= threshold && honeypot.Safe

	verdict := &domain.SecurityVerdict{
		TokenAddress: tokenAddress,
		Score:        score,
		Safe:         safe,
		Fresh:        fresh,
		Threshold:    threshold,
		Checks:       checks,
		Timestamp:    time.Now().UTC(),
	}

	for _, c := range checks {
		label := describeCheck(c)
		if c.Safe {
			verdict.Strengths = append(verdict.Strengths, label)
		} else {
			verdict.Risks = append(verdict.Risks, label)
		}
	}

	return verdict
}

// aggregate computes the weighted average over the tiers that apply to the
// token's freshness mode, then applies the fresh-token bonus and clamps to
// [0,100].
func (s *Scorer) aggregate(checks []domain.CheckResult, fresh bool) int {
	byName := make(map[string]domain.CheckResult, len(checks))
	for _, c := range checks {
		byName[c.Name] = c
	}

	criticalWeight, importantWeight, holderWeight := 3.0, 2.0, 1.0
	if fresh {
		criticalWeight, importantWeight, holderWeight = 4.0, 3.0, 2.0
	}

	var weightedSum, totalWeight float64

	for _, name := range criticalChecks {
		weightedSum += byName[name].Score * criticalWeight
		totalWeight += criticalWeight
	}
	for _, name := range importantChecks {
		weightedSum += byName[name].Score * importantWeight
		totalWeight += importantWeight
	}

	// Holder distribution doubles as a sniping-quality signal in fresh
	// mode, hence the boosted weight.
	weightedSum += byName[domain.CheckHolders].Score * holderWeight
	totalWeight += holderWeight

	if !fresh {
		for _, name := range standardChecks {
			weightedSum += byName[name].Score
			totalWeight += 1
		}
	}

	if totalWeight == 0 {
		return 0
	}

	score := int(math.Round(weightedSum / totalWeight))

	if fresh && score > freshBonusMinScore {
		score += freshBonus
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// describeCheck renders a check for notification text.
func describeCheck(c domain.CheckResult) string {
	label := strings.ReplaceAll(c.Name, "_", " ")
	if c.Reason == "" {
		return label
	}
	return label + ": " + c.Reason
}
