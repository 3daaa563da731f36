package portfolio

import "sort"

// ProfitTarget is one rung of the profit-taking ladder. SellPercent is
// applied to the original purchase amount, not the remaining balance.
type ProfitTarget struct {
	Label       string
	GainPercent float64
	SellPercent float64
}

// DefaultTargets returns the standard two-rung ladder: sell a quarter of the
// original position at 5x, another quarter at 10x.
func DefaultTargets() []ProfitTarget {
	return []ProfitTarget{
		{Label: "5x", GainPercent: 500, SellPercent: 25},
		{Label: "10x", GainPercent: 1000, SellPercent: 25},
	}
}

// sortTargets orders targets by ascending gain so a single refresh fires
// lower rungs before higher ones.
func sortTargets(targets []ProfitTarget) []ProfitTarget {
	sorted := append([]ProfitTarget(nil), targets...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].GainPercent < sorted[j].GainPercent
	})
	return sorted
}
