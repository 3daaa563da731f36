// Package freshness decides whether a newly observed token is inside the
// sniping window. Age is the time since the token's first on-chain
// transaction; tokens older than the configured ceiling are dropped.
package freshness

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNoHistory is returned by an AgeLookup when the address has no
// transaction history yet.
var ErrNoHistory = errors.New("no transaction history")

// AgeLookup resolves the first on-chain transaction timestamp for an
// address.
type AgeLookup interface {
	FirstTxTimestamp(ctx context.Context, tokenAddress string) (time.Time, error)
}

// Age fallbacks. A token the system just observed with no transaction
// history is almost certainly seconds old, so lookup gaps classify as very
// fresh instead of rejecting the candidate.
const (
	DefaultMaxAgeMinutes = 3.0

	ageOnEmptyHistory = 0.1 // minutes; effectively "just deployed"
	ageOnLookupError  = 0.5 // minutes; assume fresh when the provider fails
)

// Config holds classifier tunables.
type Config struct {
	// MaxAgeMinutes is the sniping window ceiling (0 uses the default).
	MaxAgeMinutes float64
	// Denylist contains addresses that must never be treated as
	// candidates (established tokens like WBNB or stables).
	Denylist []string
}

// Classifier classifies token age against the sniping window.
type Classifier struct {
	lookup   AgeLookup
	maxAge   float64
	denylist map[string]struct{}
	now      func() time.Time
}

// NewClassifier creates a Classifier.
func NewClassifier(lookup AgeLookup, cfg Config) *Classifier {
	maxAge := cfg.MaxAgeMinutes
	if maxAge <= 0 {
		maxAge = DefaultMaxAgeMinutes
	}
	denylist := make(map[string]struct{}, len(cfg.Denylist))
	for _, addr := range cfg.Denylist {
		denylist[strings.ToLower(addr)] = struct{}{}
	}
	return &Classifier{
		lookup:   lookup,
		maxAge:   maxAge,
		denylist: denylist,
		now:      time.Now,
	}
}

// Denied reports whether the address is on the denylist.
func (c *Classifier) Denied(tokenAddress string) bool {
	_, denied := c.denylist[strings.ToLower(tokenAddress)]
	return denied
}

// AgeMinutes returns the token's age in minutes. Lookup failures and empty
// history both classify as very fresh.
func (c *Classifier) AgeMinutes(ctx context.Context, tokenAddress string) float64 {
	firstTx, err := c.lookup.FirstTxTimestamp(ctx, tokenAddress)
	if err != nil {
		if errors.Is(err, ErrNoHistory) {
			return ageOnEmptyHistory
		}
		return ageOnLookupError
	}

	age := c.now().Sub(firstTx).Minutes()
	if age < 0 {
		age = 0
	}
	return age
}

// Eligible reports whether an age is inside the sniping window.
func (c *Classifier) Eligible(ageMinutes float64) bool {
	return ageMinutes <= c.maxAge
}

// MaxAgeMinutes returns the configured window ceiling.
func (c *Classifier) MaxAgeMinutes() float64 {
	return c.maxAge
}
