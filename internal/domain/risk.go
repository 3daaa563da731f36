package domain

// RiskAttributes is a typed snapshot of the raw risk flags returned by the
// risk data provider for a single token address. Parsing and defaulting of
// the provider's stringly-typed payload happens at the provider boundary;
// scoring logic only ever sees this struct.
type RiskAttributes struct {
	// Valid is false when the provider returned no data for the token.
	// An invalid snapshot drives every structurally risky check to its
	// conservative outcome.
	Valid bool

	TokenName   string
	TokenSymbol string

	IsHoneypot              bool
	HoneypotWithSameCreator bool

	TotalSupply   float64
	LPTotalSupply float64

	HolderCount int
	IsTrading   bool

	IsOpenSource bool

	BuyTaxPct  float64
	SellTaxPct float64

	IsMintable           bool
	CanTakeBackOwnership bool

	OwnerChangeBalance bool
	CannotSellAll      bool

	IsProxy      bool
	ExternalCall bool
	HiddenOwner  bool
}
