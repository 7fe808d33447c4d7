package domain

// FareTier is the qualitative tier of a fare variant.
type FareTier string

const (
	FareTierBasic    FareTier = "basic"
	FareTierStandard FareTier = "standard"
	FareTierPlus     FareTier = "plus"
	FareTierFlex     FareTier = "flex"
)

// FarePolicy is the change/refund behavior of a fare.
type FarePolicy struct {
	// Changeable reports whether the ticket can be changed at all
	Changeable bool `json:"changeable"`

	// ChangeFee reports whether a change incurs a fee
	ChangeFee bool `json:"changeFee"`

	// Refundable reports whether the ticket can be refunded
	Refundable bool `json:"refundable"`

	// Explicit is true when the provider supplied the flags, false when inferred
	Explicit bool `json:"explicit"`
}

// FareVariant is one price point of a physical flight.
type FareVariant struct {
	OfferID      string     `json:"offerId"`
	BrandName    string     `json:"brandName,omitempty"`
	Tier         FareTier   `json:"tier"`
	Price        Price      `json:"price"`
	Policy       FarePolicy `json:"policy"`
	Features     []string   `json:"features,omitempty"`
	Restrictions []string   `json:"restrictions,omitempty"`
}
