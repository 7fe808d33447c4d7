package usecase

import (
	"strings"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// fareRule maps brand-name keywords to a tier and its usual restrictions.
type fareRule struct {
	keywords []string
	tier     domain.FareTier
	policy   domain.FarePolicy
}

// fareRuleTable is matched in order; the first rule with a keyword found in the
// upper-cased brand name wins.
var fareRuleTable = []fareRule{
	{
		keywords: []string{"BASIC", "LIGHT", "SAVER", "LITE"},
		tier:     domain.FareTierBasic,
		policy:   domain.FarePolicy{Changeable: false, ChangeFee: false, Refundable: false},
	},
	{
		keywords: []string{"FLEX", "FULLY REFUNDABLE", "UNRESTRICTED"},
		tier:     domain.FareTierFlex,
		policy:   domain.FarePolicy{Changeable: true, ChangeFee: false, Refundable: true},
	},
	{
		keywords: []string{"PLUS", "COMFORT", "EXTRA", "CHOICE"},
		tier:     domain.FareTierPlus,
		policy:   domain.FarePolicy{Changeable: true, ChangeFee: true, Refundable: false},
	},
	{
		keywords: []string{"MAIN", "STANDARD", "CLASSIC", "VALUE", "ECONOMY"},
		tier:     domain.FareTierStandard,
		policy:   domain.FarePolicy{Changeable: true, ChangeFee: true, Refundable: false},
	},
}

// unknownFare is assumed for unrecognized brands: changes with a fee, no refund.
var unknownFare = fareRule{
	tier:   domain.FareTierStandard,
	policy: domain.FarePolicy{Changeable: true, ChangeFee: true, Refundable: false},
}

// InferFarePolicy derives tier and restrictions from a brand name.
func InferFarePolicy(brand string) (domain.FareTier, domain.FarePolicy) {
	upper := strings.ToUpper(strings.TrimSpace(brand))
	if upper != "" {
		for _, rule := range fareRuleTable {
			for _, kw := range rule.keywords {
				if strings.Contains(upper, kw) {
					return rule.tier, rule.policy
				}
			}
		}
	}
	return unknownFare.tier, unknownFare.policy
}

// farePolicyOf prefers explicit provider flags, falling back to the brand name.
func farePolicyOf(o *domain.Offer) (domain.FareTier, domain.FarePolicy) {
	tier, policy := InferFarePolicy(o.BrandName)
	if o.Conditions == nil {
		return tier, policy
	}
	explicit := domain.FarePolicy{
		Changeable: o.Conditions.Changeable,
		ChangeFee:  o.Conditions.Changeable && o.Conditions.ChangePenalty > 0,
		Refundable: o.Conditions.Refundable,
		Explicit:   true,
	}
	if o.BrandName == "" {
		tier = tierFromPolicy(explicit)
	}
	return tier, explicit
}

// tierFromPolicy names an unbranded fare from its flags. Plus differs from
// Standard only in perks, which flags cannot show, so changeable non-refundable
// fares are Standard whether or not a change fee applies.
func tierFromPolicy(p domain.FarePolicy) domain.FareTier {
	switch {
	case !p.Changeable:
		return domain.FareTierBasic
	case p.Refundable:
		return domain.FareTierFlex
	default:
		return domain.FareTierStandard
	}
}

// describeFare renders the feature and restriction labels shown to travelers.
func describeFare(tier domain.FareTier, p domain.FarePolicy) (features, restrictions []string) {
	switch {
	case p.Changeable && !p.ChangeFee:
		features = append(features, "Free changes")
	case p.Changeable:
		features = append(features, "Changes allowed (fee applies)")
	default:
		restrictions = append(restrictions, "No changes")
	}

	if p.Refundable {
		features = append(features, "Refundable")
	} else {
		restrictions = append(restrictions, "Non-refundable")
	}

	if tier == domain.FareTierBasic {
		restrictions = append(restrictions, "Seat assigned at check-in")
	} else {
		features = append(features, "Seat selection")
	}
	if tier == domain.FareTierPlus || tier == domain.FareTierFlex {
		features = append(features, "Priority boarding")
	}
	return features, restrictions
}

// GroupFareFamilies collapses the offers of multi-variant sources that share a
// flight signature into one representative (the cheapest) carrying every
// variant, cheapest first. Offers from other sources pass through unchanged.
func GroupFareFamilies(offers []domain.Offer, multiVariant map[string]bool) []domain.Offer {
	out := make([]domain.Offer, 0, len(offers))
	groups := make(map[string][]domain.Offer)
	var order []string

	for _, o := range offers {
		if !multiVariant[o.Source] {
			out = append(out, o)
			continue
		}
		key := o.Source + "#" + o.Signature()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], o)
	}

	for _, key := range order {
		family := groups[key]
		sortByPrice(family)

		rep := family[0].Clone()
		rep.FareVariants = make([]domain.FareVariant, 0, len(family))
		for i := range family {
			rep.FareVariants = append(rep.FareVariants, fareVariantOf(&family[i]))
		}
		out = append(out, rep)
	}
	return out
}

func fareVariantOf(o *domain.Offer) domain.FareVariant {
	tier, policy := farePolicyOf(o)
	features, restrictions := describeFare(tier, policy)
	return domain.FareVariant{
		OfferID:      o.ID,
		BrandName:    o.BrandName,
		Tier:         tier,
		Price:        o.Price,
		Policy:       policy,
		Features:     features,
		Restrictions: restrictions,
	}
}

