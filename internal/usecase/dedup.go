package usecase

import (
	"sort"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// Deduplicate keeps one offer per physical flight signature, the cheapest.
// Equal prices resolve to the smaller ID so the result does not depend on
// provider arrival order. The output is sorted by price, then ID.
func Deduplicate(offers []domain.Offer) []domain.Offer {
	if len(offers) == 0 {
		return []domain.Offer{}
	}

	bySignature := make(map[string]int, len(offers))
	kept := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		sig := o.Signature()
		idx, seen := bySignature[sig]
		if !seen {
			bySignature[sig] = len(kept)
			kept = append(kept, o)
			continue
		}
		kept[idx] = keepCheaper(kept[idx], o)
	}

	sortByPrice(kept)
	return kept
}

// keepCheaper returns the offer with the lower total, the smaller ID on a tie.
func keepCheaper(current, candidate domain.Offer) domain.Offer {
	if candidate.Price.Total < current.Price.Total {
		return candidate
	}
	if candidate.Price.Total == current.Price.Total && candidate.ID < current.ID {
		return candidate
	}
	return current
}

func sortByPrice(offers []domain.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].Price.Total != offers[j].Price.Total {
			return offers[i].Price.Total < offers[j].Price.Total
		}
		return offers[i].ID < offers[j].ID
	})
}
