package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

func TestInferFarePolicy(t *testing.T) {
	tests := []struct {
		brand          string
		wantTier       domain.FareTier
		wantChangeable bool
		wantChangeFee  bool
		wantRefundable bool
		wantFeature    string
	}{
		{"Basic Economy", domain.FareTierBasic, false, false, false, "Seat selection"},
		{"Economy Light", domain.FareTierBasic, false, false, false, ""},
		{"Main Cabin", domain.FareTierStandard, true, true, false, "Changes allowed (fee applies)"},
		{"Main Cabin Flex", domain.FareTierFlex, true, false, true, "Free changes"},
		{"Comfort Plus", domain.FareTierPlus, true, true, false, "Changes allowed (fee applies)"},
		{"Economy Extra", domain.FareTierPlus, true, true, false, "Priority boarding"},
		{"", domain.FareTierStandard, true, true, false, "Changes allowed (fee applies)"},
		{"Mystery Fare", domain.FareTierStandard, true, true, false, "Changes allowed (fee applies)"},
	}

	for _, tt := range tests {
		t.Run(tt.brand, func(t *testing.T) {
			tier, policy := InferFarePolicy(tt.brand)
			assert.Equal(t, tt.wantTier, tier)
			assert.Equal(t, tt.wantChangeable, policy.Changeable)
			assert.Equal(t, tt.wantChangeFee, policy.ChangeFee)
			assert.Equal(t, tt.wantRefundable, policy.Refundable)
			assert.False(t, policy.Explicit)

			features, _ := describeFare(tier, policy)
			if tt.wantTier == domain.FareTierBasic {
				assert.NotContains(t, features, "Seat selection")
				return
			}
			assert.Contains(t, features, tt.wantFeature)
		})
	}
}

func TestInferFarePolicy_PlusIsNeverFreeChange(t *testing.T) {
	for _, brand := range []string{"Comfort Plus", "Main Cabin Extra", "Economy Choice", "Premium Comfort"} {
		t.Run(brand, func(t *testing.T) {
			tier, policy := InferFarePolicy(brand)
			require.Equal(t, domain.FareTierPlus, tier)
			assert.True(t, policy.Changeable)
			assert.True(t, policy.ChangeFee, "changes carry a fee")
			assert.False(t, policy.Refundable)

			features, restrictions := describeFare(tier, policy)
			assert.NotContains(t, features, "Free changes")
			assert.Contains(t, restrictions, "Non-refundable")
		})
	}
}

func TestTierFromPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.FarePolicy
		want   domain.FareTier
	}{
		{"no changes", domain.FarePolicy{}, domain.FareTierBasic},
		{"refundable", domain.FarePolicy{Changeable: true, Refundable: true}, domain.FareTierFlex},
		{"changes with fee", domain.FarePolicy{Changeable: true, ChangeFee: true}, domain.FareTierStandard},
		{"free changes without refund", domain.FarePolicy{Changeable: true}, domain.FareTierStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tierFromPolicy(tt.policy))
		})
	}
}

func TestGroupFareFamilies(t *testing.T) {
	basic := oneWay("off_basic", "AA", "100", 410, 8)
	basic.Source = "duffel"
	basic.BrandName = "Basic Economy"

	main := oneWay("off_main", "AA", "100", 455, 8)
	main.Source = "duffel"
	main.BrandName = "Main Cabin"
	main.Conditions = &domain.FareConditions{Changeable: true, ChangePenalty: 75}

	single := oneWay("am-1", "AA", "100", 420, 8)

	got := GroupFareFamilies([]domain.Offer{main, single, basic}, map[string]bool{"duffel": true})
	require.Len(t, got, 2)

	assert.Equal(t, "am-1", got[0].ID)
	assert.Empty(t, got[0].FareVariants)

	rep := got[1]
	assert.Equal(t, "off_basic", rep.ID)
	assert.Equal(t, 410.0, rep.Price.Total)
	require.Len(t, rep.FareVariants, 2)

	assert.Equal(t, "off_basic", rep.FareVariants[0].OfferID)
	assert.Equal(t, domain.FareTierBasic, rep.FareVariants[0].Tier)
	assert.Contains(t, rep.FareVariants[0].Restrictions, "No changes")

	assert.Equal(t, "off_main", rep.FareVariants[1].OfferID)
	assert.Equal(t, 455.0, rep.FareVariants[1].Price.Total)
	assert.True(t, rep.FareVariants[1].Policy.Explicit)
	assert.True(t, rep.FareVariants[1].Policy.ChangeFee)
	assert.Contains(t, rep.FareVariants[1].Features, "Changes allowed (fee applies)")

	// input untouched
	assert.Empty(t, basic.FareVariants)
}

func TestFarePolicyOf_ExplicitFlagsWithoutBrand(t *testing.T) {
	o := oneWay("x", "AA", "100", 500, 8)
	o.Conditions = &domain.FareConditions{Changeable: true, Refundable: true}

	tier, policy := farePolicyOf(&o)
	assert.Equal(t, domain.FareTierFlex, tier)
	assert.True(t, policy.Explicit)
	assert.False(t, policy.ChangeFee)
}
