package provider

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// ParseDateTime parses an upstream timestamp. Local times without an offset are
// read as UTC so every provider is compared on the same clock.
func ParseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unable to parse datetime %q", value)
}

var isoDurationRegex = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration parses durations such as "PT2H55M" or "P1DT3H" into minutes.
func ParseISODuration(value string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	m := isoDurationRegex.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("unable to parse duration %q", value)
	}
	part := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	return part(m[1])*24*60 + part(m[2])*60 + part(m[3]) + part(m[4])/60, nil
}

// ParseAmount parses a decimal money string. Empty means zero.
func ParseAmount(value string) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse amount %q", value)
	}
	return f, nil
}

// NormalizeCabin maps upstream cabin spellings onto the shared vocabulary.
func NormalizeCabin(class string) domain.CabinClass {
	normalized := strings.ToLower(strings.TrimSpace(class))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	switch normalized {
	case "premium_economy", "premium", "w":
		return domain.CabinPremiumEconomy
	case "business", "biz", "j", "c":
		return domain.CabinBusiness
	case "first", "f":
		return domain.CabinFirst
	default:
		return domain.CabinEconomy
	}
}

// BuildItinerary fills in the itinerary duration, falling back to the elapsed
// time between the first departure and the last arrival.
func BuildItinerary(segments []domain.Segment, durationMinutes int) domain.Itinerary {
	it := domain.Itinerary{Segments: segments}
	if durationMinutes <= 0 && len(segments) > 0 {
		durationMinutes = int(it.Arrival().Sub(it.Departure()).Minutes())
	}
	it.Duration = domain.NewDurationInfo(durationMinutes)
	return it
}

// SegmentMinutes returns the segment duration, falling back to arrival minus departure.
func SegmentMinutes(iso string, dep, arr time.Time) int {
	if m, err := ParseISODuration(iso); err == nil && m > 0 {
		return m
	}
	return int(arr.Sub(dep).Minutes())
}

// SplitPassengerPrices divides total evenly per passenger when the provider
// reports no per-type breakdown.
func SplitPassengerPrices(price domain.Price, adults, children, infants int) []domain.PassengerPrice {
	count := adults + children + infants
	if count == 0 {
		return nil
	}
	each := domain.Price{
		Base:     price.Base / float64(count),
		Taxes:    price.Taxes / float64(count),
		Total:    price.Total / float64(count),
		Currency: price.Currency,
	}
	var out []domain.PassengerPrice
	for _, p := range []struct {
		t domain.PassengerType
		n int
	}{{domain.PassengerAdult, adults}, {domain.PassengerChild, children}, {domain.PassengerInfant, infants}} {
		if p.n > 0 {
			out = append(out, domain.PassengerPrice{Type: p.t, Count: p.n, Price: each})
		}
	}
	return out
}
