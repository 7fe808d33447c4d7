package domain

import (
	"strings"
	"time"
)

// SortOption defines the available orderings of an offer list.
type SortOption string

// Available sort options.
const (
	// SortByBest sorts by deal score, highest first (default)
	SortByBest SortOption = "best"

	// SortByCheapest sorts by customer price ascending
	SortByCheapest SortOption = "cheapest"

	// SortByFastest sorts by total duration ascending
	SortByFastest SortOption = "fastest"

	// SortByOverall sorts by the weighted balance of price, duration and stops
	SortByOverall SortOption = "overall"
)

// IsValid checks if the sort option is a valid value.
func (s SortOption) IsValid() bool {
	switch s {
	case SortByBest, SortByCheapest, SortByFastest, SortByOverall:
		return true
	default:
		return false
	}
}

// ParseSortOption converts a string to a SortOption.
// Returns SortByBest if the string is empty or invalid.
func ParseSortOption(s string) SortOption {
	option := SortOption(strings.ToLower(strings.TrimSpace(s)))
	if option.IsValid() {
		return option
	}
	return SortByBest
}

// FilterOptions defines optional filters applied to the merged offer set.
// Filters change the shape of the result, so they are part of the cache key.
type FilterOptions struct {
	// MinPrice filters out offers priced below this amount
	MinPrice *float64 `json:"minPrice,omitempty"`

	// MaxPrice filters out offers priced above this amount
	MaxPrice *float64 `json:"maxPrice,omitempty"`

	// MaxStops filters out offers with more stops than this value in any direction
	MaxStops *int `json:"maxStops,omitempty"`

	// Airlines keeps only offers whose validating carrier is listed
	Airlines []string `json:"airlines,omitempty"`

	// DepartureTimeRange keeps offers whose outbound departs within the window
	DepartureTimeRange *TimeRange `json:"departureTimeRange,omitempty"`

	// DurationRange filters offers by total duration in minutes
	DurationRange *DurationRange `json:"durationRange,omitempty"`
}

// TimeRange represents a time-of-day window for filtering.
type TimeRange struct {
	// Start is the beginning of the window (inclusive, only hour and minute matter)
	Start time.Time `json:"start"`

	// End is the end of the window (inclusive)
	End time.Time `json:"end"`
}

// DurationRange represents a duration range filter.
type DurationRange struct {
	// MinMinutes is the minimum acceptable duration in minutes (inclusive)
	MinMinutes *int `json:"minMinutes,omitempty"`

	// MaxMinutes is the maximum acceptable duration in minutes (inclusive)
	MaxMinutes *int `json:"maxMinutes,omitempty"`
}

// IsValid checks if the duration range is valid.
// Returns false if min > max, or if any values are negative.
func (dr *DurationRange) IsValid() bool {
	if dr == nil {
		return true
	}
	if dr.MinMinutes != nil && *dr.MinMinutes < 0 {
		return false
	}
	if dr.MaxMinutes != nil && *dr.MaxMinutes < 0 {
		return false
	}
	if dr.MinMinutes != nil && dr.MaxMinutes != nil && *dr.MinMinutes > *dr.MaxMinutes {
		return false
	}
	return true
}

// Contains checks if a given duration (in minutes) falls within the range.
func (dr *DurationRange) Contains(durationMinutes int) bool {
	if dr == nil {
		return true
	}
	if dr.MinMinutes != nil && durationMinutes < *dr.MinMinutes {
		return false
	}
	if dr.MaxMinutes != nil && durationMinutes > *dr.MaxMinutes {
		return false
	}
	return true
}

// Contains checks if the time of day of t falls within the window.
func (tr *TimeRange) Contains(t time.Time) bool {
	if tr == nil {
		return true
	}
	minutes := t.Hour()*60 + t.Minute()
	start := tr.Start.Hour()*60 + tr.Start.Minute()
	end := tr.End.Hour()*60 + tr.End.Minute()

	// windows crossing midnight, e.g. 22:00-05:00
	if start > end {
		return minutes >= start || minutes <= end
	}
	return minutes >= start && minutes <= end
}

// IsEmpty reports whether no filter is set.
func (f *FilterOptions) IsEmpty() bool {
	return f == nil || (f.MinPrice == nil && f.MaxPrice == nil && f.MaxStops == nil &&
		len(f.Airlines) == 0 && f.DepartureTimeRange == nil && f.DurationRange == nil)
}

// MatchesOffer checks if an offer matches all the filter criteria.
func (f *FilterOptions) MatchesOffer(offer *Offer) bool {
	if f == nil {
		return true
	}

	if f.MinPrice != nil && offer.Price.Total < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && offer.Price.Total > *f.MaxPrice {
		return false
	}

	if f.MaxStops != nil {
		for _, it := range offer.Itineraries {
			if it.Stops() > *f.MaxStops {
				return false
			}
		}
	}

	if len(f.Airlines) > 0 {
		carrier := strings.ToUpper(offer.Carrier())
		found := false
		for _, code := range f.Airlines {
			if strings.ToUpper(code) == carrier {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.DepartureTimeRange != nil && len(offer.Itineraries) > 0 &&
		!f.DepartureTimeRange.Contains(offer.Itineraries[0].Departure()) {
		return false
	}

	if f.DurationRange != nil && !f.DurationRange.Contains(offer.TotalDuration()) {
		return false
	}

	return true
}
