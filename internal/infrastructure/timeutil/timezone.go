package timeutil

import (
	"fmt"
	"math"
	"sync"
	"time"
)

var locationCache sync.Map

// GetLocation returns a cached time zone location.
func GetLocation(name string) (*time.Location, error) {
	if loc, ok := locationCache.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	locationCache.Store(name, loc)
	return loc, nil
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDate formats a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// Calendar answers date-distance questions in the market's time zone,
// so "today" does not flip at UTC midnight for a US market.
type Calendar struct {
	clock Clock
	loc   *time.Location
}

// NewCalendar creates a Calendar for the named zone. An unknown zone falls back to UTC.
func NewCalendar(clock Clock, zone string) *Calendar {
	loc, err := GetLocation(zone)
	if err != nil || zone == "" {
		loc = time.UTC
	}
	if clock == nil {
		clock = NewRealClock()
	}
	return &Calendar{clock: clock, loc: loc}
}

// Today returns midnight of the current market day.
func (c *Calendar) Today() time.Time {
	return StartOfDay(c.clock.Now().In(c.loc))
}

// Now returns the current instant.
func (c *Calendar) Now() time.Time {
	return c.clock.Now()
}

// DaysUntil returns whole days from today to the YYYY-MM-DD date; negative for past dates.
func (c *Calendar) DaysUntil(date string) (int, error) {
	d, err := time.ParseInLocation("2006-01-02", date, c.loc)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", date, err)
	}
	today := c.Today()
	// rounding absorbs 23h/25h DST days
	return int(math.Round(d.Sub(today).Hours() / 24)), nil
}
