package depreciation

import (
	"github.com/warp/asset-engine/generic"
)

// =============================================================================
// CALENDAR - How much of an asset's life has been used
// =============================================================================
//
// Books close on December 31st. Each Dec 31 strictly after the acquisition
// date and on or before the evaluation date is one year of depreciation owed.
//
// Two day-count conventions coexist and are NOT unified:
//   - expiry dates advance by 365.25 days per remaining year
//   - first-year proration divides held days by 365
// A leap-year acquisition on Jan 1 therefore prorates to 366/365.

const (
	expiryDaysPerYear    = 365.25
	prorationDaysPerYear = 365
)

// YearEndsCrossed counts the Dec 31sts d with acquired < d <= asOf.
func YearEndsCrossed(acquired, asOf generic.TimePoint) int {
	first := acquired.Year()
	if !acquired.Before(generic.YearEnd(first)) {
		first++
	}
	last := asOf.Year()
	if asOf.Before(generic.YearEnd(last)) {
		last--
	}
	if last < first {
		return 0
	}
	return last - first + 1
}

// RemainingLife is N minus the year-ends crossed, clamped to [0, N].
func RemainingLife(usefulLifeYears int, acquired, asOf generic.TimePoint) int {
	if usefulLifeYears <= 0 {
		return 0
	}
	remaining := usefulLifeYears - YearEndsCrossed(acquired, asOf)
	if remaining < 0 {
		return 0
	}
	if remaining > usefulLifeYears {
		return usefulLifeYears
	}
	return remaining
}

// ExpiryDate is acquired + remaining life × 365.25 days, fractional days
// dropped.
func ExpiryDate(usefulLifeYears int, acquired, asOf generic.TimePoint) generic.TimePoint {
	remaining := RemainingLife(usefulLifeYears, acquired, asOf)
	days := int(float64(remaining) * expiryDaysPerYear)
	return acquired.AddDays(days)
}

// FirstYearFraction is the share of the acquisition year the asset was
// held: (Dec 31 - acquired + 1) / 365.
func FirstYearFraction(acquired generic.TimePoint) float64 {
	held := generic.DaysBetween(acquired, generic.YearEnd(acquired.Year())) + 1
	return float64(held) / prorationDaysPerYear
}
