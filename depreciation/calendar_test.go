package depreciation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/generic"
)

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

func TestYearEndsCrossed(t *testing.T) {
	cases := []struct {
		name     string
		acquired generic.TimePoint
		asOf     generic.TimePoint
		want     int
	}{
		{"mid-year acquisition, three closes", date(2022, time.July, 1), date(2025, time.March, 15), 3},
		{"same day", date(2022, time.July, 1), date(2022, time.July, 1), 0},
		{"before first close", date(2022, time.July, 1), date(2022, time.December, 30), 0},
		{"on first close", date(2022, time.July, 1), date(2022, time.December, 31), 1},
		{"acquired on Dec 31 does not count that close", date(2022, time.December, 31), date(2023, time.December, 30), 0},
		{"acquired on Dec 31, next close counts", date(2022, time.December, 31), date(2023, time.December, 31), 1},
		{"acquired Jan 1", date(2023, time.January, 1), date(2024, time.January, 1), 1},
		{"evaluation before acquisition", date(2024, time.June, 1), date(2020, time.June, 1), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, depreciation.YearEndsCrossed(tc.acquired, tc.asOf))
		})
	}
}

func TestRemainingLife(t *testing.T) {
	acquired := date(2022, time.July, 1)

	assert.Equal(t, 5, depreciation.RemainingLife(5, acquired, acquired))
	assert.Equal(t, 2, depreciation.RemainingLife(5, acquired, date(2025, time.March, 15)))
	assert.Equal(t, 0, depreciation.RemainingLife(5, acquired, date(2040, time.January, 1)))
	assert.Equal(t, 0, depreciation.RemainingLife(0, acquired, acquired))
}

func TestExpiryDate(t *testing.T) {
	acquired := date(2022, time.July, 1)

	// Two years left: 730.5 days, fraction dropped
	got := depreciation.ExpiryDate(5, acquired, date(2025, time.March, 15))
	assert.Equal(t, "2024-06-30", got.String())

	// Full life: 1826.25 days
	got = depreciation.ExpiryDate(5, acquired, acquired)
	assert.Equal(t, "2027-07-01", got.String())

	// Exhausted: expiry collapses onto the acquisition date
	got = depreciation.ExpiryDate(5, acquired, date(2030, time.January, 1))
	assert.True(t, got.Equal(acquired))
}

func TestFirstYearFraction(t *testing.T) {
	assert.InDelta(t, 184.0/365.0, depreciation.FirstYearFraction(date(2022, time.July, 1)), 1e-12)
	assert.InDelta(t, 1.0/365.0, depreciation.FirstYearFraction(date(2022, time.December, 31)), 1e-12)
	assert.InDelta(t, 1.0, depreciation.FirstYearFraction(date(2023, time.January, 1)), 1e-12)

	// Leap years are not special-cased: a full leap year exceeds one
	assert.InDelta(t, 366.0/365.0, depreciation.FirstYearFraction(date(2024, time.January, 1)), 1e-12)
}
