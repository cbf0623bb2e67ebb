package accrual_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/asset-engine/accrual"
	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/generic"
)

const tolerance = 1e-6

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

// forklift: acquired mid-2022, 10000 over 5 years, straight line → 2000/yr
func forklift() accrual.Asset {
	return accrual.Asset{
		ID:              "forklift-1",
		TotalCost:       10000,
		UsefulLifeYears: 5,
		SalvageValue:    0,
		Method:          string(depreciation.StraightLine),
		AcquisitionDate: date(2022, time.July, 1),
	}
}

// =============================================================================
// PLANNING
// =============================================================================

func TestPlanAsset_MidYearAcquisition_ThreeCloses(t *testing.T) {
	// GIVEN: acquired 2022-07-01, nothing posted
	// WHEN: planning on 2025-03-15
	entry, ok, err := accrual.PlanAsset(forklift(), date(2025, time.March, 15))

	// THEN: closes of 2022, 2023, 2024 are owed, the first prorated 184/365
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, entry.YearsToPost)
	assert.Equal(t, 0, entry.PreviousYearsApplied)
	assert.Equal(t, 3, entry.NewDepreciationYearsApplied)
	require.Len(t, entry.Years, 3)

	first := entry.Years[0]
	assert.Equal(t, 1, first.Year)
	assert.True(t, first.Prorated)
	assert.Equal(t, "2022-12-31", first.YearEnd.String())
	assert.InDelta(t, 2000*184.0/365.0, first.Annual, tolerance)

	assert.Equal(t, "2023-12-31", entry.Years[1].YearEnd.String())
	assert.Equal(t, "2024-12-31", entry.Years[2].YearEnd.String())
	assert.InDelta(t, 2000, entry.Years[1].Annual, tolerance)
	assert.InDelta(t, 2000, entry.Years[2].Annual, tolerance)
	assert.False(t, entry.Years[1].Prorated)

	wantAccumulated := 2000*184.0/365.0 + 4000
	assert.InDelta(t, wantAccumulated, entry.Years[2].AccumulatedAfter, tolerance)
	assert.InDelta(t, 10000-wantAccumulated, entry.Years[2].BookValueAfter, tolerance)
	assert.InDelta(t, wantAccumulated, entry.Total(), tolerance)
}

func TestPlanAsset_BeforeFirstClose_NothingOwed(t *testing.T) {
	_, ok, err := accrual.PlanAsset(forklift(), date(2022, time.December, 30))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlanAsset_PartiallyPosted_OnlyPendingYears(t *testing.T) {
	// GIVEN: 2022 and 2023 already posted
	a := forklift()
	a.DepreciationYearsApplied = 2

	entry, ok, err := accrual.PlanAsset(a, date(2025, time.March, 15))

	// THEN: only 2024 is emitted, carrying the replayed running totals
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, entry.Years, 1)
	assert.Equal(t, 3, entry.Years[0].Year)
	assert.Equal(t, 2, entry.PreviousYearsApplied)
	assert.InDelta(t, 2000*184.0/365.0+4000, entry.Years[0].AccumulatedAfter, tolerance)
}

func TestPlanAsset_AlreadyCurrent(t *testing.T) {
	a := forklift()
	a.DepreciationYearsApplied = 3

	_, ok, err := accrual.PlanAsset(a, date(2025, time.March, 15))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlanAsset_ProrationCannotCrossSalvage(t *testing.T) {
	// GIVEN: one-year life acquired Jan 1 of a leap year → fraction 366/365
	a := accrual.Asset{
		ID: "laptop", TotalCost: 1000, UsefulLifeYears: 1, SalvageValue: 100,
		Method: "Straight Line", AcquisitionDate: date(2024, time.January, 1),
	}

	entry, ok, err := accrual.PlanAsset(a, date(2025, time.January, 15))

	// THEN: 900 × 366/365 would overshoot; the charge lands exactly on salvage
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, entry.Years, 1)
	assert.InDelta(t, 900, entry.Years[0].Annual, tolerance)
	assert.InDelta(t, 100, entry.Years[0].BookValueAfter, tolerance)
}

func TestPlanAsset_ClosesBeyondLifeChargeNothing(t *testing.T) {
	a := accrual.Asset{
		ID: "printer", TotalCost: 1000, UsefulLifeYears: 2,
		Method: "straight_line", AcquisitionDate: date(2021, time.January, 1),
	}

	entry, ok, err := accrual.PlanAsset(a, date(2026, time.January, 1))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, entry.YearsToPost)
	assert.Equal(t, 5, entry.NewDepreciationYearsApplied)
	assert.InDelta(t, 500, entry.Years[0].Annual, tolerance)
	assert.InDelta(t, 500, entry.Years[1].Annual, tolerance)
	for _, y := range entry.Years[2:] {
		assert.Zero(t, y.Annual)
		assert.InDelta(t, 0, y.BookValueAfter, tolerance)
	}
}

func TestPlanAsset_DegenerateRecordPostsZeros(t *testing.T) {
	// Land: no useful life. Closes still advance the counter.
	land := accrual.Asset{
		ID: "land", TotalCost: 500000, UsefulLifeYears: 0,
		Method: "straight_line", AcquisitionDate: date(2020, time.March, 1),
	}

	entry, ok, err := accrual.PlanAsset(land, date(2022, time.June, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, entry.YearsToPost)
	assert.Zero(t, entry.Total())
}

func TestPlanYearEnd_BadRecordsAreReportedNotFatal(t *testing.T) {
	bad := forklift()
	bad.ID = "mystery"
	bad.Method = "units of production"

	negative := forklift()
	negative.ID = "corrupt"
	negative.DepreciationYearsApplied = -1

	plan := accrual.PlanYearEnd([]accrual.Asset{bad, forklift(), negative}, date(2025, time.March, 15))

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, generic.AssetID("forklift-1"), plan.Entries[0].AssetID)

	require.Len(t, plan.Failures, 2)
	assert.Equal(t, generic.AssetID("mystery"), plan.Failures[0].AssetID)
	assert.ErrorIs(t, &plan.Failures[0], depreciation.ErrUnsupportedMethod)
	assert.Equal(t, generic.AssetID("corrupt"), plan.Failures[1].AssetID)
	assert.ErrorIs(t, &plan.Failures[1], generic.ErrInvalidAsset)
}

func TestPlanAsset_MissingAcquisitionDateRejected(t *testing.T) {
	// GIVEN: a record whose acquisition date never parsed
	undated := forklift()
	undated.ID = "undated"
	undated.AcquisitionDate = generic.TimePoint{}

	// WHEN: planning
	_, ok, err := accrual.PlanAsset(undated, date(2025, time.March, 15))

	// THEN: reported as invalid instead of planning two thousand closes
	assert.False(t, ok)
	var invalid *generic.InvalidAssetError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "acquisition_date", invalid.Field)

	plan := accrual.PlanYearEnd([]accrual.Asset{undated, forklift()}, date(2025, time.March, 15))
	assert.Len(t, plan.Entries, 1)
	require.Len(t, plan.Failures, 1)
	assert.Equal(t, generic.AssetID("undated"), plan.Failures[0].AssetID)
}

func TestPlanYearEnd_Deterministic(t *testing.T) {
	assets := []accrual.Asset{forklift(), {
		ID: "press", TotalCost: 250000, UsefulLifeYears: 4, SalvageValue: 25000,
		Method: "Double Declining Balance", AcquisitionDate: date(2021, time.October, 12),
	}}
	at := date(2024, time.February, 1)

	assert.Equal(t, accrual.PlanYearEnd(assets, at), accrual.PlanYearEnd(assets, at))
}

func TestPlanYearEnd_EveryMethodStaysAboveSalvage(t *testing.T) {
	for _, m := range depreciation.Methods() {
		a := accrual.Asset{
			ID: generic.AssetID(m), TotalCost: 80000, UsefulLifeYears: 6, SalvageValue: 8000,
			Method: string(m), AcquisitionDate: date(2015, time.May, 20),
		}
		entry, ok, err := accrual.PlanAsset(a, date(2025, time.June, 1))
		require.NoError(t, err)
		require.True(t, ok)

		prev := a.TotalCost
		for _, y := range entry.Years {
			assert.GreaterOrEqual(t, y.Annual, 0.0, m)
			assert.GreaterOrEqual(t, y.BookValueAfter, a.SalvageValue-tolerance, m)
			assert.LessOrEqual(t, y.BookValueAfter, prev+tolerance, m)
			prev = y.BookValueAfter
		}
	}
}
