package accrual_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/asset-engine/accrual"
	"github.com/warp/asset-engine/generic"
	"github.com/warp/asset-engine/generic/store"
)

func forkliftRecord() generic.Asset {
	return generic.Asset{
		ID:              "forklift-1",
		Name:            "Forklift",
		Category:        "warehouse",
		UnitCost:        generic.NewAmountFromInt(5000),
		Quantity:        2,
		SalvageValue:    generic.NewAmountFromInt(0),
		UsefulLifeYears: 5,
		Method:          "straight_line",
		AcquisitionDate: date(2022, time.July, 1),
	}
}

func newTestPoster(t *testing.T, assets ...generic.Asset) (*accrual.Poster, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	for _, a := range assets {
		require.NoError(t, mem.SaveAsset(context.Background(), a))
	}
	p := accrual.NewPoster(mem, nil)
	p.Now = func() time.Time { return time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC) }
	return p, mem
}

func TestFromRecord_LumpsQuantity(t *testing.T) {
	a := accrual.FromRecord(forkliftRecord())
	assert.Equal(t, 10000.0, a.TotalCost)
	assert.Equal(t, 5, a.UsefulLifeYears)
}

func TestEntryPostings_RoundedKeyedAndZeroSkipped(t *testing.T) {
	entry := accrual.Entry{
		AssetID: "a-1",
		Years: []accrual.YearCharge{
			{Year: 1, YearEnd: date(2022, time.December, 31), Annual: 1008.2191780821918, AccumulatedAfter: 1008.2191780821918, BookValueAfter: 8991.780821917808},
			{Year: 2, YearEnd: date(2023, time.December, 31), Annual: 0.001},
		},
	}

	postings := entry.Postings("run-1", time.Now())

	require.Len(t, postings, 1)
	p := postings[0]
	assert.Equal(t, "1008.22", p.Amount.String())
	assert.Equal(t, "8991.78", p.BookValueAfter.String())
	assert.Equal(t, "depr-a-1-1", p.IdempotencyKey)
	assert.Equal(t, generic.RunID("run-1"), p.RunID)
	assert.NotEmpty(t, p.ID)
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestPoster_PostThenReplan_IsEmpty(t *testing.T) {
	// GIVEN: a fresh asset with three closes owed
	ctx := context.Background()
	poster, mem := newTestPoster(t, forkliftRecord())
	postingDate := date(2025, time.March, 15)

	// WHEN: posting
	run, summary, err := poster.PostYearEnd(ctx, postingDate, "manual")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, generic.RunCompleted, run.Status)
	assert.Equal(t, 1, summary.AssetsPosted)
	assert.Equal(t, 3, summary.YearsPosted)

	// THEN: the counter moved and three postings exist
	stored, err := mem.GetAsset(ctx, "forklift-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.DepreciationYearsApplied)

	postings, err := mem.Postings(ctx, "forklift-1")
	require.NoError(t, err)
	require.Len(t, postings, 3)
	assert.Equal(t, "1008.22", postings[0].Amount.String())

	// AND: planning again on the same date finds nothing
	plan := accrual.PlanYearEnd([]accrual.Asset{accrual.FromRecord(stored)}, postingDate)
	assert.Empty(t, plan.Entries)

	again, summary2, err := poster.PostYearEnd(ctx, postingDate, "manual")
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Zero(t, summary2.AssetsPosted)

	runs, err := mem.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestPoster_ApplyStaleEntryRejected(t *testing.T) {
	ctx := context.Background()
	poster, mem := newTestPoster(t, forkliftRecord())

	entry, ok, err := accrual.PlanAsset(accrual.FromRecord(forkliftRecord()), date(2025, time.March, 15))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, poster.Apply(ctx, entry, "run-a"))

	// Same entry again: counter is already 3, not 0
	err = poster.Apply(ctx, entry, "run-b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrStaleAccrual))
	assert.True(t, generic.IsRetryable(err))

	postings, err := mem.Postings(ctx, "forklift-1")
	require.NoError(t, err)
	assert.Len(t, postings, 3)
}

func TestPoster_LaterCloseAppendsOnlyNewYear(t *testing.T) {
	ctx := context.Background()
	poster, mem := newTestPoster(t, forkliftRecord())

	_, _, err := poster.PostYearEnd(ctx, date(2024, time.January, 10), "scheduler")
	require.NoError(t, err)
	_, summary, err := poster.PostYearEnd(ctx, date(2025, time.January, 10), "scheduler")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.YearsPosted)

	stored, err := mem.GetAsset(ctx, "forklift-1")
	require.NoError(t, err)
	pos, err := generic.NewLedger(mem).PositionAt(ctx, stored, date(2025, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, pos.Postings)
	assert.Equal(t, "5008.22", pos.Accumulated.String())
	assert.Equal(t, "4991.78", pos.BookValue.String())
}

func TestPoster_BadAssetDoesNotBlockBatch(t *testing.T) {
	ctx := context.Background()
	bad := forkliftRecord()
	bad.ID = "mystery"
	bad.Method = "units of production"

	poster, mem := newTestPoster(t, forkliftRecord(), bad)

	run, summary, err := poster.PostYearEnd(ctx, date(2025, time.March, 15), "manual")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 1, summary.AssetsPosted)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, generic.AssetID("mystery"), summary.Failures[0].AssetID)
	assert.Equal(t, 1, run.Failures)
	assert.Contains(t, run.Error, "units of production")

	untouched, err := mem.GetAsset(ctx, "mystery")
	require.NoError(t, err)
	assert.Zero(t, untouched.DepreciationYearsApplied)
}
