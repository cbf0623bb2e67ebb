package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-engine/generic"
)

func testAsset(id string) generic.Asset {
	return generic.Asset{
		ID:              generic.AssetID(id),
		Name:            id,
		UnitCost:        generic.NewAmountFromInt(10000),
		Quantity:        1,
		SalvageValue:    generic.NewAmountFromInt(0),
		UsefulLifeYears: 5,
		Method:          "SL",
		AcquisitionDate: generic.NewTimePoint(2022, time.July, 1),
	}
}

func yearPosting(id string, year int) generic.Posting {
	key := generic.PostingKey(generic.AssetID(id), year)
	return generic.Posting{
		ID:             generic.PostingID(key),
		AssetID:        generic.AssetID(id),
		FiscalYear:     year,
		YearEnd:        generic.YearEnd(2021 + year),
		Amount:         generic.NewAmountFromInt(2000),
		IdempotencyKey: key,
	}
}

func TestMemory_SaveAssetKeepsCounter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveAsset(ctx, testAsset("a")))
	require.NoError(t, m.ApplyAccrual(ctx, "a", 0, 1, []generic.Posting{yearPosting("a", 1)}))

	// Re-saving descriptive fields must not rewind the counter
	updated := testAsset("a")
	updated.Name = "renamed"
	require.NoError(t, m.SaveAsset(ctx, updated))

	got, err := m.GetAsset(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, 1, got.DepreciationYearsApplied)
}

func TestMemory_ApplyAccrualStale(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveAsset(ctx, testAsset("a")))

	err := m.ApplyAccrual(ctx, "a", 1, 2, []generic.Posting{yearPosting("a", 2)})

	var stale *generic.StaleAccrualError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, 0, stale.Actual)

	postings, _ := m.Postings(ctx, "a")
	assert.Empty(t, postings)
}

func TestMemory_ApplyAccrualDuplicateKeyWritesNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveAsset(ctx, testAsset("a")))
	require.NoError(t, m.ApplyAccrual(ctx, "a", 0, 1, []generic.Posting{yearPosting("a", 1)}))

	err := m.ApplyAccrual(ctx, "a", 1, 3, []generic.Posting{yearPosting("a", 2), yearPosting("a", 1)})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	got, _ := m.GetAsset(ctx, "a")
	assert.Equal(t, 1, got.DepreciationYearsApplied)
	postings, _ := m.Postings(ctx, "a")
	assert.Len(t, postings, 1)
}

func TestMemory_UnknownAsset(t *testing.T) {
	m := NewMemory()
	_, err := m.GetAsset(context.Background(), "missing")
	assert.ErrorIs(t, err, generic.ErrAssetNotFound)
	assert.ErrorIs(t, m.ApplyAccrual(context.Background(), "missing", 0, 1, nil), generic.ErrAssetNotFound)
}

func TestMemory_RunsNewestFirstAndReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.SaveRun(ctx, generic.AccrualRun{ID: "r1", Status: generic.RunCompleted, CreatedAt: base}))
	require.NoError(t, m.SaveRun(ctx, generic.AccrualRun{ID: "r2", Status: generic.RunFailed, CreatedAt: base.Add(time.Hour)}))

	runs, err := m.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, generic.RunID("r2"), runs[0].ID)

	completed, _ := m.ListRuns(ctx, generic.RunCompleted)
	assert.Len(t, completed, 1)

	require.NoError(t, m.SaveAsset(ctx, testAsset("a")))
	require.NoError(t, m.Reset(ctx))
	assets, _ := m.ListAssets(ctx)
	assert.Empty(t, assets)
	runs, _ = m.ListRuns(ctx, "")
	assert.Empty(t, runs)
}
