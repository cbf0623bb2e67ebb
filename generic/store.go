/*
store.go - Persistence interface for assets, postings and accrual runs

PURPOSE:
  Defines the interface between the posting logic and the database.
  The engine itself is pure; this is the only place its one piece of
  owned state (depreciation_years_applied) reaches storage.

KEY INTERFACES:
  AssetStore: Asset records, the append-only postings ledger, run records

APPEND-ONLY CONTRACT:
  Postings are never updated or deleted. A year that was posted wrongly
  is corrected by an adjusting entry outside this engine.

ATOMIC ACCRUAL:
  ApplyAccrual() writes every posting of one plan entry AND advances the
  asset's DepreciationYearsApplied in a single transaction. The advance is a
  compare-and-set on the value the plan was built from, so two concurrent
  posters cannot both apply the same years.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - accrual/poster.go: The single caller of ApplyAccrual
*/
package generic

import "context"

// =============================================================================
// ASSET STORE
// =============================================================================

type AssetStore interface {
	// SaveAsset inserts or updates an asset's descriptive fields.
	// DepreciationYearsApplied is ignored on update.
	SaveAsset(ctx context.Context, asset Asset) error

	// GetAsset returns ErrAssetNotFound when the ID is unknown.
	GetAsset(ctx context.Context, id AssetID) (Asset, error)

	// ListAssets returns all assets ordered by ID.
	ListAssets(ctx context.Context) ([]Asset, error)

	// ApplyAccrual atomically appends postings and moves the asset's
	// DepreciationYearsApplied from expectedApplied to newApplied.
	// Returns a *StaleAccrualError if the stored counter differs from
	// expectedApplied, ErrDuplicateIdempotencyKey if a posting key exists.
	ApplyAccrual(ctx context.Context, assetID AssetID, expectedApplied, newApplied int, postings []Posting) error

	// Postings returns an asset's postings ordered by FiscalYear.
	Postings(ctx context.Context, assetID AssetID) ([]Posting, error)

	// SaveRun inserts or updates an accrual run record.
	SaveRun(ctx context.Context, run AccrualRun) error

	// ListRuns returns runs newest first, optionally filtered by status.
	ListRuns(ctx context.Context, status RunStatus) ([]AccrualRun, error)
}
