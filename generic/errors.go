/*
errors.go - Centralized error types for the asset engine

PURPOSE:
  All persistence and record-level error types in one place.
  The depreciation package owns ErrUnsupportedMethod; everything the
  storage layer or the posting helper can return lives here.

ERROR CATEGORIES:
  1. Ledger errors - Posting persistence failures
  2. Validation errors - Malformed asset records
  3. Store errors - Lookups and concurrent writers

USAGE:
    if errors.Is(err, generic.ErrStaleAccrual) {
        // someone else advanced the asset first; re-plan
    }

SEE ALSO:
  - store.go: Uses these errors
  - accrual/poster.go: Wraps these errors per asset
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when a posting with the same
	// idempotency key already exists (the year was already posted).
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrStaleAccrual is returned when the stored depreciation_years_applied
	// no longer matches the value the plan was built from.
	ErrStaleAccrual = errors.New("depreciation years applied changed since planning")

	// ErrAssetNotFound is returned when a referenced asset doesn't exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidAsset is returned when an asset record fails validation.
	ErrInvalidAsset = errors.New("invalid asset")

	// ErrPostingFailed is returned when postings cannot be persisted.
	ErrPostingFailed = errors.New("posting failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// StaleAccrualError reports the counter mismatch found at apply time.
type StaleAccrualError struct {
	AssetID  AssetID
	Expected int
	Actual   int
}

func (e *StaleAccrualError) Error() string {
	return fmt.Sprintf("asset %s: expected %d depreciation years applied, found %d",
		e.AssetID, e.Expected, e.Actual)
}

func (e *StaleAccrualError) Unwrap() error {
	return ErrStaleAccrual
}

// InvalidAssetError names the field that made an asset record unusable.
type InvalidAssetError struct {
	Field  string
	Reason string
}

func (e *InvalidAssetError) Error() string {
	return fmt.Sprintf("invalid asset: %s %s", e.Field, e.Reason)
}

func (e *InvalidAssetError) Unwrap() error {
	return ErrInvalidAsset
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed after re-planning.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleAccrual)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAsset) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssetNotFound)
}
