/*
ledger.go - Read side of the append-only postings ledger

PURPOSE:
  Accumulated depreciation and book value are never stored on the asset.
  They are computed by replaying the asset's postings, so there is no
  separate total that can drift from the ledger.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: postings are written only by AssetStore.ApplyAccrual
  2. ONE ROW PER YEAR: idempotency key depr-<asset>-<year>
  3. REPLAYABLE: accumulated = sum of posted amounts, in year order

SEE ALSO:
  - store.go: Persistence interface
  - accrual/poster.go: Builds postings from a plan entry
*/
package generic

import (
	"context"
	"fmt"
)

// PostingKey is the idempotency key of an asset's posting for one life year.
func PostingKey(assetID AssetID, fiscalYear int) string {
	return fmt.Sprintf("depr-%s-%d", assetID, fiscalYear)
}

// LedgerPosition is an asset's replayed position as of a date.
type LedgerPosition struct {
	AssetID     AssetID
	AsOf        TimePoint
	Cost        Amount
	Accumulated Amount
	BookValue   Amount
	Postings    int
}

// Ledger replays postings from a store.
type Ledger struct {
	Store AssetStore
}

func NewLedger(store AssetStore) *Ledger {
	return &Ledger{Store: store}
}

// PositionAt sums the asset's postings booked on or before `at`.
func (l *Ledger) PositionAt(ctx context.Context, asset Asset, at TimePoint) (LedgerPosition, error) {
	postings, err := l.Store.Postings(ctx, asset.ID)
	if err != nil {
		return LedgerPosition{}, err
	}
	return Replay(asset, postings, at), nil
}

// Replay folds postings (ordered by FiscalYear) into a position.
func Replay(asset Asset, postings []Posting, at TimePoint) LedgerPosition {
	cost := asset.TotalCost()
	pos := LedgerPosition{
		AssetID:     asset.ID,
		AsOf:        at,
		Cost:        cost,
		Accumulated: NewAmountFromInt(0),
	}
	for _, p := range postings {
		if p.YearEnd.After(at) {
			break
		}
		pos.Accumulated = pos.Accumulated.Add(p.Amount)
		pos.Postings++
	}
	pos.BookValue = cost.Sub(pos.Accumulated)
	return pos
}
