/*
Package generic provides the shared record types of the asset engine.

PURPOSE:
  Holds the types every layer agrees on: money amounts, asset records,
  ledger postings and accrual runs. The depreciation math itself lives in
  the depreciation package and works on float64; this package is where
  amounts become decimals rounded to the currency's minor unit.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A decimal money value (currency opaque)
  - Asset: A fixed-asset record as stored
  - Posting: An immutable ledger row for one year of depreciation
  - AccrualRun: Audit record of one batch posting

DESIGN PRINCIPLES:
  1. Immutability: Postings are never modified, only appended
  2. Precision: Stored amounts use decimal.Decimal
  3. Type Safety: AssetID and PostingID are distinct types
  4. Auditability: Every posting has an idempotency key and a run

SEE ALSO:
  - store.go: Persistence interface
  - ledger.go: Replays postings into running totals
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Money value
// =============================================================================

// MinorUnitPlaces is the rounding applied when an amount is persisted.
const MinorUnitPlaces = 2

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value)}
}

func NewAmountFromInt(value int64) Amount {
	return Amount{Value: decimal.NewFromInt(value)}
}

// ParseAmount parses a decimal string such as "250000.00".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d}, nil
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Add(b Amount) Amount   { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount   { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) MulInt(n int64) Amount { return Amount{Value: a.Value.Mul(decimal.NewFromInt(n))} }
func (a Amount) IsZero() bool          { return a.Value.IsZero() }
func (a Amount) Float64() float64      { return a.Value.InexactFloat64() }
func (a Amount) String() string        { return a.Value.StringFixed(MinorUnitPlaces) }

// Rounded returns the amount rounded half-away-from-zero to the minor unit.
func (a Amount) Rounded() Amount {
	return Amount{Value: a.Value.Round(MinorUnitPlaces)}
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AssetID string
type PostingID string
type RunID string

// =============================================================================
// ASSET - Stored fixed-asset record
// =============================================================================

// Asset is a fixed asset as the storage layer knows it. A quantity-of-N
// asset depreciates as one lump of UnitCost × Quantity.
type Asset struct {
	ID              AssetID
	Name            string
	Category        string
	UnitCost        Amount
	Quantity        int
	SalvageValue    Amount
	UsefulLifeYears int
	// Method is the canonical method tag (see depreciation.Method).
	Method          string
	AcquisitionDate TimePoint

	// DepreciationYearsApplied counts year-end postings already recorded.
	// Only AssetStore.ApplyAccrual may change it.
	DepreciationYearsApplied int

	CreatedAt time.Time
}

// TotalCost is UnitCost × Quantity.
func (a Asset) TotalCost() Amount {
	qty := a.Quantity
	if qty < 1 {
		qty = 1
	}
	return a.UnitCost.MulInt(int64(qty))
}

// =============================================================================
// POSTING - One year of depreciation in the ledger
// =============================================================================

type Posting struct {
	ID      PostingID
	AssetID AssetID
	RunID   RunID
	// FiscalYear is the 1-based year of the asset's life this charge belongs to.
	FiscalYear int
	// YearEnd is the December 31st the charge is booked on.
	YearEnd          TimePoint
	Amount           Amount
	AccumulatedAfter Amount
	BookValueAfter   Amount
	IdempotencyKey   string
	CreatedAt        time.Time
}

// =============================================================================
// ACCRUAL RUN - Audit record of a batch posting
// =============================================================================

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

type AccrualRun struct {
	ID           RunID
	PostingDate  TimePoint
	Status       RunStatus
	AssetsPosted int
	YearsPosted  int
	Failures     int
	Error        string
	Trigger      string // "manual" or "scheduler"
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}
