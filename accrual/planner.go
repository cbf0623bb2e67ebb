/*
Package accrual plans and applies year-end depreciation postings.

PURPOSE:
  At each December 31st close, every asset owes one year of depreciation.
  The planner compares the closes crossed since acquisition with the
  closes already posted (DepreciationYearsApplied) and emits, per asset,
  the years still owed.

PLAN RULES (per asset):
  1. crossed = year-ends between acquisition and the posting date
  2. pending = crossed - DepreciationYearsApplied; nothing if pending <= 0
  3. each life year k gets depreciation.Compute(year = k)
  4. year 1 is prorated by the share of the acquisition year held
  5. a charge that would take book value below salvage is cut to land on it
  6. the entry's NewDepreciationYearsApplied is crossed

REPLAY:
  Book value before the first pending year is not read from storage. The
  planner replays years 1..crossed with the same rules and emits only the
  pending ones, so a plan is a pure function of the asset snapshot and the
  posting date. Running it twice yields the same plan; applying it and
  running again on the same date yields nothing.

FAILURES:
  A bad record (unknown method, negative counter, non-finite arithmetic)
  becomes an AssetError in Plan.Failures. The batch continues.

SEE ALSO:
  - poster.go: Applies one entry per store transaction
  - depreciation/calendar.go: YearEndsCrossed, FirstYearFraction
*/
package accrual

import (
	"errors"
	"fmt"
	"math"

	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/generic"
)

// ErrArithmetic marks an asset whose numbers produced NaN or Inf.
var ErrArithmetic = errors.New("non-finite depreciation amount")

// =============================================================================
// INPUT / OUTPUT SHAPES
// =============================================================================

// Asset is the read-only snapshot the planner works from.
type Asset struct {
	ID                       generic.AssetID
	TotalCost                float64
	UsefulLifeYears          int
	SalvageValue             float64
	Method                   string
	AcquisitionDate          generic.TimePoint
	DepreciationYearsApplied int
}

// FromRecord projects a stored asset onto the planner's snapshot.
func FromRecord(a generic.Asset) Asset {
	return Asset{
		ID:                       a.ID,
		TotalCost:                a.TotalCost().Float64(),
		UsefulLifeYears:          a.UsefulLifeYears,
		SalvageValue:             a.SalvageValue.Float64(),
		Method:                   a.Method,
		AcquisitionDate:          a.AcquisitionDate,
		DepreciationYearsApplied: a.DepreciationYearsApplied,
	}
}

// YearCharge is one year's posting within an entry.
type YearCharge struct {
	// Year is the 1-based life year.
	Year             int
	YearEnd          generic.TimePoint
	Annual           float64
	AccumulatedAfter float64
	BookValueAfter   float64
	Prorated         bool
}

// Entry is everything to post for one asset. One entry is one transaction.
type Entry struct {
	AssetID generic.AssetID
	// YearsToPost is len(Years).
	YearsToPost int
	// Years is ordered oldest first.
	Years []YearCharge
	// PreviousYearsApplied is the counter the entry was planned from.
	PreviousYearsApplied        int
	NewDepreciationYearsApplied int
}

// Total is the sum of the entry's charges.
func (e Entry) Total() float64 {
	total := 0.0
	for _, y := range e.Years {
		total += y.Annual
	}
	return total
}

// AssetError is a per-asset failure reported alongside a plan.
type AssetError struct {
	AssetID generic.AssetID
	Err     error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.AssetID, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// Plan is the output of PlanYearEnd.
type Plan struct {
	PostingDate generic.TimePoint
	Entries     []Entry
	Failures    []AssetError
}

// IsEmpty reports whether there is nothing to post and nothing failed.
func (p Plan) IsEmpty() bool {
	return len(p.Entries) == 0 && len(p.Failures) == 0
}

// =============================================================================
// PLANNER
// =============================================================================

// PlanYearEnd builds the plan for all assets as of postingDate. Entries
// keep the input order; assets with nothing pending are left out.
func PlanYearEnd(assets []Asset, postingDate generic.TimePoint) Plan {
	plan := Plan{PostingDate: postingDate}
	for _, a := range assets {
		entry, ok, err := PlanAsset(a, postingDate)
		if err != nil {
			plan.Failures = append(plan.Failures, AssetError{AssetID: a.ID, Err: err})
			continue
		}
		if ok {
			plan.Entries = append(plan.Entries, entry)
		}
	}
	return plan
}

// PlanAsset plans one asset. ok is false when nothing is pending.
func PlanAsset(a Asset, postingDate generic.TimePoint) (entry Entry, ok bool, err error) {
	method, err := depreciation.ParseMethod(a.Method)
	if err != nil {
		return Entry{}, false, err
	}
	if a.DepreciationYearsApplied < 0 {
		return Entry{}, false, &generic.InvalidAssetError{
			Field:  "depreciation_years_applied",
			Reason: fmt.Sprintf("is negative (%d)", a.DepreciationYearsApplied),
		}
	}

	if a.AcquisitionDate.IsZero() {
		return Entry{}, false, &generic.InvalidAssetError{
			Field:  "acquisition_date",
			Reason: "is missing",
		}
	}

	crossed := depreciation.YearEndsCrossed(a.AcquisitionDate, postingDate)
	if crossed-a.DepreciationYearsApplied <= 0 {
		return Entry{}, false, nil
	}

	salvage := depreciation.EffectiveSalvage(a.TotalCost, a.SalvageValue)
	firstYearEnd := generic.YearEnd(a.AcquisitionDate.Year())
	if !a.AcquisitionDate.Before(firstYearEnd) {
		firstYearEnd = generic.YearEnd(a.AcquisitionDate.Year() + 1)
	}

	entry = Entry{
		AssetID:                     a.ID,
		PreviousYearsApplied:        a.DepreciationYearsApplied,
		NewDepreciationYearsApplied: crossed,
	}

	book, accumulated := a.TotalCost, 0.0
	for k := 1; k <= crossed; k++ {
		r := depreciation.ComputeMethod(method, depreciation.Input{
			TotalCost:       a.TotalCost,
			UsefulLifeYears: a.UsefulLifeYears,
			CurrentYear:     k,
			SalvageValue:    a.SalvageValue,
		})

		charge := r.AnnualDepreciation
		prorated := k == 1
		if prorated {
			charge *= depreciation.FirstYearFraction(a.AcquisitionDate)
		}
		if charge > 0 && book-charge < salvage {
			charge = math.Max(0, book-salvage)
		}
		if math.IsNaN(charge) || math.IsInf(charge, 0) {
			return Entry{}, false, fmt.Errorf("%w in year %d", ErrArithmetic, k)
		}

		accumulated += charge
		book -= charge

		if k > a.DepreciationYearsApplied {
			entry.Years = append(entry.Years, YearCharge{
				Year:             k,
				YearEnd:          firstYearEnd.AddYears(k - 1),
				Annual:           charge,
				AccumulatedAfter: accumulated,
				BookValueAfter:   book,
				Prorated:         prorated,
			})
		}
	}

	entry.YearsToPost = len(entry.Years)
	return entry, true, nil
}
