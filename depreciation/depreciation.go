/*
Package depreciation computes annual depreciation for fixed assets.

PURPOSE:
  Given cost, useful life, salvage value and method, returns for any year Y
  of the asset's life the charge for year Y, the depreciation accumulated
  over years 1..Y-1, and the book value at the start of year Y.

METHODS:
  Straight Line:            (cost - salvage) / N every year
  Declining Balance:        fixed rate 1 - (salvage/cost)^(1/N) on book value
  Double Declining Balance: fixed rate 2/N on book value, salvage floor every year
  Sum of Years Digits:      (cost - salvage) × (N - k + 1) / (N(N+1)/2)

DISPATCH ORDER:
  1. Resolve the method label (the only failure: ErrUnsupportedMethod)
  2. life <= 0 or cost <= 0       → (0, 0, cost)             no-op, e.g. land
  3. year > life                  → (0, cost - salvage, salvage)  exhausted
  4. method calculator

NUMERICS:
  All arithmetic is float64 and nothing is rounded here. Rounding to the
  currency's minor unit happens when postings are written (generic.Amount).

CONCURRENCY:
  Every function in this package is pure. No locks, no caches.

SEE ALSO:
  - calendar.go: year-end boundaries, remaining life, expiry, proration
  - accrual/planner.go: drives Compute once per pending year-end
*/
package depreciation

import "math"

// Input describes one depreciation query.
type Input struct {
	// Method is a canonical tag or a human label.
	Method          string
	TotalCost       float64
	UsefulLifeYears int
	// CurrentYear is 1-based: 1 means nothing has been posted yet.
	CurrentYear  int
	SalvageValue float64
}

// Result is the depreciation state for Input.CurrentYear.
type Result struct {
	AnnualDepreciation      float64
	AccumulatedDepreciation float64
	OpeningBookValue        float64
}

type calculator func(cost, salvage float64, life, year int) Result

var calculators = map[Method]calculator{
	StraightLine:     straightLine,
	DecliningBalance: decliningBalance,
	DoubleDeclining:  doubleDeclining,
	SumOfYearsDigits: sumOfYearsDigits,
}

// ComputeDepreciation is the primitive-argument form of Compute.
func ComputeDepreciation(method string, totalCost float64, usefulLifeYears, currentYear int, salvageValue float64) (annual, accumulated, openingBookValue float64, err error) {
	r, err := Compute(Input{
		Method:          method,
		TotalCost:       totalCost,
		UsefulLifeYears: usefulLifeYears,
		CurrentYear:     currentYear,
		SalvageValue:    salvageValue,
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return r.AnnualDepreciation, r.AccumulatedDepreciation, r.OpeningBookValue, nil
}

// Compute resolves the method and returns the year's depreciation.
func Compute(in Input) (Result, error) {
	method, err := ParseMethod(in.Method)
	if err != nil {
		return Result{}, err
	}
	return ComputeMethod(method, in), nil
}

// ComputeMethod is Compute for an already-resolved method. in.Method is ignored.
func ComputeMethod(method Method, in Input) Result {
	cost, life := in.TotalCost, in.UsefulLifeYears
	if life <= 0 || cost <= 0 {
		return Result{OpeningBookValue: cost}
	}

	salvage := EffectiveSalvage(cost, in.SalvageValue)
	year := in.CurrentYear
	if year < 1 {
		year = 1
	}
	if year > life {
		return Result{
			AccumulatedDepreciation: cost - salvage,
			OpeningBookValue:        salvage,
		}
	}

	calc, ok := calculators[method]
	if !ok {
		// ParseMethod only yields tags present in calculators.
		panic("depreciation: no calculator for " + string(method))
	}
	return calc(cost, salvage, life, year)
}

// EffectiveSalvage clamps salvage into [0, cost]: a negative salvage is
// read as none, a salvage above cost leaves nothing to depreciate.
func EffectiveSalvage(cost, salvage float64) float64 {
	return math.Min(math.Max(salvage, 0), math.Max(cost, 0))
}
