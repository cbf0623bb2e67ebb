package depreciation

import "math"

// impliedSalvageFloor stands in for salvage in the declining-balance rate
// when the asset has none; (0/cost)^(1/N) would make the rate 100% and
// write the whole cost off in year one. Kept for numeric parity with the
// ledgers this engine replaces.
const impliedSalvageFloor = 0.1

// All calculators assume validated input: cost > 0, 0 <= salvage <= cost,
// 1 <= year <= life.

func straightLine(cost, salvage float64, life, year int) Result {
	annual := (cost - salvage) / float64(life)
	accumulated := annual * float64(year-1)
	return Result{
		AnnualDepreciation:      annual,
		AccumulatedDepreciation: accumulated,
		OpeningBookValue:        cost - accumulated,
	}
}

// decliningBalance applies the salvage clamp to year Y only. Prior years
// run unclamped; the rate is derived from salvage so book value stays
// above it for every year up to N.
func decliningBalance(cost, salvage float64, life, year int) Result {
	rate := DecliningRate(cost, salvage, life)

	book, accumulated := cost, 0.0
	for k := 1; k < year; k++ {
		charge := book * rate
		book -= charge
		accumulated += charge
	}

	return Result{
		AnnualDepreciation:      clampedCharge(book, rate, salvage),
		AccumulatedDepreciation: accumulated,
		OpeningBookValue:        book,
	}
}

// doubleDeclining clamps every simulated year, so book value can reach
// salvage before year N and stay there.
func doubleDeclining(cost, salvage float64, life, year int) Result {
	rate := 2 / float64(life)

	book, accumulated := cost, 0.0
	for k := 1; k < year; k++ {
		charge := clampedCharge(book, rate, salvage)
		book -= charge
		accumulated += charge
	}

	return Result{
		AnnualDepreciation:      clampedCharge(book, rate, salvage),
		AccumulatedDepreciation: accumulated,
		OpeningBookValue:        book,
	}
}

func sumOfYearsDigits(cost, salvage float64, life, year int) Result {
	n := float64(life)
	digits := n * (n + 1) / 2
	depreciable := cost - salvage

	charge := func(k int) float64 {
		return depreciable * float64(life-k+1) / digits
	}

	accumulated := 0.0
	for k := 1; k < year; k++ {
		accumulated += charge(k)
	}

	return Result{
		AnnualDepreciation:      charge(year),
		AccumulatedDepreciation: accumulated,
		OpeningBookValue:        cost - accumulated,
	}
}

// DecliningRate is the single-declining rate 1 - (salvage/cost)^(1/N),
// using impliedSalvageFloor when salvage is zero. It is kept within [0, 1]
// so a cost below the floor never produces negative charges.
func DecliningRate(cost, salvage float64, life int) float64 {
	floor := salvage
	if floor <= 0 {
		floor = impliedSalvageFloor
	}
	rate := 1 - math.Pow(floor/cost, 1/float64(life))
	return math.Min(math.Max(rate, 0), 1)
}

// clampedCharge is book × rate, cut back so book never drops below salvage.
func clampedCharge(book, rate, salvage float64) float64 {
	charge := book * rate
	if book-charge < salvage {
		charge = math.Max(0, book-salvage)
	}
	return charge
}
