package depreciation

// YearResult is one row of a full-life schedule.
type YearResult struct {
	Year             int
	Annual           float64
	Accumulated      float64
	OpeningBookValue float64
	ClosingBookValue float64
}

// Schedule returns rows for years 1..N+1; the last row is the exhausted
// state (no charge, book at salvage). Degenerate inputs (life or cost not
// positive) yield the single no-op row.
func Schedule(in Input) ([]YearResult, error) {
	method, err := ParseMethod(in.Method)
	if err != nil {
		return nil, err
	}

	last := in.UsefulLifeYears + 1
	if in.UsefulLifeYears <= 0 || in.TotalCost <= 0 {
		last = 1
	}

	rows := make([]YearResult, 0, last)
	for year := 1; year <= last; year++ {
		q := in
		q.CurrentYear = year
		r := ComputeMethod(method, q)
		rows = append(rows, YearResult{
			Year:             year,
			Annual:           r.AnnualDepreciation,
			Accumulated:      r.AccumulatedDepreciation,
			OpeningBookValue: r.OpeningBookValue,
			ClosingBookValue: r.OpeningBookValue - r.AnnualDepreciation,
		})
	}
	return rows, nil
}
