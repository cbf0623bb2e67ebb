/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Calculator:
    MethodDTO, ComputeRequest, DepreciationResultDTO, ScheduleRequest, YearResultDTO

  Assets:
    AssetDTO (wraps factory.AssetJSON), PostingDTO, ExpiryDTO

  Accruals:
    PlanRequest, PlanDTO, EntryDTO, YearChargeDTO, FailureDTO,
    PostResponse, RunDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

AMOUNTS:
  Calculator responses carry raw float64 results. Anything read from the
  ledger is a decimal string rounded to the minor unit.

VALIDATION:
  Request types carry validator/v10 struct tags, checked in handlers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/asset.go: AssetJSON type
*/
package api

import (
	"time"

	"github.com/warp/asset-engine/accrual"
	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/factory"
	"github.com/warp/asset-engine/generic"
)

// =============================================================================
// CALCULATOR
// =============================================================================

// MethodDTO describes a supported depreciation method.
type MethodDTO struct {
	Tag   string `json:"tag"`
	Label string `json:"label"`
}

// ComputeRequest asks for one year of one asset's depreciation. A current
// year past the useful life returns the exhausted state without looping.
type ComputeRequest struct {
	Method          string  `json:"method" validate:"required"`
	TotalCost       float64 `json:"total_cost"`
	UsefulLifeYears int     `json:"useful_life_years" validate:"lte=200"`
	CurrentYear     int     `json:"current_year"`
	SalvageValue    float64 `json:"salvage_value"`
}

// DepreciationResultDTO is the calculator's answer for one year.
type DepreciationResultDTO struct {
	Method                  string  `json:"method"`
	Year                    int     `json:"year"`
	AnnualDepreciation      float64 `json:"annual_depreciation"`
	AccumulatedDepreciation float64 `json:"accumulated_depreciation"`
	OpeningBookValue        float64 `json:"opening_book_value"`
}

// ScheduleRequest asks for an asset's full-life schedule.
type ScheduleRequest struct {
	Method          string  `json:"method" validate:"required"`
	TotalCost       float64 `json:"total_cost"`
	UsefulLifeYears int     `json:"useful_life_years" validate:"lte=200"`
	SalvageValue    float64 `json:"salvage_value"`
}

// YearResultDTO is one row of a schedule.
type YearResultDTO struct {
	Year             int     `json:"year"`
	Annual           float64 `json:"annual"`
	Accumulated      float64 `json:"accumulated"`
	OpeningBookValue float64 `json:"opening_book_value"`
	ClosingBookValue float64 `json:"closing_book_value"`
}

// =============================================================================
// ASSETS
// =============================================================================

// AssetDTO represents an asset in API responses.
type AssetDTO struct {
	factory.AssetJSON
	MethodLabel             string `json:"method_label"`
	TotalCost               string `json:"total_cost"`
	AccumulatedDepreciation string `json:"accumulated_depreciation"`
	BookValue               string `json:"book_value"`
	CreatedAt               string `json:"created_at,omitempty"`
}

// PostingDTO represents one ledger row.
type PostingDTO struct {
	ID               string `json:"id"`
	RunID            string `json:"run_id,omitempty"`
	FiscalYear       int    `json:"fiscal_year"`
	YearEnd          string `json:"year_end"`
	Amount           string `json:"amount"`
	AccumulatedAfter string `json:"accumulated_after"`
	BookValueAfter   string `json:"book_value_after"`
	IdempotencyKey   string `json:"idempotency_key"`
	CreatedAt        string `json:"created_at"`
}

// ExpiryDTO reports how much life an asset has left.
type ExpiryDTO struct {
	AssetID            string  `json:"asset_id"`
	AsOf               string  `json:"as_of"`
	UsefulLifeYears    int     `json:"useful_life_years"`
	YearEndsCrossed    int     `json:"year_ends_crossed"`
	RemainingLifeYears int     `json:"remaining_life_years"`
	ExpiryDate         string  `json:"expiry_date"`
	FirstYearFraction  float64 `json:"first_year_fraction"`
}

// =============================================================================
// ACCRUALS
// =============================================================================

// PlanRequest selects the posting date; empty means today.
type PlanRequest struct {
	PostingDate string `json:"posting_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// YearChargeDTO is one year within a plan entry.
type YearChargeDTO struct {
	Year             int     `json:"year"`
	YearEnd          string  `json:"year_end"`
	Annual           float64 `json:"annual"`
	AccumulatedAfter float64 `json:"accumulated_after"`
	BookValueAfter   float64 `json:"book_value_after"`
	Prorated         bool    `json:"prorated,omitempty"`
}

// EntryDTO is everything owed by one asset.
type EntryDTO struct {
	AssetID                     string          `json:"asset_id"`
	YearsToPost                 int             `json:"years_to_post"`
	PreviousYearsApplied        int             `json:"previous_years_applied"`
	NewDepreciationYearsApplied int             `json:"new_depreciation_years_applied"`
	Total                       float64         `json:"total"`
	Years                       []YearChargeDTO `json:"years"`
}

// FailureDTO is a per-asset failure.
type FailureDTO struct {
	AssetID string `json:"asset_id"`
	Error   string `json:"error"`
}

// PlanDTO is a year-end preview.
type PlanDTO struct {
	PostingDate string       `json:"posting_date"`
	Entries     []EntryDTO   `json:"entries"`
	Failures    []FailureDTO `json:"failures"`
}

// RunDTO represents an accrual run record.
type RunDTO struct {
	ID           string `json:"id"`
	PostingDate  string `json:"posting_date"`
	Status       string `json:"status"`
	Trigger      string `json:"trigger,omitempty"`
	AssetsPosted int    `json:"assets_posted"`
	YearsPosted  int    `json:"years_posted"`
	Failures     int    `json:"failures"`
	Error        string `json:"error,omitempty"`
	StartedAt    string `json:"started_at,omitempty"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

// PostResponse is the result of a manual year-end posting. Run is nil
// when nothing was owed.
type PostResponse struct {
	Run           *RunDTO      `json:"run"`
	PostingDate   string       `json:"posting_date"`
	AssetsPosted  int          `json:"assets_posted"`
	YearsPosted   int          `json:"years_posted"`
	AlreadyPosted int          `json:"already_posted"`
	Failures      []FailureDTO `json:"failures"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo asset set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Assets      int    `json:"assets"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toYearResultDTOs(rows []depreciation.YearResult) []YearResultDTO {
	dtos := make([]YearResultDTO, len(rows))
	for i, r := range rows {
		dtos[i] = YearResultDTO{
			Year:             r.Year,
			Annual:           r.Annual,
			Accumulated:      r.Accumulated,
			OpeningBookValue: r.OpeningBookValue,
			ClosingBookValue: r.ClosingBookValue,
		}
	}
	return dtos
}

func toAssetDTO(f *factory.AssetFactory, a generic.Asset, pos generic.LedgerPosition) AssetDTO {
	dto := AssetDTO{
		AssetJSON:               f.ToJSON(a),
		MethodLabel:             depreciation.Method(a.Method).Label(),
		TotalCost:               pos.Cost.String(),
		AccumulatedDepreciation: pos.Accumulated.String(),
		BookValue:               pos.BookValue.String(),
	}
	if !a.CreatedAt.IsZero() {
		dto.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toPostingDTO(p generic.Posting) PostingDTO {
	return PostingDTO{
		ID:               string(p.ID),
		RunID:            string(p.RunID),
		FiscalYear:       p.FiscalYear,
		YearEnd:          p.YearEnd.String(),
		Amount:           p.Amount.String(),
		AccumulatedAfter: p.AccumulatedAfter.String(),
		BookValueAfter:   p.BookValueAfter.String(),
		IdempotencyKey:   p.IdempotencyKey,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
}

func toFailureDTOs(failures []accrual.AssetError) []FailureDTO {
	dtos := make([]FailureDTO, len(failures))
	for i, f := range failures {
		dtos[i] = FailureDTO{AssetID: string(f.AssetID), Error: f.Err.Error()}
	}
	return dtos
}

func toPlanDTO(plan accrual.Plan) PlanDTO {
	dto := PlanDTO{
		PostingDate: plan.PostingDate.String(),
		Entries:     make([]EntryDTO, len(plan.Entries)),
		Failures:    toFailureDTOs(plan.Failures),
	}
	for i, e := range plan.Entries {
		years := make([]YearChargeDTO, len(e.Years))
		for j, y := range e.Years {
			years[j] = YearChargeDTO{
				Year:             y.Year,
				YearEnd:          y.YearEnd.String(),
				Annual:           y.Annual,
				AccumulatedAfter: y.AccumulatedAfter,
				BookValueAfter:   y.BookValueAfter,
				Prorated:         y.Prorated,
			}
		}
		dto.Entries[i] = EntryDTO{
			AssetID:                     string(e.AssetID),
			YearsToPost:                 e.YearsToPost,
			PreviousYearsApplied:        e.PreviousYearsApplied,
			NewDepreciationYearsApplied: e.NewDepreciationYearsApplied,
			Total:                       e.Total(),
			Years:                       years,
		}
	}
	return dto
}

func toRunDTO(run generic.AccrualRun) RunDTO {
	dto := RunDTO{
		ID:           string(run.ID),
		PostingDate:  run.PostingDate.String(),
		Status:       string(run.Status),
		Trigger:      run.Trigger,
		AssetsPosted: run.AssetsPosted,
		YearsPosted:  run.YearsPosted,
		Failures:     run.Failures,
		Error:        run.Error,
	}
	if run.StartedAt != nil {
		dto.StartedAt = run.StartedAt.Format(time.RFC3339)
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}
