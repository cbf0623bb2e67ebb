/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built asset registers that populate the database with
	realistic data for testing and demos. Each scenario demonstrates a
	specific behavior of the calculator or the year-end poster.

AVAILABLE SCENARIOS:

	production-line:  One press under each of the four methods
	mid-year:         Prorated first year for a July acquisition
	mixed-register:   Land, exhausted, imported and bulk-quantity assets
	new-purchases:    Assets bought this year (nothing owed until Dec 31)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Parse asset definitions via factory
 3. Save assets (imported assets keep their applied-years counter)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mid-year"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description and an assets func

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
  - factory/asset.go: Asset JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/asset-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	// assets returns the scenario's asset list as JSON.
	assets func(today generic.TimePoint) string
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "production-line",
			Name:        "Production Line",
			Description: "250,000 press, 25,000 salvage, 4-year life, once per method",
		},
		assets: func(generic.TimePoint) string { return productionLineAssets },
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "mid-year",
			Name:        "Mid-Year Acquisition",
			Description: "Forklift bought 2022-07-01; first close prorated 184/365",
		},
		assets: func(generic.TimePoint) string { return midYearAssets },
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "mixed-register",
			Name:        "Mixed Register",
			Description: "Land, a fully depreciated printer, an import with postings already applied, 40 laptops",
		},
		assets: func(generic.TimePoint) string { return mixedRegisterAssets },
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "new-purchases",
			Name:        "New Purchases",
			Description: "Bought this year; the plan stays empty until the December 31st close",
		},
		assets: newPurchaseAssets,
	},
}

const productionLineAssets = `[
	{"id":"press-sl","name":"Press (straight line)","category":"manufacturing","unit_cost":"250000","salvage_value":"25000","useful_life_years":4,"method":"Straight Line","acquisition_date":"2021-01-01"},
	{"id":"press-db","name":"Press (declining balance)","category":"manufacturing","unit_cost":"250000","salvage_value":"25000","useful_life_years":4,"method":"Declining Balance","acquisition_date":"2021-01-01"},
	{"id":"press-ddb","name":"Press (double declining)","category":"manufacturing","unit_cost":"250000","salvage_value":"25000","useful_life_years":4,"method":"Double Declining Balance","acquisition_date":"2021-01-01"},
	{"id":"press-syd","name":"Press (sum of years digits)","category":"manufacturing","unit_cost":"250000","salvage_value":"25000","useful_life_years":4,"method":"Sum of Years Digits","acquisition_date":"2021-01-01"}
]`

const midYearAssets = `[
	{"id":"forklift-1","name":"Forklift","category":"warehouse","unit_cost":"10000","salvage_value":"0","useful_life_years":5,"method":"straight_line","acquisition_date":"2022-07-01"},
	{"id":"van-1","name":"Delivery van","category":"vehicles","unit_cost":"32000","salvage_value":"4000","useful_life_years":6,"method":"declining_balance","acquisition_date":"2023-10-15"}
]`

const mixedRegisterAssets = `[
	{"id":"land-7","name":"Lot 7","category":"land","unit_cost":"500000","salvage_value":"0","useful_life_years":0,"method":"straight_line","acquisition_date":"2015-03-01"},
	{"id":"printer-old","name":"Wide-format printer","category":"office","unit_cost":"8000","salvage_value":"500","useful_life_years":3,"method":"sum_of_years_digits","acquisition_date":"2016-05-20"},
	{"id":"hvac-imported","name":"HVAC (migrated)","category":"building","unit_cost":"120000","salvage_value":"12000","useful_life_years":10,"method":"double_declining","acquisition_date":"2019-01-01","depreciation_years_applied":2},
	{"id":"laptops-2024","name":"Laptops","category":"it","unit_cost":"1450.00","quantity":40,"salvage_value":"2000","useful_life_years":3,"method":"straight-line","acquisition_date":"2024-12-31"}
]`

func newPurchaseAssets(today generic.TimePoint) string {
	year := today.Year()
	return fmt.Sprintf(`[
	{"id":"server-rack","name":"Server rack","category":"it","unit_cost":"48000","salvage_value":"3000","useful_life_years":5,"method":"double_declining","acquisition_date":"%d-01-01"},
	{"id":"furniture","name":"Office furniture","category":"office","unit_cost":"15000","salvage_value":"0","useful_life_years":7,"method":"straight_line","acquisition_date":"%d-01-01"}
]`, year, year)
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	today := h.Today()
	dtos := make([]ScenarioDTO, 0, len(scenarios))
	for _, s := range scenarios {
		dto := s.ScenarioDTO
		if assets, err := h.Factory.ParseAssets(s.assets(today)); err == nil {
			dto.Assets = len(assets)
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s.ScenarioDTO)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	n, err := h.loadAssets(ctx, s.assets(h.Today()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = s.ID
	h.mu.Unlock()

	h.Logger.Info("scenario loaded", "scenario", s.ID, "assets", n)
	writeJSON(w, http.StatusOK, map[string]any{"status": "loaded", "scenario": s.ID, "assets": n})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadAssets(ctx context.Context, jsonStr string) (int, error) {
	assets, err := h.Factory.ParseAssets(jsonStr)
	if err != nil {
		return 0, err
	}
	for _, a := range assets {
		if err := h.Store.SaveAsset(ctx, a); err != nil {
			return 0, fmt.Errorf("asset %s: %w", a.ID, err)
		}
	}
	return len(assets), nil
}
