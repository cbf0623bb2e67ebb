/*
handlers.go - HTTP API handlers for the asset depreciation engine

PURPOSE:
  Exposes the depreciation calculator, the asset register and the
  year-end accrual poster via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Calculator:
    GET    /api/methods                      List supported methods
    POST   /api/depreciation/compute         One year of one asset
    POST   /api/depreciation/schedule        Full-life schedule

  Assets:
    GET    /api/assets                       List assets with book values
    POST   /api/assets                       Create or update from JSON
    GET    /api/assets/{id}                  Asset details
    GET    /api/assets/{id}/postings         Ledger history
    GET    /api/assets/{id}/expiry           Remaining life (?as_of=)

  Accruals:
    POST   /api/accruals/plan                Preview year-end posting
    POST   /api/accruals/post                Apply year-end posting
    GET    /api/accruals/runs                Run history (?status=)

  Scenarios:
    GET    /api/scenarios                    List demo scenarios
    POST   /api/scenarios/load               Load a demo scenario
    POST   /api/scenarios/reset              Clear all data

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Persistence (generic.AssetStore)
  - Poster: Year-end planner + transactional writer
  - Factory: JSON to Asset conversion

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, unsupported method
  - 404: Asset not found
  - 409: Duplicate posting, stale counter
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warp/asset-engine/accrual"
	"github.com/warp/asset-engine/depreciation"
	"github.com/warp/asset-engine/factory"
	"github.com/warp/asset-engine/generic"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter is implemented by stores that can be wiped (demo/dev).
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   generic.AssetStore
	Poster  *accrual.Poster
	Factory *factory.AssetFactory
	Ledger  *generic.Ledger
	Logger  *slog.Logger
	// Today is the default as-of and posting date.
	Today func() generic.TimePoint

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store generic.AssetStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:    store,
		Poster:   accrual.NewPoster(store, logger),
		Factory:  factory.NewAssetFactory(),
		Ledger:   generic.NewLedger(store),
		Logger:   logger,
		Today:    generic.Today,
		validate: validator.New(),
	}
}

// =============================================================================
// CALCULATOR HANDLERS
// =============================================================================

// ListMethods returns the supported depreciation methods.
func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	methods := depreciation.Methods()
	dtos := make([]MethodDTO, len(methods))
	for i, m := range methods {
		dtos[i] = MethodDTO{Tag: string(m), Label: m.Label()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ComputeDepreciation returns one year of depreciation.
// POST /api/depreciation/compute
func (h *Handler) ComputeDepreciation(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if !h.decode(w, r, &req) {
		return
	}

	method, err := depreciation.ParseMethod(req.Method)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported depreciation method", err)
		return
	}

	result := depreciation.ComputeMethod(method, depreciation.Input{
		TotalCost:       req.TotalCost,
		UsefulLifeYears: req.UsefulLifeYears,
		CurrentYear:     req.CurrentYear,
		SalvageValue:    req.SalvageValue,
	})

	writeJSON(w, http.StatusOK, DepreciationResultDTO{
		Method:                  string(method),
		Year:                    req.CurrentYear,
		AnnualDepreciation:      result.AnnualDepreciation,
		AccumulatedDepreciation: result.AccumulatedDepreciation,
		OpeningBookValue:        result.OpeningBookValue,
	})
}

// GetSchedule returns the full-life schedule.
// POST /api/depreciation/schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}

	rows, err := depreciation.Schedule(depreciation.Input{
		Method:          req.Method,
		TotalCost:       req.TotalCost,
		UsefulLifeYears: req.UsefulLifeYears,
		SalvageValue:    req.SalvageValue,
	})
	if err != nil {
		writeError(w, errorStatus(err), "Failed to build schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, toYearResultDTOs(rows))
}

// =============================================================================
// ASSET HANDLERS
// =============================================================================

// ListAssets returns all assets with their ledger position as of today.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assets, err := h.Store.ListAssets(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assets", err)
		return
	}

	today := h.Today()
	dtos := make([]AssetDTO, 0, len(assets))
	for _, a := range assets {
		pos, err := h.Ledger.PositionAt(ctx, a, today)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load postings", err)
			return
		}
		dtos = append(dtos, toAssetDTO(h.Factory, a, pos))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateAsset creates or updates an asset from its JSON definition.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	asset, err := h.Factory.ParseAsset(string(body))
	if err != nil {
		writeError(w, errorStatus(err), "Invalid asset", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveAsset(ctx, asset); err != nil {
		writeError(w, errorStatus(err), "Failed to save asset", err)
		return
	}

	saved, err := h.Store.GetAsset(ctx, asset.ID)
	if err != nil {
		writeError(w, errorStatus(err), "Failed to reload asset", err)
		return
	}
	pos, err := h.Ledger.PositionAt(ctx, saved, h.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load postings", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAssetDTO(h.Factory, saved, pos))
}

// GetAsset returns a single asset.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asset, ok := h.loadAsset(w, r)
	if !ok {
		return
	}

	pos, err := h.Ledger.PositionAt(ctx, asset, h.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load postings", err)
		return
	}

	writeJSON(w, http.StatusOK, toAssetDTO(h.Factory, asset, pos))
}

// GetPostings returns an asset's ledger rows, oldest first.
func (h *Handler) GetPostings(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.loadAsset(w, r)
	if !ok {
		return
	}

	postings, err := h.Store.Postings(r.Context(), asset.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load postings", err)
		return
	}

	dtos := make([]PostingDTO, len(postings))
	for i, p := range postings {
		dtos[i] = toPostingDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetExpiry reports remaining life and expiry date.
// GET /api/assets/{id}/expiry?as_of=YYYY-MM-DD
func (h *Handler) GetExpiry(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.loadAsset(w, r)
	if !ok {
		return
	}

	asOf := h.Today()
	if s := r.URL.Query().Get("as_of"); s != "" {
		t, err := generic.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
		asOf = t
	}

	life := asset.UsefulLifeYears
	writeJSON(w, http.StatusOK, ExpiryDTO{
		AssetID:            string(asset.ID),
		AsOf:               asOf.String(),
		UsefulLifeYears:    life,
		YearEndsCrossed:    depreciation.YearEndsCrossed(asset.AcquisitionDate, asOf),
		RemainingLifeYears: depreciation.RemainingLife(life, asset.AcquisitionDate, asOf),
		ExpiryDate:         depreciation.ExpiryDate(life, asset.AcquisitionDate, asOf).String(),
		FirstYearFraction:  depreciation.FirstYearFraction(asset.AcquisitionDate),
	})
}

func (h *Handler) loadAsset(w http.ResponseWriter, r *http.Request) (generic.Asset, bool) {
	id := generic.AssetID(chi.URLParam(r, "id"))

	asset, err := h.Store.GetAsset(r.Context(), id)
	if err != nil {
		if generic.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Asset not found", nil)
			return generic.Asset{}, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get asset", err)
		return generic.Asset{}, false
	}
	return asset, true
}

// =============================================================================
// ACCRUAL HANDLERS
// =============================================================================

// PlanAccruals previews the year-end posting without writing.
// POST /api/accruals/plan
func (h *Handler) PlanAccruals(w http.ResponseWriter, r *http.Request) {
	postingDate, ok := h.postingDate(w, r)
	if !ok {
		return
	}

	records, err := h.Store.ListAssets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assets", err)
		return
	}
	assets := make([]accrual.Asset, len(records))
	for i, rec := range records {
		assets[i] = accrual.FromRecord(rec)
	}

	writeJSON(w, http.StatusOK, toPlanDTO(accrual.PlanYearEnd(assets, postingDate)))
}

// PostAccruals applies the year-end posting.
// POST /api/accruals/post
func (h *Handler) PostAccruals(w http.ResponseWriter, r *http.Request) {
	postingDate, ok := h.postingDate(w, r)
	if !ok {
		return
	}

	run, summary, err := h.Poster.PostYearEnd(r.Context(), postingDate, "manual")
	if err != nil {
		writeError(w, errorStatus(err), "Year-end posting failed", err)
		return
	}

	resp := PostResponse{
		PostingDate:   postingDate.String(),
		AssetsPosted:  summary.AssetsPosted,
		YearsPosted:   summary.YearsPosted,
		AlreadyPosted: summary.AlreadyPosted,
		Failures:      toFailureDTOs(summary.Failures),
	}
	if run != nil {
		dto := toRunDTO(*run)
		resp.Run = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRuns returns accrual run history.
// GET /api/accruals/runs?status=completed
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	status := generic.RunStatus(r.URL.Query().Get("status"))

	runs, err := h.Store.ListRuns(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get accrual runs", err)
		return
	}

	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// postingDate reads an optional PlanRequest body; no body means today.
func (h *Handler) postingDate(w http.ResponseWriter, r *http.Request) (generic.TimePoint, bool) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return generic.TimePoint{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid posting_date format (use YYYY-MM-DD)", err)
		return generic.TimePoint{}, false
	}
	if req.PostingDate == "" {
		return h.Today(), true
	}
	t, err := generic.ParseDate(req.PostingDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid posting_date format (use YYYY-MM-DD)", err)
		return generic.TimePoint{}, false
	}
	return t, true
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) reset(ctx context.Context) error {
	rs, ok := h.Store.(Resetter)
	if !ok {
		return errors.New("store does not support reset")
	}
	if err := rs.Reset(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, depreciation.ErrUnsupportedMethod):
		return http.StatusBadRequest
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey), generic.IsRetryable(err):
		return http.StatusConflict
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
