package accrual

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/warp/asset-engine/generic"
)

// =============================================================================
// POSTER - Turns plan entries into ledger postings
// =============================================================================

// Poster is the only writer of DepreciationYearsApplied. Each entry goes to
// AssetStore.ApplyAccrual as one transaction, so the postings and the
// counter move together or not at all.
type Poster struct {
	Store  generic.AssetStore
	Logger *slog.Logger
	// Workers bounds how many entries are applied concurrently.
	Workers int
	// Now stamps run records; defaults to time.Now.
	Now func() time.Time
}

func NewPoster(store generic.AssetStore, logger *slog.Logger) *Poster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{
		Store:   store,
		Logger:  logger,
		Workers: 4,
		Now:     time.Now,
	}
}

// RunSummary reports what one batch did.
type RunSummary struct {
	PostingDate  generic.TimePoint
	AssetsPosted int
	YearsPosted  int
	// AlreadyPosted counts assets another poster brought current first.
	AlreadyPosted int
	Failures      []AssetError
}

// Postings converts an entry into ledger rows. Zero charges are not
// written; the counter still advances past those years.
func (e Entry) Postings(runID generic.RunID, createdAt time.Time) []generic.Posting {
	postings := make([]generic.Posting, 0, len(e.Years))
	for _, y := range e.Years {
		amount := generic.NewAmount(y.Annual).Rounded()
		if amount.IsZero() {
			continue
		}
		postings = append(postings, generic.Posting{
			ID:               generic.PostingID(uuid.NewString()),
			AssetID:          e.AssetID,
			RunID:            runID,
			FiscalYear:       y.Year,
			YearEnd:          y.YearEnd,
			Amount:           amount,
			AccumulatedAfter: generic.NewAmount(y.AccumulatedAfter).Rounded(),
			BookValueAfter:   generic.NewAmount(y.BookValueAfter).Rounded(),
			IdempotencyKey:   generic.PostingKey(e.AssetID, y.Year),
			CreatedAt:        createdAt,
		})
	}
	return postings
}

// Apply persists one entry.
func (p *Poster) Apply(ctx context.Context, entry Entry, runID generic.RunID) error {
	postings := entry.Postings(runID, p.Now().UTC())
	return p.Store.ApplyAccrual(ctx, entry.AssetID,
		entry.PreviousYearsApplied, entry.NewDepreciationYearsApplied, postings)
}

// Run plans the given assets and applies every entry. Failures of single
// assets are collected, never returned as the batch error; only a
// cancelled context aborts.
func (p *Poster) Run(ctx context.Context, assets []Asset, postingDate generic.TimePoint, runID generic.RunID) (RunSummary, error) {
	plan := PlanYearEnd(assets, postingDate)
	summary := RunSummary{
		PostingDate: postingDate,
		Failures:    plan.Failures,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Workers, 1))

	for _, entry := range plan.Entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			posted, err := p.applyOrReplan(gctx, entry, postingDate, runID)

			mu.Lock()
			defer mu.Unlock()
			if err == nil && posted.YearsToPost == 0 {
				summary.AlreadyPosted++
				return nil
			}
			if err != nil {
				p.Logger.Warn("apply accrual",
					slog.String("asset_id", string(entry.AssetID)),
					slog.Int("years", entry.YearsToPost),
					slog.Any("error", err))
				summary.Failures = append(summary.Failures, AssetError{AssetID: entry.AssetID, Err: err})
				return nil
			}
			summary.AssetsPosted++
			summary.YearsPosted += posted.YearsToPost
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// applyOrReplan applies entry. If another poster advanced the asset first,
// the asset is reloaded and planned once more against what is now stored;
// the returned entry has no years when nothing is left to post.
func (p *Poster) applyOrReplan(ctx context.Context, entry Entry, postingDate generic.TimePoint, runID generic.RunID) (Entry, error) {
	err := p.Apply(ctx, entry, runID)
	if err == nil || !generic.IsRetryable(err) {
		return entry, err
	}

	record, err := p.Store.GetAsset(ctx, entry.AssetID)
	if err != nil {
		return entry, err
	}
	replanned, ok, err := PlanAsset(FromRecord(record), postingDate)
	if err != nil {
		return entry, err
	}
	if !ok {
		p.Logger.Info("already posted",
			slog.String("asset_id", string(entry.AssetID)),
			slog.Int("years_applied", record.DepreciationYearsApplied))
		return Entry{AssetID: entry.AssetID}, nil
	}
	return replanned, p.Apply(ctx, replanned, runID)
}

// PostYearEnd loads every asset, posts what is owed as of postingDate and
// records the batch as an AccrualRun. When no asset is owed anything, no
// run is recorded, the returned run is nil and the summary still carries
// any per-asset failures.
func (p *Poster) PostYearEnd(ctx context.Context, postingDate generic.TimePoint, trigger string) (*generic.AccrualRun, RunSummary, error) {
	records, err := p.Store.ListAssets(ctx)
	if err != nil {
		return nil, RunSummary{}, err
	}

	assets := make([]Asset, len(records))
	for i, r := range records {
		assets[i] = FromRecord(r)
	}

	if preview := PlanYearEnd(assets, postingDate); len(preview.Entries) == 0 {
		return nil, RunSummary{PostingDate: postingDate, Failures: preview.Failures}, nil
	}

	started := p.Now().UTC()
	run := generic.AccrualRun{
		ID:          generic.RunID(uuid.NewString()),
		PostingDate: postingDate,
		Status:      generic.RunRunning,
		Trigger:     trigger,
		StartedAt:   &started,
		CreatedAt:   started,
	}
	if err := p.Store.SaveRun(ctx, run); err != nil {
		return nil, RunSummary{}, err
	}

	summary, runErr := p.Run(ctx, assets, postingDate, run.ID)

	completed := p.Now().UTC()
	run.CompletedAt = &completed
	run.AssetsPosted = summary.AssetsPosted
	run.YearsPosted = summary.YearsPosted
	run.Failures = len(summary.Failures)
	run.Status = generic.RunCompleted
	if runErr != nil {
		run.Status = generic.RunFailed
		run.Error = runErr.Error()
	} else if len(summary.Failures) > 0 {
		run.Error = errors.Join(failureErrors(summary.Failures)...).Error()
	}

	// Recorded even when ctx was cancelled mid-batch.
	if err := p.Store.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		return &run, summary, err
	}

	p.Logger.Info("year-end posting",
		slog.String("run_id", string(run.ID)),
		slog.String("posting_date", postingDate.String()),
		slog.Int("assets", summary.AssetsPosted),
		slog.Int("years", summary.YearsPosted),
		slog.Int("already_posted", summary.AlreadyPosted),
		slog.Int("failures", run.Failures))

	return &run, summary, runErr
}

func failureErrors(failures []AssetError) []error {
	errs := make([]error, len(failures))
	for i := range failures {
		errs[i] = &failures[i]
	}
	return errs
}
