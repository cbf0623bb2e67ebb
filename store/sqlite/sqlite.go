/*
Package sqlite provides a SQLite-backed implementation of generic.AssetStore.

PURPOSE:
  Persists assets, their depreciation postings and accrual run records.
  The same schema runs on PostgreSQL with minor dialect changes.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on the postings table (Reset aside)
  - One row per (asset, life year), enforced by two unique constraints
  - The only UPDATE of depreciation_years_applied is the guarded one
    in ApplyAccrual

KEY TABLES:
  assets:        Asset records and the applied-years counter
  postings:      Immutable ledger of year-end depreciation charges
  accrual_runs:  Audit trail of batch postings

ATOMICITY:
  ApplyAccrual runs in one sql.Tx:
    UPDATE assets SET depreciation_years_applied = new
     WHERE id = ? AND depreciation_years_applied = expected
    INSERT postings ...
  Zero rows updated means another writer got there first; the transaction
  rolls back and the caller gets a StaleAccrualError.

AMOUNTS:
  Money columns are TEXT holding decimal strings, never REAL.

CONCURRENCY:
  Uses sync.RWMutex plus a single open connection, which also keeps a
  ":memory:" database shared across calls.

USAGE:
  store, err := sqlite.New("./data/assets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definition
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/asset-engine/generic"
)

// Store implements generic.AssetStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.AssetStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection (used by the health endpoint).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Assets
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		unit_cost TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		salvage_value TEXT NOT NULL,
		useful_life_years INTEGER NOT NULL,
		method TEXT NOT NULL,
		acquisition_date TEXT NOT NULL,
		depreciation_years_applied INTEGER NOT NULL DEFAULT 0
			CHECK (depreciation_years_applied >= 0),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_category
		ON assets(category);

	-- Postings (append-only ledger)
	CREATE TABLE IF NOT EXISTS postings (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		run_id TEXT,
		fiscal_year INTEGER NOT NULL,
		year_end TEXT NOT NULL,
		amount TEXT NOT NULL,
		accumulated_after TEXT NOT NULL,
		book_value_after TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL,
		UNIQUE(asset_id, fiscal_year)
	);

	CREATE INDEX IF NOT EXISTS idx_postings_asset_year
		ON postings(asset_id, fiscal_year);
	CREATE INDEX IF NOT EXISTS idx_postings_run
		ON postings(run_id) WHERE run_id IS NOT NULL;

	-- Accrual Runs
	CREATE TABLE IF NOT EXISTS accrual_runs (
		id TEXT PRIMARY KEY,
		posting_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		assets_posted INTEGER NOT NULL DEFAULT 0,
		years_posted INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		trigger_source TEXT,
		started_at TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accrual_runs_status
		ON accrual_runs(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ASSETS
// =============================================================================

// SaveAsset inserts or updates an asset. An update never touches
// depreciation_years_applied or created_at.
func (s *Store) SaveAsset(ctx context.Context, a generic.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	query := `
		INSERT INTO assets (id, name, category, unit_cost, quantity, salvage_value,
			useful_life_years, method, acquisition_date, depreciation_years_applied,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			unit_cost = excluded.unit_cost,
			quantity = excluded.quantity,
			salvage_value = excluded.salvage_value,
			useful_life_years = excluded.useful_life_years,
			method = excluded.method,
			acquisition_date = excluded.acquisition_date,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Name, nullString(a.Category),
		a.UnitCost.Value.String(), a.Quantity, a.SalvageValue.Value.String(),
		a.UsefulLifeYears, a.Method, a.AcquisitionDate.String(),
		a.DepreciationYearsApplied,
		createdAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

// GetAsset retrieves an asset by ID.
func (s *Store) GetAsset(ctx context.Context, id generic.AssetID) (generic.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, assetColumns+" WHERE id = ?", id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.Asset{}, generic.ErrAssetNotFound
	}
	return a, err
}

// ListAssets returns all assets ordered by ID.
func (s *Store) ListAssets(ctx context.Context) ([]generic.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, assetColumns+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []generic.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

const assetColumns = `
	SELECT id, name, category, unit_cost, quantity, salvage_value,
		useful_life_years, method, acquisition_date, depreciation_years_applied, created_at
	FROM assets`

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (generic.Asset, error) {
	var a generic.Asset
	var category sql.NullString
	var unitCost, salvage, acquired, createdAt string

	if err := row.Scan(
		&a.ID, &a.Name, &category, &unitCost, &a.Quantity, &salvage,
		&a.UsefulLifeYears, &a.Method, &acquired, &a.DepreciationYearsApplied, &createdAt,
	); err != nil {
		return generic.Asset{}, err
	}

	a.Category = category.String
	a.UnitCost = parseAmount(unitCost)
	a.SalvageValue = parseAmount(salvage)
	date, err := generic.ParseDate(acquired)
	if err != nil {
		return generic.Asset{}, fmt.Errorf("asset %s: %w", a.ID,
			&generic.InvalidAssetError{Field: "acquisition_date", Reason: fmt.Sprintf("is not a date (%q)", acquired)})
	}
	a.AcquisitionDate = date
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return a, nil
}

// =============================================================================
// POSTINGS
// =============================================================================

// ApplyAccrual appends postings and moves the counter in one transaction.
func (s *Store) ApplyAccrual(ctx context.Context, assetID generic.AssetID, expectedApplied, newApplied int, postings []generic.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, `
		UPDATE assets SET depreciation_years_applied = ?, updated_at = ?
		WHERE id = ? AND depreciation_years_applied = ?
	`, newApplied, time.Now().UTC().Format(time.RFC3339Nano), assetID, expectedApplied)
	if err != nil {
		return fmt.Errorf("failed to advance counter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var actual int
		err := sqlTx.QueryRowContext(ctx,
			"SELECT depreciation_years_applied FROM assets WHERE id = ?", assetID).Scan(&actual)
		if errors.Is(err, sql.ErrNoRows) {
			return generic.ErrAssetNotFound
		}
		if err != nil {
			return err
		}
		return &generic.StaleAccrualError{AssetID: assetID, Expected: expectedApplied, Actual: actual}
	}

	for _, p := range postings {
		if err := insertPosting(ctx, sqlTx, p); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

func insertPosting(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, p generic.Posting) error {
	query := `
		INSERT INTO postings
		(id, asset_id, run_id, fiscal_year, year_end, amount, accumulated_after,
		 book_value_after, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, query,
		p.ID,
		p.AssetID,
		nullString(string(p.RunID)),
		p.FiscalYear,
		p.YearEnd.String(),
		p.Amount.Value.String(),
		p.AccumulatedAfter.Value.String(),
		p.BookValueAfter.Value.String(),
		nullString(p.IdempotencyKey),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("%w: %s: %v", generic.ErrPostingFailed, p.IdempotencyKey, err)
	}
	return nil
}

// Postings returns an asset's postings ordered by fiscal year.
func (s *Store) Postings(ctx context.Context, assetID generic.AssetID) ([]generic.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, asset_id, run_id, fiscal_year, year_end, amount, accumulated_after,
			book_value_after, idempotency_key, created_at
		FROM postings
		WHERE asset_id = ?
		ORDER BY fiscal_year
	`

	rows, err := s.db.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postings []generic.Posting
	for rows.Next() {
		var p generic.Posting
		var runID, key sql.NullString
		var yearEnd, amount, accumulated, book, createdAt string

		if err := rows.Scan(
			&p.ID, &p.AssetID, &runID, &p.FiscalYear, &yearEnd, &amount,
			&accumulated, &book, &key, &createdAt,
		); err != nil {
			return nil, err
		}

		p.RunID = generic.RunID(runID.String)
		p.IdempotencyKey = key.String
		p.YearEnd, _ = generic.ParseDate(yearEnd)
		p.Amount = parseAmount(amount)
		p.AccumulatedAfter = parseAmount(accumulated)
		p.BookValueAfter = parseAmount(book)
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

// =============================================================================
// ACCRUAL RUNS
// =============================================================================

// SaveRun inserts or updates an accrual run.
func (s *Store) SaveRun(ctx context.Context, r generic.AccrualRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO accrual_runs (id, posting_date, status, assets_posted, years_posted,
			failures, error, trigger_source, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			assets_posted = excluded.assets_posted,
			years_posted = excluded.years_posted,
			failures = excluded.failures,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`

	var startedAt, completedAt *string
	if r.StartedAt != nil {
		s := r.StartedAt.Format(time.RFC3339Nano)
		startedAt = &s
	}
	if r.CompletedAt != nil {
		s := r.CompletedAt.Format(time.RFC3339Nano)
		completedAt = &s
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.PostingDate.String(), r.Status,
		r.AssetsPosted, r.YearsPosted, r.Failures,
		nullString(r.Error), nullString(r.Trigger),
		startedAt, completedAt, r.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// ListRuns returns accrual runs, newest first. An empty status matches all.
func (s *Store) ListRuns(ctx context.Context, status generic.RunStatus) ([]generic.AccrualRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, posting_date, status, assets_posted, years_posted, failures,
			error, trigger_source, started_at, completed_at, created_at
		FROM accrual_runs
	`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = []any{status}
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []generic.AccrualRun
	for rows.Next() {
		var r generic.AccrualRun
		var postingDate, createdAt string
		var runErr, trigger, startedAt, completedAt sql.NullString
		if err := rows.Scan(
			&r.ID, &postingDate, &r.Status, &r.AssetsPosted, &r.YearsPosted, &r.Failures,
			&runErr, &trigger, &startedAt, &completedAt, &createdAt,
		); err != nil {
			return nil, err
		}

		r.PostingDate, _ = generic.ParseDate(postingDate)
		r.Error = runErr.String
		r.Trigger = trigger.String
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if startedAt.Valid {
			t, _ := time.Parse(time.RFC3339Nano, startedAt.String)
			r.StartedAt = &t
		}
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339Nano, completedAt.String)
			r.CompletedAt = &t
		}

		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"postings", "accrual_runs", "assets"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseAmount(value string) generic.Amount {
	return generic.Amount{Value: generic.MustParseDecimal(value)}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
