// Package store provides AssetStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/asset-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	assets      map[generic.AssetID]generic.Asset
	postings    map[generic.AssetID][]generic.Posting
	idempotency map[string]bool
	runs        map[generic.RunID]generic.AccrualRun
}

func NewMemory() *Memory {
	return &Memory{
		assets:      make(map[generic.AssetID]generic.Asset),
		postings:    make(map[generic.AssetID][]generic.Posting),
		idempotency: make(map[string]bool),
		runs:        make(map[generic.RunID]generic.AccrualRun),
	}
}

var _ generic.AssetStore = (*Memory)(nil)

func (m *Memory) SaveAsset(_ context.Context, asset generic.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.assets[asset.ID]; ok {
		asset.DepreciationYearsApplied = existing.DepreciationYearsApplied
		asset.CreatedAt = existing.CreatedAt
	}
	m.assets[asset.ID] = asset
	return nil
}

func (m *Memory) GetAsset(_ context.Context, id generic.AssetID) (generic.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assets[id]
	if !ok {
		return generic.Asset{}, generic.ErrAssetNotFound
	}
	return a, nil
}

func (m *Memory) ListAssets(_ context.Context) ([]generic.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assets := make([]generic.Asset, 0, len(m.assets))
	for _, a := range m.assets {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets, nil
}

// ApplyAccrual checks everything before writing anything (atomic).
func (m *Memory) ApplyAccrual(_ context.Context, assetID generic.AssetID, expectedApplied, newApplied int, postings []generic.Posting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	asset, ok := m.assets[assetID]
	if !ok {
		return generic.ErrAssetNotFound
	}
	if asset.DepreciationYearsApplied != expectedApplied {
		return &generic.StaleAccrualError{
			AssetID:  assetID,
			Expected: expectedApplied,
			Actual:   asset.DepreciationYearsApplied,
		}
	}

	seen := make(map[string]bool, len(postings))
	for _, p := range postings {
		if p.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[p.IdempotencyKey] || seen[p.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		seen[p.IdempotencyKey] = true
	}

	existing := m.postings[assetID]
	existing = append(existing, postings...)
	sort.SliceStable(existing, func(i, j int) bool { return existing[i].FiscalYear < existing[j].FiscalYear })
	m.postings[assetID] = existing
	for key := range seen {
		m.idempotency[key] = true
	}

	asset.DepreciationYearsApplied = newApplied
	m.assets[assetID] = asset
	return nil
}

func (m *Memory) Postings(_ context.Context, assetID generic.AssetID) ([]generic.Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.postings[assetID]
	out := make([]generic.Posting, len(src))
	copy(out, src)
	return out, nil
}

func (m *Memory) SaveRun(_ context.Context, run generic.AccrualRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) ListRuns(_ context.Context, status generic.RunStatus) ([]generic.AccrualRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var runs []generic.AccrualRun
	for _, r := range m.runs {
		if status != "" && r.Status != status {
			continue
		}
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.assets = make(map[generic.AssetID]generic.Asset)
	m.postings = make(map[generic.AssetID][]generic.Posting)
	m.idempotency = make(map[string]bool)
	m.runs = make(map[generic.RunID]generic.AccrualRun)
	return nil
}
