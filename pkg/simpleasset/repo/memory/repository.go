package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-asset/pkg/simpleasset"
)

// Repository implements simpleasset.Repository using in-memory storage. The
// active-checksum uniqueness constraint is enforced under the repository
// mutex, mirroring what the Postgres partial unique index provides, so race
// handling can be exercised without a database.
type Repository struct {
	mu               sync.RWMutex
	assets           map[uuid.UUID]*simpleasset.Asset
	activeByChecksum map[string]uuid.UUID // scope-qualified checksum -> asset id
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		assets:           make(map[uuid.UUID]*simpleasset.Asset),
		activeByChecksum: make(map[string]uuid.UUID),
	}
}

// Reset clears all state. Intended for tests that share one repository
// instance across runs.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.assets = make(map[uuid.UUID]*simpleasset.Asset)
	r.activeByChecksum = make(map[string]uuid.UUID)
}

func checksumKey(ownerID uuid.UUID, checksum string) string {
	return fmt.Sprintf("%s:%s", ownerID, checksum)
}

func scopeForAsset(asset *simpleasset.Asset) uuid.UUID {
	return asset.OwnerID
}

func (r *Repository) CreateAsset(ctx context.Context, asset *simpleasset.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := checksumKey(scopeForAsset(asset), asset.Checksum)
	if existingID, taken := r.activeByChecksum[key]; taken {
		if existing, ok := r.assets[existingID]; ok && existing.DeletedAt == nil {
			return simpleasset.ErrDuplicateChecksum
		}
	}

	// Create a copy to avoid external modifications
	assetCopy := *asset
	r.assets[asset.ID] = &assetCopy
	r.activeByChecksum[key] = asset.ID

	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*simpleasset.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, exists := r.assets[id]
	if !exists {
		return nil, simpleasset.ErrAssetNotFound
	}

	// Return a copy to prevent external modifications
	assetCopy := *asset
	return &assetCopy, nil
}

func (r *Repository) GetAssetsByIDs(ctx context.Context, ids []uuid.UUID) ([]*simpleasset.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simpleasset.Asset
	for _, id := range ids {
		if asset, exists := r.assets[id]; exists && asset.DeletedAt == nil {
			assetCopy := *asset
			result = append(result, &assetCopy)
		}
	}

	return result, nil
}

func (r *Repository) GetAssetByChecksum(ctx context.Context, checksum string, scope simpleasset.DedupScope) (*simpleasset.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.activeByChecksum[checksumKey(scope.ScopeOwnerID(), checksum)]
	if !exists {
		return nil, simpleasset.ErrAssetNotFound
	}

	asset, exists := r.assets[id]
	if !exists || asset.DeletedAt != nil {
		return nil, simpleasset.ErrAssetNotFound
	}

	assetCopy := *asset
	return &assetCopy, nil
}

func (r *Repository) ListAssets(ctx context.Context, scope simpleasset.DedupScope) ([]*simpleasset.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ownerID := scope.ScopeOwnerID()
	var result []*simpleasset.Asset
	for _, asset := range r.assets {
		if asset.OwnerID == ownerID && asset.DeletedAt == nil {
			assetCopy := *asset
			result = append(result, &assetCopy)
		}
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *Repository) TombstoneAsset(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, exists := r.assets[id]
	if !exists {
		return simpleasset.ErrAssetNotFound
	}
	if asset.DeletedAt != nil {
		return nil
	}

	now := time.Now().UTC()
	asset.DeletedAt = &now
	asset.UpdatedAt = now

	// Free the checksum slot so identical content re-submitted later becomes
	// a fresh asset instead of resurrecting this row.
	key := checksumKey(scopeForAsset(asset), asset.Checksum)
	if r.activeByChecksum[key] == id {
		delete(r.activeByChecksum, key)
	}

	return nil
}
