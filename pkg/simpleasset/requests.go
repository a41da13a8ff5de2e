package simpleasset

import "github.com/google/uuid"

// Request/Response DTOs

// ResolveRequest contains parameters for one resolution call.
//
// DesiredSlots is the target state; ExistingSlots is the owner's current
// slot-to-asset mapping. Assets referenced by ExistingSlots but absent from
// the final mapping are retired. Callers must not run two resolutions for the
// same owner concurrently; the retirement sets would conflict.
type ResolveRequest struct {
	DesiredSlots  []DocumentSlot
	ExistingSlots []ResolvedSlot
	Category      string
	Scope         DedupScope

	// StorageBackendName selects the backend for new uploads. Empty means the
	// service default.
	StorageBackendName string
}

// CreateAssetRequest contains parameters for storing new content directly.
type CreateAssetRequest struct {
	Data     []byte
	MimeType string
	FileName string
	Category string
	Scope    DedupScope

	// StorageBackendName selects the backend. Empty means the service default.
	StorageBackendName string
}

// RetireRequest contains the assets to tombstone and clean up remotely.
type RetireRequest struct {
	AssetIDs []uuid.UUID
}

// ListAssetsRequest contains parameters for listing active assets in a scope.
type ListAssetsRequest struct {
	Scope DedupScope
}
