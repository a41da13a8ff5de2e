package simpleasset

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrAssetNotFound indicates an asset was not found; lookups scoped to
	// active assets also return it for tombstoned rows
	ErrAssetNotFound = errors.New("asset not found")

	// ErrReferenceNotFound indicates an existing-reference slot does not match
	// any active asset in the resolution's scope
	ErrReferenceNotFound = errors.New("referenced asset not found")

	// ErrInvalidPayloadFormat indicates a slot payload is neither a recognized
	// existing reference nor decodable inline content
	ErrInvalidPayloadFormat = errors.New("invalid slot payload format")

	// ErrPayloadTooLarge indicates decoded inline content exceeds the
	// configured size ceiling
	ErrPayloadTooLarge = errors.New("payload exceeds size limit")

	// ErrUploadFailed indicates the blob store's upload failed
	ErrUploadFailed = errors.New("upload failed")

	// ErrDuplicateChecksum indicates an active asset with the same checksum
	// already exists in scope; returned by Repository.CreateAsset
	ErrDuplicateChecksum = errors.New("active asset with checksum already exists")

	// ErrChecksumConflict indicates a uniqueness race occurred and the
	// concurrent writer's row was gone on re-read; the call is retryable
	ErrChecksumConflict = errors.New("checksum conflict could not be resolved")

	// ErrCleanupPartialFailure indicates one or more remote deletions failed
	// after the metadata tombstone committed; non-fatal
	ErrCleanupPartialFailure = errors.New("remote cleanup partially failed")

	// ErrStorageBackendNotFound indicates a storage backend was not registered
	ErrStorageBackendNotFound = errors.New("storage backend not found")
)

// AssetError represents an error related to a single asset operation
type AssetError struct {
	AssetID uuid.UUID
	Op      string
	Err     error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset operation %s failed for asset %s: %v", e.Op, e.AssetID, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// SlotError represents a failure while resolving one desired slot. Any slot
// error aborts the whole resolution so the caller's transaction can roll back
// cleanly.
type SlotError struct {
	SlotType string
	Op       string
	Err      error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot operation %s failed for slot %q: %v", e.Op, e.SlotType, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
