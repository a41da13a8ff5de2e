package simpleasset

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends. Implementations store
// and delete raw bytes; all metadata bookkeeping stays in the Repository.
type BlobStore interface {
	// Upload stores the content under objectKey and returns the resulting
	// blob's public URL and descriptive metadata.
	Upload(ctx context.Context, objectKey string, reader io.Reader, params UploadParams) (*BlobInfo, error)

	// Download retrieves content directly.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object. Deletion is idempotent: it returns true both
	// when the object was removed and when it was already absent.
	Delete(ctx context.Context, objectKey string) (bool, error)

	// GetDownloadURL returns a URL for downloading the object, with an
	// attachment filename when provided.
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// GetObjectMeta retrieves storage-side metadata for an object.
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// Repository defines the interface for asset metadata persistence. It is the
// single synchronization point between concurrent uploads: CreateAsset must
// enforce at most one active asset per checksum within a dedup scope and
// surface violations as ErrDuplicateChecksum.
//
// Implementations never commit or roll back transactions; the Postgres
// repository is constructed over either a pool or a caller-managed pgx.Tx.
type Repository interface {
	// CreateAsset persists a new asset row, guarded by the active-checksum
	// uniqueness constraint within the asset's scope.
	CreateAsset(ctx context.Context, asset *Asset) error

	// GetAsset returns the asset regardless of tombstone state.
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)

	// GetAssetsByIDs returns the active assets among ids. Missing and
	// tombstoned ids are silently skipped.
	GetAssetsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Asset, error)

	// GetAssetByChecksum returns the active asset with the given checksum in
	// scope, or ErrAssetNotFound. Tombstoned assets are never returned.
	GetAssetByChecksum(ctx context.Context, checksum string, scope DedupScope) (*Asset, error)

	// ListAssets returns all active assets in scope, newest first.
	ListAssets(ctx context.Context, scope DedupScope) ([]*Asset, error)

	// TombstoneAsset sets the asset's deleted_at timestamp. Tombstoning an
	// already-tombstoned asset is a no-op.
	TombstoneAsset(ctx context.Context, id uuid.UUID) error
}

// EventSink defines the interface for lifecycle event handling. Sink failures
// are logged, never propagated.
type EventSink interface {
	// AssetCreated is fired when the uploader stores a new asset
	AssetCreated(ctx context.Context, asset *Asset) error

	// AssetReused is fired when resolution maps a slot onto an existing asset
	// instead of uploading
	AssetReused(ctx context.Context, asset *Asset) error

	// AssetRetired is fired after an asset's tombstone is written
	AssetRetired(ctx context.Context, assetID uuid.UUID) error
}

// BlobInfo describes a stored blob as reported by the backend after upload.
type BlobInfo struct {
	PublicURL string
	ObjectKey string
	MimeType  string
	ByteSize  int64
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	MimeType string
	FileName string
}
