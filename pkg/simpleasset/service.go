package simpleasset

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-asset library
type Service interface {
	// Resolution engine
	Resolve(ctx context.Context, req ResolveRequest) (*ResolveResult, error)

	// Uploader
	CreateAsset(ctx context.Context, req CreateAssetRequest) (*Asset, error)

	// Lifecycle retirement
	Retire(ctx context.Context, req RetireRequest) (*RetirementResult, error)

	// Asset read operations
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	ListAssets(ctx context.Context, req ListAssetsRequest) ([]*Asset, error)
	DownloadAsset(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
	GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error)

	// Session returns a Service that performs all metadata reads and writes
	// through repo, typically one bound to a caller-managed transaction, while
	// sharing blob stores and configuration with the parent service.
	Session(repo Repository) Service

	// Storage backend operations
	RegisterBackend(name string, backend BlobStore)
	GetBackend(name string) (BlobStore, error)
}
