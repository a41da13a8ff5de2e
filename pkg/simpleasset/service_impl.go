package simpleasset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-asset/pkg/simpleasset/objectkey"
)

// service implements the Service interface
type service struct {
	repository      Repository
	blobStores      map[string]BlobStore
	defaultBackend  string
	eventSink       EventSink
	keyGenerator    objectkey.Generator
	maxPayloadBytes int64
	logger          *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore adds a blob storage backend. The first registered backend
// becomes the default for new uploads unless WithDefaultBackend overrides it.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
		if s.defaultBackend == "" {
			s.defaultBackend = name
		}
	}
}

// WithDefaultBackend sets the backend used when requests name none
func WithDefaultBackend(name string) Option {
	return func(s *service) {
		s.defaultBackend = name
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithKeyGenerator sets the object key generation strategy
func WithKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keyGenerator = gen
	}
}

// WithMaxPayloadBytes sets the decoded-payload size ceiling for inline content
func WithMaxPayloadBytes(n int64) Option {
	return func(s *service) {
		s.maxPayloadBytes = n
	}
}

// WithLogger sets the structured logger used for non-fatal warnings
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores:      make(map[string]BlobStore),
		maxPayloadBytes: DefaultMaxPayloadBytes,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if len(s.blobStores) == 0 {
		return nil, fmt.Errorf("at least one blob store is required")
	}
	if _, ok := s.blobStores[s.defaultBackend]; !ok {
		return nil, fmt.Errorf("%w: default backend %s", ErrStorageBackendNotFound, s.defaultBackend)
	}
	if s.keyGenerator == nil {
		s.keyGenerator = objectkey.NewShardedGenerator()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Session returns a copy of the service bound to repo. The caller typically
// passes a repository constructed over its own transaction so metadata writes
// commit or roll back with the rest of the request.
func (s *service) Session(repo Repository) Service {
	clone := *s
	clone.repository = repo
	return &clone
}

// Resolution engine

// Resolve computes the final slot-to-asset mapping for req.DesiredSlots,
// reusing active assets by public URL or checksum, uploading inline content
// on cache misses, and retiring assets the owner no longer references. Slots
// are resolved sequentially and fail fast: any slot error aborts the whole
// resolution with no partial mapping.
func (s *service) Resolve(ctx context.Context, req ResolveRequest) (*ResolveResult, error) {
	existing, err := s.loadExistingAssets(ctx, req.ExistingSlots)
	if err != nil {
		return nil, err
	}

	byURL := make(map[string]*Asset, len(existing))
	byChecksum := make(map[string]*Asset, len(existing))
	for _, asset := range existing {
		byURL[asset.PublicURL] = asset
		byChecksum[asset.Checksum] = asset
	}

	resolved := make([]ResolvedSlot, 0, len(req.DesiredSlots))
	used := make(map[uuid.UUID]bool, len(req.DesiredSlots))

	for _, slot := range req.DesiredSlots {
		asset, err := s.resolveSlot(ctx, slot, req, byURL, byChecksum)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ResolvedSlot{SlotType: slot.SlotType, AssetID: asset.ID})
		used[asset.ID] = true
	}

	result := &ResolveResult{Slots: resolved}

	var toRetire []uuid.UUID
	for _, prev := range req.ExistingSlots {
		if !used[prev.AssetID] {
			toRetire = append(toRetire, prev.AssetID)
		}
	}
	if len(toRetire) > 0 {
		retirement, err := s.Retire(ctx, RetireRequest{AssetIDs: toRetire})
		if err != nil {
			return nil, err
		}
		result.RetiredAssetIDs = retirement.TombstonedIDs
		result.CleanupFailures = retirement.CleanupFailures
	}

	return result, nil
}

// loadExistingAssets reads the active asset rows behind the owner's current
// slots through the session's repository, so the lookup indices are
// consistent with any writes in the caller's transaction.
func (s *service) loadExistingAssets(ctx context.Context, slots []ResolvedSlot) ([]*Asset, error) {
	if len(slots) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(slots))
	seen := make(map[uuid.UUID]bool, len(slots))
	for _, slot := range slots {
		if !seen[slot.AssetID] {
			seen[slot.AssetID] = true
			ids = append(ids, slot.AssetID)
		}
	}

	assets, err := s.repository.GetAssetsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing assets: %w", err)
	}
	return assets, nil
}

func (s *service) resolveSlot(ctx context.Context, slot DocumentSlot, req ResolveRequest, byURL, byChecksum map[string]*Asset) (*Asset, error) {
	switch payload := slot.Payload.(type) {
	case ExistingReference:
		asset, ok := byURL[payload.PublicURL]
		if !ok {
			return nil, &SlotError{SlotType: slot.SlotType, Op: "resolve_reference", Err: ErrReferenceNotFound}
		}
		s.fireReused(ctx, asset)
		return asset, nil

	case InlineContent:
		if int64(len(payload.Data)) > s.maxPayloadBytes {
			return nil, &SlotError{SlotType: slot.SlotType, Op: "decode_inline", Err: ErrPayloadTooLarge}
		}
		checksum := ComputeChecksum(payload.Data)

		if asset, ok := byChecksum[checksum]; ok {
			s.fireReused(ctx, asset)
			return asset, nil
		}

		// Scope-wide lookup catches active content the owner's current slots
		// do not reference, most notably global-pool assets. Tombstoned rows
		// are invisible here, so retired content is re-uploaded rather than
		// resurrected.
		if asset, err := s.repository.GetAssetByChecksum(ctx, checksum, req.Scope); err == nil {
			byChecksum[checksum] = asset
			s.fireReused(ctx, asset)
			return asset, nil
		} else if !errors.Is(err, ErrAssetNotFound) {
			return nil, &SlotError{SlotType: slot.SlotType, Op: "lookup_checksum", Err: err}
		}

		asset, err := s.CreateAsset(ctx, CreateAssetRequest{
			Data:               payload.Data,
			MimeType:           payload.MimeType,
			FileName:           payload.FileName,
			Category:           req.Category,
			Scope:              req.Scope,
			StorageBackendName: req.StorageBackendName,
		})
		if err != nil {
			return nil, &SlotError{SlotType: slot.SlotType, Op: "upload_inline", Err: err}
		}
		// In-call memoization: duplicate inline content later in this request
		// reuses this asset instead of uploading again.
		byChecksum[checksum] = asset
		return asset, nil

	default:
		return nil, &SlotError{SlotType: slot.SlotType, Op: "classify_payload", Err: ErrInvalidPayloadFormat}
	}
}

// Uploader

// CreateAsset stores new content: blob upload first, then the metadata row
// guarded by the repository's active-checksum uniqueness constraint. When a
// concurrent uploader wins the constraint race, the winner's asset is
// returned and both callers converge on a single active row per checksum.
func (s *service) CreateAsset(ctx context.Context, req CreateAssetRequest) (*Asset, error) {
	if int64(len(req.Data)) > s.maxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}

	backendName := req.StorageBackendName
	if backendName == "" {
		backendName = s.defaultBackend
	}
	backend, err := s.GetBackend(backendName)
	if err != nil {
		return nil, err
	}

	checksum := ComputeChecksum(req.Data)
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(req.Data)
	}

	key := s.keyGenerator.GenerateKey(checksum, &objectkey.KeyMetadata{
		OwnerID:  req.Scope.ScopeOwnerID().String(),
		Global:   req.Scope.Global,
		Category: req.Category,
		FileName: req.FileName,
	})

	info, err := backend.Upload(ctx, key, bytes.NewReader(req.Data), UploadParams{
		MimeType: mimeType,
		FileName: req.FileName,
	})
	if err != nil {
		// No metadata row is written when the upload fails, so no row can
		// ever reference bytes that were never stored.
		return nil, &StorageError{Backend: backendName, Key: key, Op: "upload", Err: fmt.Errorf("%w: %v", ErrUploadFailed, err)}
	}

	now := time.Now().UTC()
	asset := &Asset{
		ID:                 uuid.New(),
		OwnerID:            req.Scope.ScopeOwnerID(),
		Category:           req.Category,
		Checksum:           checksum,
		ChecksumAlgorithm:  ChecksumAlgorithmSHA256,
		PublicURL:          info.PublicURL,
		ObjectKey:          info.ObjectKey,
		StorageBackendName: backendName,
		MimeType:           mimeType,
		ByteSize:           info.ByteSize,
		FileName:           req.FileName,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repository.CreateAsset(ctx, asset); err != nil {
		if errors.Is(err, ErrDuplicateChecksum) {
			return s.adoptWinner(ctx, backend, backendName, checksum, key, req.Scope)
		}
		return nil, &AssetError{AssetID: asset.ID, Op: "create", Err: err}
	}

	if s.eventSink != nil {
		if err := s.eventSink.AssetCreated(ctx, asset); err != nil {
			s.logger.Warn("asset created event sink failed", "asset_id", asset.ID, "error", err)
		}
	}

	return asset, nil
}

// adoptWinner reconciles a uniqueness race: a concurrent uploader committed
// an active asset for the same checksum first. Re-reading through the same
// session returns the winning row; finding nothing means the winner rolled
// back, which the caller may retry.
func (s *service) adoptWinner(ctx context.Context, backend BlobStore, backendName, checksum, uploadedKey string, scope DedupScope) (*Asset, error) {
	winner, err := s.repository.GetAssetByChecksum(ctx, checksum, scope)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return nil, ErrChecksumConflict
		}
		return nil, fmt.Errorf("failed to reconcile checksum conflict: %w", err)
	}

	// Our just-uploaded blob is redundant; remove it unless the winner shares
	// the object key (content-addressed keys collide on purpose).
	if winner.ObjectKey != uploadedKey {
		if _, err := backend.Delete(ctx, uploadedKey); err != nil {
			s.logger.Warn("failed to remove redundant blob after checksum race",
				"backend", backendName, "object_key", uploadedKey, "error", err)
		}
	}

	s.fireReused(ctx, winner)
	return winner, nil
}

// Lifecycle retirement

// Retire tombstones each asset through the session's repository, then issues
// a best-effort idempotent remote delete. Remote deletion cannot participate
// in the caller's transaction, so its failures are reported and logged, never
// escalated: the tombstone is the source of truth and an unreferenced remote
// object is a cost, not a correctness problem.
func (s *service) Retire(ctx context.Context, req RetireRequest) (*RetirementResult, error) {
	result := &RetirementResult{}

	for _, id := range req.AssetIDs {
		asset, err := s.repository.GetAsset(ctx, id)
		if err != nil {
			if errors.Is(err, ErrAssetNotFound) {
				continue
			}
			return nil, &AssetError{AssetID: id, Op: "retire", Err: err}
		}
		if !asset.Active() {
			continue
		}

		if err := s.repository.TombstoneAsset(ctx, id); err != nil {
			return nil, &AssetError{AssetID: id, Op: "tombstone", Err: err}
		}
		result.TombstonedIDs = append(result.TombstonedIDs, id)

		if s.eventSink != nil {
			if err := s.eventSink.AssetRetired(ctx, id); err != nil {
				s.logger.Warn("asset retired event sink failed", "asset_id", id, "error", err)
			}
		}

		backend, err := s.GetBackend(asset.StorageBackendName)
		if err == nil {
			_, err = backend.Delete(ctx, asset.ObjectKey)
		}
		if err != nil {
			s.logger.Warn("remote cleanup failed for retired asset",
				"asset_id", id, "backend", asset.StorageBackendName,
				"object_key", asset.ObjectKey, "error", err)
			result.CleanupFailures = append(result.CleanupFailures, CleanupFailure{
				AssetID:   id,
				Backend:   asset.StorageBackendName,
				ObjectKey: asset.ObjectKey,
				Err:       fmt.Errorf("%w: %v", ErrCleanupPartialFailure, err),
			})
		}
	}

	return result, nil
}

// Asset read operations

func (s *service) GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error) {
	return s.repository.GetAsset(ctx, id)
}

func (s *service) ListAssets(ctx context.Context, req ListAssetsRequest) ([]*Asset, error) {
	return s.repository.ListAssets(ctx, req.Scope)
}

func (s *service) DownloadAsset(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	asset, err := s.repository.GetAsset(ctx, id)
	if err != nil {
		return nil, &AssetError{AssetID: id, Op: "download", Err: err}
	}

	backend, err := s.GetBackend(asset.StorageBackendName)
	if err != nil {
		return nil, &AssetError{AssetID: id, Op: "download", Err: err}
	}

	reader, err := backend.Download(ctx, asset.ObjectKey)
	if err != nil {
		return nil, &StorageError{
			Backend: asset.StorageBackendName,
			Key:     asset.ObjectKey,
			Op:      "download",
			Err:     err,
		}
	}

	return reader, nil
}

func (s *service) GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	asset, err := s.repository.GetAsset(ctx, id)
	if err != nil {
		return "", &AssetError{AssetID: id, Op: "get_download_url", Err: err}
	}

	backend, err := s.GetBackend(asset.StorageBackendName)
	if err != nil {
		return "", &AssetError{AssetID: id, Op: "get_download_url", Err: err}
	}

	return backend.GetDownloadURL(ctx, asset.ObjectKey, asset.FileName)
}

// Storage backend operations

func (s *service) RegisterBackend(name string, backend BlobStore) {
	s.blobStores[name] = backend
	if s.defaultBackend == "" {
		s.defaultBackend = name
	}
}

func (s *service) GetBackend(name string) (BlobStore, error) {
	backend, exists := s.blobStores[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStorageBackendNotFound, name)
	}
	return backend, nil
}

// Helper methods

func (s *service) fireReused(ctx context.Context, asset *Asset) {
	if s.eventSink == nil {
		return
	}
	if err := s.eventSink.AssetReused(ctx, asset); err != nil {
		s.logger.Warn("asset reused event sink failed", "asset_id", asset.ID, "error", err)
	}
}
