package simpleasset_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-asset/pkg/simpleasset"
	"github.com/tendant/simple-asset/pkg/simpleasset/repo/memory"
	memorystorage "github.com/tendant/simple-asset/pkg/simpleasset/storage/memory"
)

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []simpleasset.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []simpleasset.Option{},
			expectError: true,
		},
		{
			name: "repository without blob store should fail",
			options: []simpleasset.Option{
				simpleasset.WithRepository(memory.New()),
			},
			expectError: true,
		},
		{
			name: "with repository and blob store should succeed",
			options: []simpleasset.Option{
				simpleasset.WithRepository(memory.New()),
				simpleasset.WithBlobStore("memory", memorystorage.New()),
			},
			expectError: false,
		},
		{
			name: "unknown default backend should fail",
			options: []simpleasset.Option{
				simpleasset.WithRepository(memory.New()),
				simpleasset.WithBlobStore("memory", memorystorage.New()),
				simpleasset.WithDefaultBackend("s3"),
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := simpleasset.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func setupTestService(t *testing.T) (simpleasset.Service, *memory.Repository, *memorystorage.Backend) {
	t.Helper()

	repo := memory.New()
	store := memorystorage.New()

	svc, err := simpleasset.New(
		simpleasset.WithRepository(repo),
		simpleasset.WithBlobStore("memory", store),
		simpleasset.WithEventSink(simpleasset.NewNoopEventSink()),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)

	return svc, repo, store
}

func uploadTestAsset(t *testing.T, svc simpleasset.Service, scope simpleasset.DedupScope, data []byte) *simpleasset.Asset {
	t.Helper()

	asset, err := svc.CreateAsset(context.Background(), simpleasset.CreateAssetRequest{
		Data:     data,
		MimeType: "application/pdf",
		FileName: "document.pdf",
		Category: "documents",
		Scope:    scope,
	})
	require.NoError(t, err)
	require.NotNil(t, asset)
	return asset
}

func TestCreateAsset(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	data := []byte("%PDF-1.4 front page")
	asset := uploadTestAsset(t, svc, simpleasset.PerOwnerScope(ownerID), data)

	assert.NotEqual(t, uuid.Nil, asset.ID)
	assert.Equal(t, ownerID, asset.OwnerID)
	assert.Equal(t, "documents", asset.Category)
	assert.Equal(t, simpleasset.ComputeChecksum(data), asset.Checksum)
	assert.Equal(t, simpleasset.ChecksumAlgorithmSHA256, asset.ChecksumAlgorithm)
	assert.Equal(t, "application/pdf", asset.MimeType)
	assert.Equal(t, int64(len(data)), asset.ByteSize)
	assert.NotEmpty(t, asset.PublicURL)
	assert.NotEmpty(t, asset.ObjectKey)
	assert.True(t, asset.Active())
	assert.Equal(t, 1, store.Len())

	t.Run("round trips through download", func(t *testing.T) {
		reader, err := svc.DownloadAsset(ctx, asset.ID)
		require.NoError(t, err)
		defer reader.Close()

		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("payload too large", func(t *testing.T) {
		small, err := simpleasset.New(
			simpleasset.WithRepository(memory.New()),
			simpleasset.WithBlobStore("memory", memorystorage.New()),
			simpleasset.WithMaxPayloadBytes(4),
		)
		require.NoError(t, err)

		_, err = small.CreateAsset(ctx, simpleasset.CreateAssetRequest{
			Data:  []byte("12345"),
			Scope: simpleasset.PerOwnerScope(ownerID),
		})
		assert.ErrorIs(t, err, simpleasset.ErrPayloadTooLarge)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := svc.CreateAsset(ctx, simpleasset.CreateAssetRequest{
			Data:               []byte("x"),
			Scope:              simpleasset.PerOwnerScope(ownerID),
			StorageBackendName: "nope",
		})
		assert.ErrorIs(t, err, simpleasset.ErrStorageBackendNotFound)
	})
}

func TestCreateAssetUploadFailure(t *testing.T) {
	repo := memory.New()
	inner := memorystorage.New()
	failing := &memorystorage.FailingBackend{Inner: inner, FailUploads: true}

	svc, err := simpleasset.New(
		simpleasset.WithRepository(repo),
		simpleasset.WithBlobStore("memory", failing),
	)
	require.NoError(t, err)

	ctx := context.Background()
	ownerID := uuid.New()

	_, err = svc.CreateAsset(ctx, simpleasset.CreateAssetRequest{
		Data:  []byte("doomed"),
		Scope: simpleasset.PerOwnerScope(ownerID),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, simpleasset.ErrUploadFailed)

	// A failed upload must leave no metadata behind.
	assets, err := repo.ListAssets(ctx, simpleasset.PerOwnerScope(ownerID))
	require.NoError(t, err)
	assert.Empty(t, assets)
	assert.Equal(t, 0, inner.Len())
}

func TestCreateAssetChecksumRace(t *testing.T) {
	svc, repo, _ := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())
	data := []byte("raced content")

	const uploaders = 4
	results := make([]*simpleasset.Asset, uploaders)
	errs := make([]error, uploaders)

	var wg sync.WaitGroup
	for i := 0; i < uploaders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.CreateAsset(ctx, simpleasset.CreateAssetRequest{
				Data:     data,
				FileName: "same.bin",
				Scope:    scope,
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < uploaders; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
	}

	// Every caller converges on the single winning asset.
	winnerID := results[0].ID
	for i := 1; i < uploaders; i++ {
		assert.Equal(t, winnerID, results[i].ID)
	}

	assets, err := repo.ListAssets(ctx, scope)
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}

func TestResolveNewUploads(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())

	front := []byte("front image bytes")
	back := []byte("back image bytes")

	result, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: simpleasset.InlineContent{Data: front, MimeType: "image/png"}},
			{SlotType: "back", Payload: simpleasset.InlineContent{Data: back, MimeType: "image/png"}},
		},
		Category: "card-images",
		Scope:    scope,
	})
	require.NoError(t, err)
	require.Len(t, result.Slots, 2)

	assert.Equal(t, "front", result.Slots[0].SlotType)
	assert.Equal(t, "back", result.Slots[1].SlotType)
	assert.NotEqual(t, result.Slots[0].AssetID, result.Slots[1].AssetID)
	assert.Empty(t, result.RetiredAssetIDs)
	assert.Empty(t, result.CleanupFailures)
	assert.Equal(t, 2, store.Len())
}

func TestResolveReusesExistingReference(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())

	asset := uploadTestAsset(t, svc, scope, []byte("stable content"))

	result, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: simpleasset.ExistingReference{PublicURL: asset.PublicURL}},
		},
		ExistingSlots: []simpleasset.ResolvedSlot{
			{SlotType: "front", AssetID: asset.ID},
		},
		Scope: scope,
	})
	require.NoError(t, err)
	require.Len(t, result.Slots, 1)

	assert.Equal(t, asset.ID, result.Slots[0].AssetID)
	assert.Empty(t, result.RetiredAssetIDs)
	assert.Equal(t, 1, store.Len())
}

func TestResolveReferenceNotFound(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: simpleasset.ExistingReference{PublicURL: "https://cdn.example.com/unknown.png"}},
		},
		Scope: simpleasset.PerOwnerScope(uuid.New()),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, simpleasset.ErrReferenceNotFound)

	var slotErr *simpleasset.SlotError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, "front", slotErr.SlotType)
}

func TestResolveReusesExistingByChecksum(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())
	data := []byte("same bytes, resubmitted")

	asset := uploadTestAsset(t, svc, scope, data)

	// The client re-sends the raw bytes instead of the URL. The checksum
	// matches the existing slot, so no second upload happens.
	result, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: simpleasset.InlineContent{Data: data}},
		},
		ExistingSlots: []simpleasset.ResolvedSlot{
			{SlotType: "front", AssetID: asset.ID},
		},
		Scope: scope,
	})
	require.NoError(t, err)
	require.Len(t, result.Slots, 1)

	assert.Equal(t, asset.ID, result.Slots[0].AssetID)
	assert.Empty(t, result.RetiredAssetIDs)
	assert.Equal(t, 1, store.Len())
}

func TestResolveScopeWideChecksumReuse(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())
	data := []byte("previously uploaded elsewhere")

	asset := uploadTestAsset(t, svc, scope, data)

	// No existing slots reference the asset, but it is active in the scope.
	result, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "attachment", Payload: simpleasset.InlineContent{Data: data}},
		},
		Scope: scope,
	})
	require.NoError(t, err)
	require.Len(t, result.Slots, 1)

	assert.Equal(t, asset.ID, result.Slots[0].AssetID)
	assert.Equal(t, 1, store.Len())
}

func TestResolveDuplicateInlineSlots(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	data := []byte("identical bytes in two slots")

	result, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: simpleasset.InlineContent{Data: data}},
			{SlotType: "back", Payload: simpleasset.InlineContent{Data: data}},
		},
		Scope: simpleasset.PerOwnerScope(uuid.New()),
	})
	require.NoError(t, err)
	require.Len(t, result.Slots, 2)

	// Both slots point at the same asset and only one upload happened.
	assert.Equal(t, result.Slots[0].AssetID, result.Slots[1].AssetID)
	assert.Equal(t, 1, store.Len())
}

func TestResolveReplacementRetiresOldAsset(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())

	old := uploadTestAsset(t, svc, scope, []byte("old front image"))
	require.True(t, store.Has(old.ObjectKey))

	result, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: simpleasset.InlineContent{Data: []byte("new front image")}},
		},
		ExistingSlots: []simpleasset.ResolvedSlot{
			{SlotType: "front", AssetID: old.ID},
		},
		Scope: scope,
	})
	require.NoError(t, err)
	require.Len(t, result.Slots, 1)

	assert.NotEqual(t, old.ID, result.Slots[0].AssetID)
	assert.Equal(t, []uuid.UUID{old.ID}, result.RetiredAssetIDs)
	assert.Empty(t, result.CleanupFailures)

	// The old asset is tombstoned, not erased, and its blob is gone.
	retired, err := svc.GetAsset(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, retired.Active())
	assert.False(t, store.Has(old.ObjectKey))
}

func TestResolveMixedReuse(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())

	cvData := []byte("cv content")
	passport := uploadTestAsset(t, svc, scope, []byte("passport scan"))
	cv := uploadTestAsset(t, svc, scope, cvData)

	// One slot re-sent as its URL, the other as raw bytes. Both resolve to
	// the existing assets with no uploads and no retirement.
	result, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "passport", Payload: simpleasset.ExistingReference{PublicURL: passport.PublicURL}},
			{SlotType: "cv", Payload: simpleasset.InlineContent{Data: cvData}},
		},
		ExistingSlots: []simpleasset.ResolvedSlot{
			{SlotType: "passport", AssetID: passport.ID},
			{SlotType: "cv", AssetID: cv.ID},
		},
		Scope: scope,
	})
	require.NoError(t, err)
	require.Len(t, result.Slots, 2)

	assert.Equal(t, passport.ID, result.Slots[0].AssetID)
	assert.Equal(t, cv.ID, result.Slots[1].AssetID)
	assert.Empty(t, result.RetiredAssetIDs)
	assert.Equal(t, 2, store.Len())
}

func TestResolveEmptyDesiredRetiresEverything(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())

	asset := uploadTestAsset(t, svc, scope, []byte("about to be dropped"))

	result, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: nil,
		ExistingSlots: []simpleasset.ResolvedSlot{
			{SlotType: "id_card", AssetID: asset.ID},
		},
		Scope: scope,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Slots)
	assert.Equal(t, []uuid.UUID{asset.ID}, result.RetiredAssetIDs)
	assert.Equal(t, 0, store.Len())
}

func TestResolveIdempotent(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())
	data := []byte("submitted twice")

	req := simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: simpleasset.InlineContent{Data: data}},
		},
		Scope: scope,
	}

	first, err := svc.Resolve(ctx, req)
	require.NoError(t, err)

	req.ExistingSlots = first.Slots
	second, err := svc.Resolve(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.Slots, second.Slots)
	assert.Empty(t, second.RetiredAssetIDs)
	assert.Equal(t, 1, store.Len())
}

func TestResolveNoResurrection(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())
	data := []byte("retired then re-submitted")

	old := uploadTestAsset(t, svc, scope, data)

	_, err := svc.Retire(ctx, simpleasset.RetireRequest{AssetIDs: []uuid.UUID{old.ID}})
	require.NoError(t, err)

	result, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: simpleasset.InlineContent{Data: data}},
		},
		Scope: scope,
	})
	require.NoError(t, err)
	require.Len(t, result.Slots, 1)

	// Identical content becomes a fresh asset; the tombstone stands.
	assert.NotEqual(t, old.ID, result.Slots[0].AssetID)

	retired, err := svc.GetAsset(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, retired.Active())
}

func TestResolveGlobalPoolScope(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	data := []byte("shared template")

	first, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "template", Payload: simpleasset.InlineContent{Data: data}},
		},
		Scope: simpleasset.GlobalPoolScope(),
	})
	require.NoError(t, err)

	// A different caller submitting the same bytes into the pool reuses the
	// existing pool asset.
	second, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "template", Payload: simpleasset.InlineContent{Data: data}},
		},
		Scope: simpleasset.GlobalPoolScope(),
	})
	require.NoError(t, err)

	assert.Equal(t, first.Slots[0].AssetID, second.Slots[0].AssetID)
	assert.Equal(t, 1, store.Len())

	pooled, err := svc.GetAsset(ctx, first.Slots[0].AssetID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, pooled.OwnerID)
}

func TestResolveScopesAreIndependent(t *testing.T) {
	svc, _, store := setupTestService(t)
	data := []byte("same content, two owners")

	a := uploadTestAsset(t, svc, simpleasset.PerOwnerScope(uuid.New()), data)
	b := uploadTestAsset(t, svc, simpleasset.PerOwnerScope(uuid.New()), data)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Checksum, b.Checksum)
	assert.Equal(t, 2, store.Len())
}

func TestResolveInvalidPayload(t *testing.T) {
	svc, _, _ := setupTestService(t)

	_, err := svc.Resolve(context.Background(), simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: nil},
		},
		Scope: simpleasset.PerOwnerScope(uuid.New()),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, simpleasset.ErrInvalidPayloadFormat)
}

func TestResolveFailFastLeavesExistingSlotsAlone(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())

	keep := uploadTestAsset(t, svc, scope, []byte("kept content"))

	_, err := svc.Resolve(ctx, simpleasset.ResolveRequest{
		DesiredSlots: []simpleasset.DocumentSlot{
			{SlotType: "front", Payload: simpleasset.ExistingReference{PublicURL: "https://cdn.example.com/missing.png"}},
		},
		ExistingSlots: []simpleasset.ResolvedSlot{
			{SlotType: "front", AssetID: keep.ID},
		},
		Scope: scope,
	})
	require.Error(t, err)

	// The failed resolution must not have retired anything.
	current, err := svc.GetAsset(ctx, keep.ID)
	require.NoError(t, err)
	assert.True(t, current.Active())
}

func TestRetire(t *testing.T) {
	svc, _, store := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())

	asset := uploadTestAsset(t, svc, scope, []byte("short lived"))

	result, err := svc.Retire(ctx, simpleasset.RetireRequest{AssetIDs: []uuid.UUID{asset.ID}})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{asset.ID}, result.TombstonedIDs)
	assert.False(t, result.PartialFailure())
	assert.False(t, store.Has(asset.ObjectKey))

	t.Run("retire is idempotent", func(t *testing.T) {
		again, err := svc.Retire(ctx, simpleasset.RetireRequest{AssetIDs: []uuid.UUID{asset.ID}})
		require.NoError(t, err)
		assert.Empty(t, again.TombstonedIDs)
	})

	t.Run("unknown ids are skipped", func(t *testing.T) {
		res, err := svc.Retire(ctx, simpleasset.RetireRequest{AssetIDs: []uuid.UUID{uuid.New()}})
		require.NoError(t, err)
		assert.Empty(t, res.TombstonedIDs)
		assert.Empty(t, res.CleanupFailures)
	})
}

func TestRetireCleanupFailureIsReportedNotFatal(t *testing.T) {
	repo := memory.New()
	inner := memorystorage.New()
	failing := &memorystorage.FailingBackend{Inner: inner, FailDeletes: true}

	svc, err := simpleasset.New(
		simpleasset.WithRepository(repo),
		simpleasset.WithBlobStore("memory", failing),
	)
	require.NoError(t, err)

	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())
	asset := uploadTestAsset(t, svc, scope, []byte("sticky blob"))

	result, err := svc.Retire(ctx, simpleasset.RetireRequest{AssetIDs: []uuid.UUID{asset.ID}})
	require.NoError(t, err)

	// Tombstone committed even though the remote delete failed.
	assert.Equal(t, []uuid.UUID{asset.ID}, result.TombstonedIDs)
	require.True(t, result.PartialFailure())
	require.Len(t, result.CleanupFailures, 1)

	failure := result.CleanupFailures[0]
	assert.Equal(t, asset.ID, failure.AssetID)
	assert.Equal(t, "memory", failure.Backend)
	assert.Equal(t, asset.ObjectKey, failure.ObjectKey)
	assert.ErrorIs(t, failure.Err, simpleasset.ErrCleanupPartialFailure)

	tombstoned, err := svc.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, tombstoned.Active())
}

func TestSessionUsesBoundRepository(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())

	other := memory.New()
	session := svc.Session(other)

	asset, err := session.CreateAsset(ctx, simpleasset.CreateAssetRequest{
		Data:  []byte("session bound"),
		Scope: scope,
	})
	require.NoError(t, err)

	// The row landed in the session's repository, not the original one.
	_, err = svc.GetAsset(ctx, asset.ID)
	assert.ErrorIs(t, err, simpleasset.ErrAssetNotFound)

	got, err := session.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.ID, got.ID)
}

func TestGetDownloadURL(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	asset := uploadTestAsset(t, svc, simpleasset.PerOwnerScope(uuid.New()), []byte("linkable"))

	url, err := svc.GetDownloadURL(ctx, asset.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	_, err = svc.GetDownloadURL(ctx, uuid.New())
	assert.ErrorIs(t, err, simpleasset.ErrAssetNotFound)
}

func TestListAssets(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()
	scope := simpleasset.PerOwnerScope(uuid.New())

	a := uploadTestAsset(t, svc, scope, []byte("first"))
	b := uploadTestAsset(t, svc, scope, []byte("second"))

	assets, err := svc.ListAssets(ctx, simpleasset.ListAssetsRequest{Scope: scope})
	require.NoError(t, err)
	require.Len(t, assets, 2)

	_, err = svc.Retire(ctx, simpleasset.RetireRequest{AssetIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)

	assets, err = svc.ListAssets(ctx, simpleasset.ListAssetsRequest{Scope: scope})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, b.ID, assets[0].ID)
}
