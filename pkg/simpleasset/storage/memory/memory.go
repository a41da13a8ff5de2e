package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tendant/simple-asset/pkg/simpleasset"
)

// Backend is an in-memory implementation of the simpleasset.BlobStore
// interface. Public URLs use the memory:// scheme; they are stable but only
// resolvable through Download.
type Backend struct {
	mu              sync.RWMutex
	objects         map[string][]byte
	objectsMimeType map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:         make(map[string][]byte),
		objectsMimeType: make(map[string]string),
	}
}

// Upload stores the content under objectKey
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, params simpleasset.UploadParams) (*simpleasset.BlobInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	b.objectsMimeType[objectKey] = mimeType

	return &simpleasset.BlobInfo{
		PublicURL: "memory://" + objectKey,
		ObjectKey: objectKey,
		MimeType:  mimeType,
		ByteSize:  int64(len(data)),
	}, nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the object. Deleting an absent object is success.
func (b *Backend) Delete(ctx context.Context, objectKey string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, objectKey)
	delete(b.objectsMimeType, objectKey)
	return true, nil
}

// GetDownloadURL returns the stable memory:// URL; the filename hint is
// ignored since nothing dereferences these URLs over HTTP
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return "memory://" + objectKey, nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simpleasset.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}
	mimeType := b.objectsMimeType[objectKey]

	meta := &simpleasset.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: mimeType,
		UpdatedAt:   time.Now().UTC(),
		Metadata:    map[string]string{"mime_type": mimeType},
	}

	return meta, nil
}

// Len reports how many objects the backend currently holds. Test helper.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// Has reports whether objectKey is stored. Test helper.
func (b *Backend) Has(objectKey string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[objectKey]
	return ok
}

var _ simpleasset.BlobStore = (*Backend)(nil)

// FailingBackend wraps another backend and fails selected operations. It
// exists for tests that exercise upload failures and cleanup partial
// failures.
type FailingBackend struct {
	Inner        simpleasset.BlobStore
	FailUploads  bool
	FailDeletes  bool
	FailDownload bool
}

func (f *FailingBackend) Upload(ctx context.Context, objectKey string, reader io.Reader, params simpleasset.UploadParams) (*simpleasset.BlobInfo, error) {
	if f.FailUploads {
		return nil, fmt.Errorf("simulated upload failure")
	}
	return f.Inner.Upload(ctx, objectKey, reader, params)
}

func (f *FailingBackend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	if f.FailDownload {
		return nil, fmt.Errorf("simulated download failure")
	}
	return f.Inner.Download(ctx, objectKey)
}

func (f *FailingBackend) Delete(ctx context.Context, objectKey string) (bool, error) {
	if f.FailDeletes {
		return false, fmt.Errorf("simulated delete failure")
	}
	return f.Inner.Delete(ctx, objectKey)
}

func (f *FailingBackend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return f.Inner.GetDownloadURL(ctx, objectKey, downloadFilename)
}

func (f *FailingBackend) GetObjectMeta(ctx context.Context, objectKey string) (*simpleasset.ObjectMeta, error) {
	return f.Inner.GetObjectMeta(ctx, objectKey)
}

var _ simpleasset.BlobStore = (*FailingBackend)(nil)
