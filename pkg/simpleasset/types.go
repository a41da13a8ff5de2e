package simpleasset

import (
	"time"

	"github.com/google/uuid"
)

// ChecksumAlgorithmSHA256 is the only algorithm the library writes today.
// The field exists on Asset so stored rows remain interpretable if the
// algorithm ever changes.
const ChecksumAlgorithmSHA256 = "sha256"

// DefaultMaxPayloadBytes is the decoded-payload size ceiling applied when no
// WithMaxPayloadBytes option is given.
const DefaultMaxPayloadBytes = 10 << 20 // 10 MiB

// Asset is the canonical record of one stored binary object. An asset is
// created by the uploader, immutable afterward except for DeletedAt, which is
// set exactly once at retirement and never cleared.
type Asset struct {
	ID                 uuid.UUID  `json:"id"`
	OwnerID            uuid.UUID  `json:"owner_id,omitempty"` // uuid.Nil for global-pool assets
	Category           string     `json:"category,omitempty"`
	Checksum           string     `json:"checksum"`
	ChecksumAlgorithm  string     `json:"checksum_algorithm,omitempty"`
	PublicURL          string     `json:"public_url"`
	ObjectKey          string     `json:"object_key"`
	StorageBackendName string     `json:"storage_backend_name"`
	MimeType           string     `json:"mime_type,omitempty"`
	ByteSize           int64      `json:"byte_size,omitempty"`
	FileName           string     `json:"file_name,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// Active reports whether the asset has not been tombstoned. Tombstoned assets
// are invisible to reuse lookups.
func (a *Asset) Active() bool {
	return a.DeletedAt == nil
}

// DedupScope is the boundary within which checksum uniqueness is enforced:
// either all assets of one owner, or a single shared pool. The repository's
// uniqueness constraint is keyed on this scope, so two owners may hold active
// assets with identical content while a global pool holds at most one.
type DedupScope struct {
	OwnerID uuid.UUID
	Global  bool
}

// PerOwnerScope returns a scope that dedups within one owner's assets.
func PerOwnerScope(ownerID uuid.UUID) DedupScope {
	return DedupScope{OwnerID: ownerID}
}

// GlobalPoolScope returns the shared content pool scope.
func GlobalPoolScope() DedupScope {
	return DedupScope{Global: true}
}

// ScopeOwnerID returns the owner id stored on assets created in this scope.
// Global-pool assets carry uuid.Nil.
func (s DedupScope) ScopeOwnerID() uuid.UUID {
	if s.Global {
		return uuid.Nil
	}
	return s.OwnerID
}

// SlotPayload is the sealed payload union of a DocumentSlot: either a
// reference to an already-stored asset or inline content to be deduplicated
// and uploaded. Resolution branches on the concrete type exhaustively; there
// is no string sniffing past ParseSlotPayload.
type SlotPayload interface {
	isSlotPayload()
}

// ExistingReference points at an active asset already reachable in the
// resolution's scope, identified by its public URL.
type ExistingReference struct {
	PublicURL string
}

func (ExistingReference) isSlotPayload() {}

// InlineContent carries new raw bytes to be deduplicated by checksum and
// uploaded on a cache miss. MimeType and FileName are hints; MimeType is
// sniffed from the bytes when empty.
type InlineContent struct {
	Data     []byte
	MimeType string
	FileName string
}

func (InlineContent) isSlotPayload() {}

// DocumentSlot is one desired logical reference for an owning entity, e.g.
// ("passport", inline PDF bytes) or ("banner", existing URL).
type DocumentSlot struct {
	SlotType string
	Payload  SlotPayload
}

// ResolvedSlot pairs a slot type with the asset that backs it. The same shape
// describes an owner's pre-resolution state (ExistingSlots) and the final
// mapping a resolution produces.
type ResolvedSlot struct {
	SlotType string    `json:"slot_type"`
	AssetID  uuid.UUID `json:"asset_id"`
}

// CleanupFailure records one remote deletion that failed after the asset's
// tombstone had already committed. The metadata tombstone stands; the remote
// object is left for later reconciliation.
type CleanupFailure struct {
	AssetID   uuid.UUID `json:"asset_id"`
	Backend   string    `json:"backend"`
	ObjectKey string    `json:"object_key"`
	Err       error     `json:"-"`
}

// RetirementResult reports which assets were tombstoned and which remote
// deletions failed.
type RetirementResult struct {
	TombstonedIDs   []uuid.UUID
	CleanupFailures []CleanupFailure
}

// PartialFailure reports whether any remote deletion failed.
func (r *RetirementResult) PartialFailure() bool {
	return len(r.CleanupFailures) > 0
}

// ResolveResult is the outcome of one resolution: the final slot mapping plus
// the retirement outcome for assets the owner no longer references.
type ResolveResult struct {
	Slots           []ResolvedSlot
	RetiredAssetIDs []uuid.UUID
	CleanupFailures []CleanupFailure
}
