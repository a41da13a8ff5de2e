// Package objectkey provides object key generation strategies for blob
// storage backends. Keys are derived from the content checksum so byte
// identical uploads land on the same object, sharded Git-style to keep
// listing-heavy backends fast.
package objectkey

import (
	"fmt"
	"strings"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates an object key for the given content checksum
	GenerateKey(checksum string, metadata *KeyMetadata) string
}

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	OwnerID  string // scope owner; empty or the nil uuid for pool content
	Global   bool   // true for global-pool content
	Category string // e.g. "employee_document", "site_banner"
	FileName string // optional original file name appended for operators
}

// ShardedGenerator produces content-addressed, scope-prefixed keys:
//
//	owners/{owner}/{category}/ab/cdef1234..._filename
//	pool/{category}/ab/cdef1234..._filename
//
// Two owners storing identical bytes get distinct keys, so retiring one
// owner's copy can never delete the other's. Within a scope, identical bytes
// collide on purpose.
type ShardedGenerator struct {
	// ShardLength controls how many checksum characters form the shard
	// directory (default: 2)
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{
		ShardLength: 2,
	}
}

func (g *ShardedGenerator) GenerateKey(checksum string, metadata *KeyMetadata) string {
	shardLen := g.ShardLength
	if shardLen <= 0 || shardLen >= len(checksum) {
		shardLen = 2
	}

	filename := checksum[shardLen:]
	if metadata != nil && metadata.FileName != "" {
		filename = fmt.Sprintf("%s_%s", filename, sanitizeFilename(metadata.FileName))
	}

	category := "uncategorized"
	if metadata != nil && metadata.Category != "" {
		category = sanitizePathComponent(metadata.Category)
	}

	scope := "pool"
	if metadata != nil && !metadata.Global {
		owner := "unowned"
		if metadata.OwnerID != "" {
			owner = sanitizePathComponent(metadata.OwnerID)
		}
		scope = fmt.Sprintf("owners/%s", owner)
	}

	return fmt.Sprintf("%s/%s/%s/%s", scope, category, checksum[:shardLen], filename)
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(checksum string, metadata *KeyMetadata) string
}

func NewCustomFuncGenerator(fn func(checksum string, metadata *KeyMetadata) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(checksum string, metadata *KeyMetadata) string {
	return g.GenerateFunc(checksum, metadata)
}

// Helper functions for path sanitization
func sanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(filename)
}

func sanitizePathComponent(component string) string {
	sanitized := sanitizeFilename(component)
	sanitized = strings.Trim(sanitized, "._")
	if sanitized == "" {
		return "default"
	}
	return strings.ToLower(sanitized)
}
