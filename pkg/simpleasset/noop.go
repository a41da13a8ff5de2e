package simpleasset

import (
	"context"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// AssetCreated does nothing and returns nil
func (n *NoopEventSink) AssetCreated(ctx context.Context, asset *Asset) error {
	return nil
}

// AssetReused does nothing and returns nil
func (n *NoopEventSink) AssetReused(ctx context.Context, asset *Asset) error {
	return nil
}

// AssetRetired does nothing and returns nil
func (n *NoopEventSink) AssetRetired(ctx context.Context, assetID uuid.UUID) error {
	return nil
}
