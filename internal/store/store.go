// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"position-ledger/internal/models"
)

// PositionStore is the key-value collaborator holding one Position per
// ticker. Implementations own their retry policy; callers never retry.
type PositionStore interface {
	// Get returns the position for ticker, or nil when none exists.
	Get(ctx context.Context, ticker string) (*models.Position, error)
	// Put inserts or replaces a position.
	Put(ctx context.Context, position models.Position) error
	// Delete removes the position for ticker. Deleting an absent ticker is not an error.
	Delete(ctx context.Context, ticker string) error
	// List returns all positions ordered by ticker.
	List(ctx context.Context) ([]models.Position, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
