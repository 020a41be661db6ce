// Package trading folds validated transactions into per-ticker positions:
// validation, the pre-trade feasibility check, the position recalculator and
// the Engine that runs them as one critical section per ticker.
package trading

import (
	"context"

	"position-ledger/internal/models"
)

// PositionLookup reads the current position of a ticker. It returns nil
// when the ticker has no position.
type PositionLookup interface {
	Get(ctx context.Context, ticker string) (*models.Position, error)
}

// PositionLookupFunc adapts a function to PositionLookup.
type PositionLookupFunc func(ctx context.Context, ticker string) (*models.Position, error)

// Get calls f.
func (f PositionLookupFunc) Get(ctx context.Context, ticker string) (*models.Position, error) {
	return f(ctx, ticker)
}

// snapshot returns a lookup answering with an already-read position.
func snapshot(p *models.Position) PositionLookup {
	return PositionLookupFunc(func(context.Context, string) (*models.Position, error) {
		return p, nil
	})
}
