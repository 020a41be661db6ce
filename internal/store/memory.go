package store

import (
	"context"
	"sort"
	"sync"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/models"
)

// MemoryStore implements PositionStore in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	positions map[string]models.Position
	closed    bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		positions: make(map[string]models.Position),
	}
}

// Get returns a copy of the stored position, or nil.
func (s *MemoryStore) Get(ctx context.Context, ticker string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, lerrors.NewStoreError("get", ticker, lerrors.New("store closed"))
	}
	p, ok := s.positions[ticker]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Put inserts or replaces a position.
func (s *MemoryStore) Put(ctx context.Context, position models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lerrors.NewStoreError("put", position.Ticker, lerrors.New("store closed"))
	}
	s.positions[position.Ticker] = position
	return nil
}

// Delete removes a position.
func (s *MemoryStore) Delete(ctx context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lerrors.NewStoreError("delete", ticker, lerrors.New("store closed"))
	}
	delete(s.positions, ticker)
	return nil
}

// List returns all positions ordered by ticker.
func (s *MemoryStore) List(ctx context.Context) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, lerrors.NewStoreError("list", "", lerrors.New("store closed"))
	}
	positions := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Ticker < positions[j].Ticker
	})
	return positions, nil
}

// Ping fails once the store is closed.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return lerrors.NewStoreError("ping", "", lerrors.New("store closed"))
	}
	return nil
}

// Close marks the store closed; later calls fail with ErrStoreUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
