package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/babylon/sim-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]*model.GameRecord

	// order keeps insertion order so ListGames can return newest first
	// without depending on map iteration.
	order []string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]*model.GameRecord),
	}
}

func (s *MemoryStore) SaveGame(_ context.Context, rec *model.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[rec.ID]; exists {
		return fmt.Errorf("store: game %s already exists", rec.ID)
	}

	// Store a copy to avoid external mutation.
	cp := *rec
	s.games[rec.ID] = &cp
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *MemoryStore) GetGame(_ context.Context, id string) (*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) ListGames(_ context.Context, limit int) ([]model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]model.GameRecord, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(games) == limit {
			break
		}
		cp := *s.games[s.order[i]]
		cp.Result = nil
		games = append(games, cp)
	}
	return games, nil
}

func (s *MemoryStore) GetEvents(_ context.Context, gameID string) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.games[gameID]
	if !ok || rec.Result == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	events := make([]model.Event, len(rec.Result.Events))
	copy(events, rec.Result.Events)
	return events, nil
}
