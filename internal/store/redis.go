package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/babylon/sim-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Finished games are immutable, so cached entries are never stale;
// the TTL only bounds memory use.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// SaveGame writes to the primary store and pre-warms the cache.
func (s *CachedStore) SaveGame(ctx context.Context, rec *model.GameRecord) error {
	if err := s.primary.SaveGame(ctx, rec); err != nil {
		return err
	}
	s.cacheGame(ctx, rec)
	return nil
}

// GetGame checks the cache first, then falls back to the primary.
func (s *CachedStore) GetGame(ctx context.Context, id string) (*model.GameRecord, error) {
	data, err := s.rdb.Get(ctx, gameKey(id)).Bytes()
	if err == nil {
		var rec model.GameRecord
		if json.Unmarshal(data, &rec) == nil {
			return &rec, nil
		}
	}

	rec, err := s.primary.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheGame(ctx, rec)
	return rec, nil
}

// ListGames is not cached: the list changes with every saved game.
func (s *CachedStore) ListGames(ctx context.Context, limit int) ([]model.GameRecord, error) {
	return s.primary.ListGames(ctx, limit)
}

// GetEvents checks the cache first, then falls back to the primary.
func (s *CachedStore) GetEvents(ctx context.Context, gameID string) ([]model.Event, error) {
	data, err := s.rdb.Get(ctx, eventsKey(gameID)).Bytes()
	if err == nil {
		var events []model.Event
		if json.Unmarshal(data, &events) == nil {
			return events, nil
		}
	}

	events, err := s.primary.GetEvents(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(events); err == nil {
		s.rdb.Set(ctx, eventsKey(gameID), data, s.ttl)
	}
	return events, nil
}

func (s *CachedStore) cacheGame(ctx context.Context, rec *model.GameRecord) {
	if data, err := json.Marshal(rec); err == nil {
		s.rdb.Set(ctx, gameKey(rec.ID), data, s.ttl)
	}
}

func gameKey(id string) string   { return fmt.Sprintf("game:%s", id) }
func eventsKey(id string) string { return fmt.Sprintf("events:%s", id) }
