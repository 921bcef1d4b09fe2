// Package store defines the persistence interface for finished games.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/babylon/sim-engine/internal/model"
)

// ErrGameNotFound is returned by reads for an unknown game ID.
var ErrGameNotFound = errors.New("store: game not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer. A game is written exactly once,
// after its run completes, and is immutable afterwards.
type Store interface {
	// SaveGame persists a finished game, including its full result.
	SaveGame(ctx context.Context, rec *model.GameRecord) error

	// GetGame retrieves a game with its full result by ID.
	GetGame(ctx context.Context, id string) (*model.GameRecord, error)

	// ListGames returns summaries (Result omitted) of the most recent games,
	// newest first. limit <= 0 means no limit.
	ListGames(ctx context.Context, limit int) ([]model.GameRecord, error)

	// GetEvents returns the ordered event log of a game.
	GetEvents(ctx context.Context, gameID string) ([]model.Event, error)
}
