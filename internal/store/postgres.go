package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/babylon/sim-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Summary columns are stored typed (NUMERIC for monetary values); the full
// result, event log included, is stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SaveGame(ctx context.Context, rec *model.GameRecord) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("store: marshal result for game %s: %w", rec.ID, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO games (id, question, seed, num_agents, duration, outcome,
		                    final_price_yes, total_volume, event_count, created_at, result)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9, $10, $11::JSONB)`,
		rec.ID, rec.Question, rec.Seed, rec.NumAgents, rec.Duration, rec.Outcome,
		rec.FinalPriceYes.String(), rec.TotalVolume.String(),
		rec.EventCount, rec.CreatedAt, result,
	)
	return err
}

func (s *PostgresStore) GetGame(ctx context.Context, id string) (*model.GameRecord, error) {
	var rec model.GameRecord
	var priceYes, volume string
	var result []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, question, seed, num_agents, duration, outcome,
		        final_price_yes::TEXT, total_volume::TEXT,
		        event_count, created_at, result
		 FROM games WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Question, &rec.Seed, &rec.NumAgents, &rec.Duration, &rec.Outcome,
			&priceYes, &volume,
			&rec.EventCount, &rec.CreatedAt, &result)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get game %s: %w", id, err)
	}

	rec.FinalPriceYes, _ = decimal.NewFromString(priceYes)
	rec.TotalVolume, _ = decimal.NewFromString(volume)

	if len(result) > 0 {
		rec.Result = &model.GameResult{}
		if err := json.Unmarshal(result, rec.Result); err != nil {
			return nil, fmt.Errorf("store: unmarshal result for game %s: %w", id, err)
		}
	}
	return &rec, nil
}

func (s *PostgresStore) ListGames(ctx context.Context, limit int) ([]model.GameRecord, error) {
	query := `SELECT id, question, seed, num_agents, duration, outcome,
	                 final_price_yes::TEXT, total_volume::TEXT,
	                 event_count, created_at
	          FROM games ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]model.GameRecord, 0)
	for rows.Next() {
		var rec model.GameRecord
		var priceYes, volume string
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Seed, &rec.NumAgents,
			&rec.Duration, &rec.Outcome,
			&priceYes, &volume,
			&rec.EventCount, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.FinalPriceYes, _ = decimal.NewFromString(priceYes)
		rec.TotalVolume, _ = decimal.NewFromString(volume)
		games = append(games, rec)
	}
	return games, rows.Err()
}

func (s *PostgresStore) GetEvents(ctx context.Context, gameID string) ([]model.Event, error) {
	var data []byte

	err := s.pool.QueryRow(ctx,
		`SELECT result->'events' FROM games WHERE id = $1`, gameID).
		Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get events for game %s: %w", gameID, err)
	}

	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("store: unmarshal events for game %s: %w", gameID, err)
	}
	return events, nil
}
