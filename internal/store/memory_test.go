package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/babylon/sim-engine/internal/model"
)

func sampleRecord(id string) *model.GameRecord {
	return &model.GameRecord{
		ID:            id,
		Question:      "SIM-election-POLITICS-20261103",
		Seed:          42,
		NumAgents:     10,
		Duration:      30,
		Outcome:       true,
		FinalPriceYes: decimal.NewFromFloat(0.82),
		TotalVolume:   decimal.NewFromInt(2100),
		EventCount:    2,
		CreatedAt:     time.Now().UTC(),
		Result: &model.GameResult{
			Question: "SIM-election-POLITICS-20261103",
			Outcome:  true,
			Events: []model.Event{
				{Seq: 0, Type: model.EventGameStarted, Payload: model.GameStartedPayload{
					Question: "SIM-election-POLITICS-20261103", NumAgents: 10, Duration: 30,
					Liquidity: decimal.NewFromInt(150), ClueCount: 21,
				}},
				{Seq: 1, Type: model.EventGameEnded, Day: 30, Timestamp: 1, Payload: model.GameEndedPayload{
					Winners: []string{"agent-001"}, Losers: []string{},
					FinalPriceYes: decimal.NewFromFloat(0.82), TotalVolume: decimal.NewFromInt(2100),
				}},
			},
		},
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SaveGame(ctx, sampleRecord("g1")); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec, err := s.GetGame(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Question != "SIM-election-POLITICS-20261103" {
		t.Errorf("unexpected question %s", rec.Question)
	}
	if rec.Result == nil || len(rec.Result.Events) != 2 {
		t.Error("full result should round-trip through the store")
	}
}

func TestMemoryStore_DuplicateRejected(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SaveGame(ctx, sampleRecord("g1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveGame(ctx, sampleRecord("g1")); err == nil {
		t.Error("expected error saving a duplicate game ID")
	}
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.GetGame(context.Background(), "missing"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}
	if _, err := s.GetEvents(context.Background(), "missing"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"g1", "g2", "g3"} {
		if err := s.SaveGame(ctx, sampleRecord(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	games, err := s.ListGames(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 3 {
		t.Fatalf("expected 3 games, got %d", len(games))
	}
	if games[0].ID != "g3" || games[2].ID != "g1" {
		t.Errorf("expected newest first, got %s..%s", games[0].ID, games[2].ID)
	}
	if games[0].Result != nil {
		t.Error("list summaries must omit the full result")
	}

	limited, err := s.ListGames(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestMemoryStore_GetEvents(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SaveGame(ctx, sampleRecord("g1")); err != nil {
		t.Fatalf("save: %v", err)
	}

	events, err := s.GetEvents(ctx, "g1")
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != model.EventGameStarted || events[1].Type != model.EventGameEnded {
		t.Error("events out of order")
	}
}
