// Package api provides the HTTP handlers for running simulations and
// querying finished games.
//
// All monetary values use shopspring/decimal — never float64 for money.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/babylon/sim-engine/internal/metrics"
	"github.com/babylon/sim-engine/internal/model"
	"github.com/babylon/sim-engine/internal/question"
	"github.com/babylon/sim-engine/internal/risk"
	"github.com/babylon/sim-engine/internal/sim"
	"github.com/babylon/sim-engine/internal/store"
)

// Service handles game operations. A mutex serializes runs so a burst of
// requests cannot saturate the host; individual games share no state.
type Service struct {
	store   store.Store
	limiter *risk.Limiter
	mu      sync.Mutex
	wsHub   *WSHub // optional WebSocket hub for live event broadcasts
}

// NewService creates a new game service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, limiter *risk.Limiter, hub *WSHub) *Service {
	return &Service{
		store:   st,
		limiter: limiter,
		wsHub:   hub,
	}
}

// --- Request types ---

// CreateGameRequest is the JSON body for POST /api/v1/games.
type CreateGameRequest struct {
	Question          string          `json:"question"` // SIM-{topic}-{category}-{date}
	Outcome           bool            `json:"outcome"`
	NumAgents         int             `json:"num_agents"`
	Duration          int             `json:"duration"`            // 0 → default 30
	Liquidity         decimal.Decimal `json:"liquidity"`           // 0 → derived from game size
	InsiderPercentage float64         `json:"insider_percentage"`  // 0 → default 0.3
	Endowment         decimal.Decimal `json:"endowment,omitempty"` // 0 → default 1000
	Seed              int64           `json:"seed"`                // 0 → server-assigned
}

// --- HTTP Handlers ---

// CreateGame handles POST /api/v1/games.
// Runs the full simulation synchronously and returns the persisted record.
func (s *Service) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Validate ticker format.
	if _, err := question.ParseTicker(req.Question); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cfg := model.GameConfig{
		Question:           req.Question,
		Outcome:            req.Outcome,
		NumAgents:          req.NumAgents,
		Duration:           req.Duration,
		LiquidityParameter: req.Liquidity,
		InsiderPercentage:  req.InsiderPercentage,
		Endowment:          req.Endowment,
		Seed:               seed,
	}

	// Without an explicit b, size liquidity to the expected betting flow.
	if cfg.LiquidityParameter.IsZero() && req.NumAgents > 0 {
		duration := cfg.Duration
		if duration == 0 {
			duration = model.DefaultDuration
		}
		b, err := question.DeriveLiquidity(req.NumAgents, duration, decimal.NewFromInt(100))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		cfg.LiquidityParameter = b
	}

	// Serialize runs.
	s.mu.Lock()
	defer s.mu.Unlock()

	gameID := uuid.New().String()

	game, err := sim.NewGame(cfg, sim.WithLimiter(s.limiter))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	game.OnAny(func(e model.Event) {
		metrics.EventsEmitted.WithLabelValues(string(e.Type)).Inc()
		if bet, ok := e.Payload.(model.AgentBetPayload); ok {
			metrics.BetsTotal.WithLabelValues(bet.Side).Inc()
		}
		if s.wsHub != nil {
			s.wsHub.Broadcast(WSMessage{
				Type:    string(e.Type),
				GameID:  gameID,
				Seq:     e.Seq,
				Day:     e.Day,
				Payload: e.Payload,
			})
		}
	})

	start := time.Now()
	result, err := game.Run()
	if err != nil {
		writeError(w, "simulation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	elapsed := time.Since(start)

	metrics.GamesTotal.WithLabelValues(outcomeLabel(result.Outcome)).Inc()
	metrics.GameDuration.Observe(elapsed.Seconds())

	rec := &model.GameRecord{
		ID:            gameID,
		Question:      cfg.Question,
		Seed:          seed,
		NumAgents:     cfg.NumAgents,
		Duration:      game.Config().Duration,
		Outcome:       result.Outcome,
		FinalPriceYes: result.Market.PriceYes,
		TotalVolume:   result.Market.TotalVolume,
		EventCount:    len(result.Events),
		CreatedAt:     time.Now().UTC(),
		Result:        result,
	}

	if err := s.store.SaveGame(r.Context(), rec); err != nil {
		writeError(w, "failed to persist game", http.StatusInternalServerError)
		return
	}

	slog.Info("game completed",
		"id", gameID,
		"question", cfg.Question,
		"agents", cfg.NumAgents,
		"events", len(result.Events),
		"winners", len(result.Winners),
		"final_price_yes", result.Market.PriceYes.String(),
		"elapsed", elapsed,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rec)
}

// GetGame handles GET /api/v1/games/{gameID}.
func (s *Service) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	rec, err := s.store.GetGame(r.Context(), gameID)
	if err != nil {
		writeError(w, "game not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// ListGames handles GET /api/v1/games.
// Returns summaries, newest first, optionally capped by ?limit=<n>.
func (s *Service) ListGames(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	games, err := s.store.ListGames(r.Context(), limit)
	if err != nil {
		writeError(w, "failed to list games", http.StatusInternalServerError)
		return
	}
	if games == nil {
		games = []model.GameRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(games)
}

// GetEvents handles GET /api/v1/games/{gameID}/events.
// Returns the full ordered event log of a finished game.
func (s *Service) GetEvents(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	events, err := s.store.GetEvents(r.Context(), gameID)
	if err != nil {
		writeError(w, "game not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// GetAgents handles GET /api/v1/games/{gameID}/agents.
// Returns the frozen final agent population.
func (s *Service) GetAgents(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	rec, err := s.store.GetGame(r.Context(), gameID)
	if err != nil || rec.Result == nil {
		writeError(w, "game not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec.Result.Agents)
}

func outcomeLabel(outcome bool) string {
	if outcome {
		return "yes"
	}
	return "no"
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
