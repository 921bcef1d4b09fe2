// Package model defines the core domain types shared across the simulation
// engine. All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Agent roles. Insiders receive clues before the general population.
const (
	RoleInsider  = "insider"
	RoleOutsider = "outsider"
)

// Market sides for a binary outcome.
const (
	SideYes = "YES"
	SideNo  = "NO"
)

// Clue audiences.
const (
	AudienceInsider = "insider"
	AudienceAll     = "all"
)

// Configuration errors, raised once at game construction. A game whose
// config fails validation never creates any simulation state.
var (
	ErrInvalidNumAgents  = errors.New("model: numAgents must be >= 1")
	ErrInvalidDuration   = errors.New("model: duration must be >= 1 day")
	ErrInvalidLiquidity  = errors.New("model: liquidity parameter b must be positive")
	ErrInvalidInsiderPct = errors.New("model: insiderPercentage must be in (0, 1)")
)

// Default configuration values applied by Normalize.
var (
	DefaultDuration     = 30
	DefaultLiquidity    = decimal.NewFromInt(150)
	DefaultInsiderPct   = 0.3
	DefaultEndowment    = decimal.NewFromInt(1000)
	DefaultPostInterval = 3
)

// GameConfig is the immutable input to a simulation run. It is created once
// at game start and never mutated afterwards.
//
// Duration, LiquidityParameter, InsiderPercentage, Endowment, and
// PostInterval are optional: a zero value means "use the default" and is
// filled in by Normalize before Validate runs. An explicit zero for any of
// them is indistinguishable from leaving the field unset; none of these
// fields accepts zero as a meaningful value.
type GameConfig struct {
	// Question is the market question ticker this game simulates.
	Question string `json:"question"`

	// Outcome is the hidden ground truth the market resolves to.
	// Agents never observe it directly, only through clue signals.
	Outcome bool `json:"outcome"`

	NumAgents int `json:"num_agents"`

	// Duration is the simulation horizon in days.
	Duration int `json:"duration"`

	// LiquidityParameter is the LMSR b constant. Higher b → flatter price
	// response per traded share.
	LiquidityParameter decimal.Decimal `json:"liquidity_parameter"`

	// InsiderPercentage is the fraction of agents assigned the insider role.
	InsiderPercentage float64 `json:"insider_percentage"`

	// Endowment is the starting virtual balance of every agent.
	Endowment decimal.Decimal `json:"endowment"`

	// PostInterval controls how often (in days) a social-content checkpoint
	// event is emitted for downstream narrative generation.
	PostInterval int `json:"post_interval"`

	// Seed drives the single pseudo-random source injected at construction.
	// Identical config + seed produces a byte-identical event log.
	Seed int64 `json:"seed"`
}

// Normalize fills zero-valued optional fields with defaults (zero means
// "use the default"; see the GameConfig doc). Required fields are left
// alone; Validate reports them.
func (c GameConfig) Normalize() GameConfig {
	if c.Duration == 0 {
		c.Duration = DefaultDuration
	}
	if c.LiquidityParameter.IsZero() {
		c.LiquidityParameter = DefaultLiquidity
	}
	if c.InsiderPercentage == 0 {
		c.InsiderPercentage = DefaultInsiderPct
	}
	if c.Endowment.IsZero() {
		c.Endowment = DefaultEndowment
	}
	if c.PostInterval == 0 {
		c.PostInterval = DefaultPostInterval
	}
	return c
}

// Validate checks the construction contract: numAgents >= 1, duration >= 1,
// b > 0, 0 < insiderPercentage < 1.
func (c GameConfig) Validate() error {
	if c.NumAgents < 1 {
		return ErrInvalidNumAgents
	}
	if c.Duration < 1 {
		return ErrInvalidDuration
	}
	if c.LiquidityParameter.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidLiquidity
	}
	if c.InsiderPercentage <= 0 || c.InsiderPercentage >= 1 {
		return ErrInvalidInsiderPct
	}
	return nil
}

// MarketState is the single shared market for a game. It is owned
// exclusively by the day scheduler; agents reach it only through the
// scheduler's trade-execution call.
type MarketState struct {
	QYes        decimal.Decimal `json:"q_yes"`
	QNo         decimal.Decimal `json:"q_no"`
	PriceYes    decimal.Decimal `json:"price_yes"`
	PriceNo     decimal.Decimal `json:"price_no"`
	TotalVolume decimal.Decimal `json:"total_volume"`
}

// Clue is a single piece of staged, imperfect information about the hidden
// outcome. The pool is generated once at game start and is immutable;
// distribution to agents is tracked separately.
type Clue struct {
	ID string `json:"id"`

	// Day is the simulation day the clue becomes available (1..duration).
	Day int `json:"day"`

	// Reliability is the probability that Signal equals the true outcome.
	Reliability float64 `json:"reliability"`

	// Signal is the side the clue points to: true = YES, false = NO.
	Signal bool `json:"signal"`

	// Audience controls initial visibility: insiders first, then everyone.
	Audience string `json:"audience"`
}

// Agent is one decision-making unit in the population. Created at game
// start, mutated only by its own daily decision step and by trade
// execution, frozen after resolution.
type Agent struct {
	ID   string `json:"id"`
	Role string `json:"role"`

	// KnownClues is the append-only set of clue IDs the agent has seen,
	// in the order they were received.
	KnownClues []string `json:"known_clues"`

	PositionYes decimal.Decimal `json:"position_yes"`
	PositionNo  decimal.Decimal `json:"position_no"`
	BetsPlaced  int             `json:"bets_placed"`

	// Balance is virtual currency; starts at the configured endowment.
	Balance decimal.Decimal `json:"balance"`

	// TotalSpent accumulates LMSR charges across all bets.
	TotalSpent decimal.Decimal `json:"total_spent"`

	// Reputation starts at zero; settlement applies +10 / -5 deltas.
	Reputation int `json:"reputation"`

	// FinalPnL is computed only at resolution: payout minus total spent.
	FinalPnL decimal.Decimal `json:"final_pnl"`

	// LastActionDay is the last day the agent reconsidered its position.
	LastActionDay int `json:"last_action_day"`
}

// NetPosition returns positionYes - positionNo. Its sign against the
// revealed outcome decides winner/loser at settlement.
func (a *Agent) NetPosition() decimal.Decimal {
	return a.PositionYes.Sub(a.PositionNo)
}

// GameResult is the final settlement object produced exactly once per run.
type GameResult struct {
	Question string `json:"question"`
	Outcome  bool   `json:"outcome"`

	// Events is the full ordered log — the canonical history of the run.
	Events []Event `json:"events"`

	// Agents holds the frozen final state of the population.
	Agents []Agent `json:"agents"`

	// Market is the final market snapshot.
	Market MarketState `json:"market"`

	// Winners lists agent IDs whose net position matched the outcome.
	// Agents with net-zero positions belong to neither side.
	Winners []string `json:"winners"`
	Losers  []string `json:"losers"`

	// StartTime and EndTime are logical, simulation-relative clocks.
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
}

// GameRecord wraps a finished run with its server-assigned identity for
// persistence. List endpoints return records with Result omitted; the full
// result (including the event log) is loaded on demand.
type GameRecord struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Seed      int64  `json:"seed"`
	NumAgents int    `json:"num_agents"`
	Duration  int    `json:"duration"`
	Outcome   bool   `json:"outcome"`

	FinalPriceYes decimal.Decimal `json:"final_price_yes"`
	TotalVolume   decimal.Decimal `json:"total_volume"`
	EventCount    int             `json:"event_count"`

	CreatedAt time.Time `json:"created_at"`

	Result *GameResult `json:"result,omitempty"`
}
