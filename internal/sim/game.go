package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/babylon/sim-engine/internal/agent"
	"github.com/babylon/sim-engine/internal/clue"
	"github.com/babylon/sim-engine/internal/lmsr"
	"github.com/babylon/sim-engine/internal/model"
	"github.com/babylon/sim-engine/internal/risk"
)

var (
	// ErrGameEnded is returned for any trade or run attempt after the
	// game has resolved. A resolved game is immutable.
	ErrGameEnded = errors.New("sim: game has ended; no further actions accepted")

	// ErrAlreadyStarted is returned when Run is called on a running game.
	ErrAlreadyStarted = errors.New("sim: game already started")

	// ErrNotRunning is returned for trades against a game that has not
	// started yet.
	ErrNotRunning = errors.New("sim: game is not running")

	// ErrUnknownAgent is returned for trades naming an agent outside the
	// population.
	ErrUnknownAgent = errors.New("sim: unknown agent")

	// ErrInsufficientBalance is returned when a bet's charge exceeds the
	// agent's remaining balance.
	ErrInsufficientBalance = errors.New("sim: insufficient balance")
)

// gameState is the scheduler state machine. Transitions are strictly
// sequential: NotStarted → Running → Resolving → Ended.
type gameState int

const (
	stateNotStarted gameState = iota
	stateRunning
	stateResolving
	stateEnded
)

// Option customizes game construction.
type Option func(*Game)

// WithLimiter installs per-agent exposure limits on the bet path.
func WithLimiter(l *risk.Limiter) Option {
	return func(g *Game) { g.limiter = l }
}

// WithLogger replaces the default logger. The core logs only absorbed
// agent-level warnings; it never logs the hidden outcome before resolution.
func WithLogger(l *slog.Logger) Option {
	return func(g *Game) { g.log = l }
}

// Game is a single simulation run. All state is owned by the scheduler and
// advanced from one goroutine; observers attach through the event bus.
type Game struct {
	cfg model.GameConfig
	rng *rand.Rand
	mm  *lmsr.MarketMaker

	market model.MarketState
	agents []*model.Agent

	// agentIDs and insiderIDs are held in ascending order so every per-day
	// iteration is stable across runs.
	agentIDs   []string
	insiderIDs []string

	clues       []model.Clue
	distributor *clue.Distributor

	// knowledge resolves each agent's known clue IDs to full clues for the
	// decision step.
	knowledge map[string][]model.Clue

	bus     *Bus
	limiter *risk.Limiter
	log     *slog.Logger

	state gameState
	day   int
	seq   int
	clock int64
}

// NewGame validates the configuration and builds all simulation state: the
// market maker, the agent population, and the immutable clue pool. Invalid
// input fails here, before any state exists; a constructed game never
// raises a configuration error again.
func NewGame(cfg model.GameConfig, opts ...Option) (*Game, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mm, err := lmsr.NewMarketMaker(cfg.LiquidityParameter)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		mm:  mm,
		bus: NewBus(),
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.market = model.MarketState{
		QYes:        decimal.Zero,
		QNo:         decimal.Zero,
		PriceYes:    mm.Price(decimal.Zero, decimal.Zero),
		PriceNo:     mm.PriceNo(decimal.Zero, decimal.Zero),
		TotalVolume: decimal.Zero,
	}

	g.buildPopulation()

	g.clues = clue.BuildNetwork(cfg, g.rng)
	g.distributor = clue.NewDistributor(g.clues, cfg.Duration)
	g.knowledge = make(map[string][]model.Clue, cfg.NumAgents)

	return g, nil
}

// buildPopulation creates the agents and assigns insider roles to a random
// (seeded) subset sized by the configured percentage.
func (g *Game) buildPopulation() {
	n := g.cfg.NumAgents
	numInsiders := int(math.Round(g.cfg.InsiderPercentage * float64(n)))
	if numInsiders > n {
		numInsiders = n
	}

	insider := make(map[int]bool, numInsiders)
	for _, idx := range g.rng.Perm(n)[:numInsiders] {
		insider[idx] = true
	}

	g.agents = make([]*model.Agent, 0, n)
	for i := 0; i < n; i++ {
		role := model.RoleOutsider
		if insider[i] {
			role = model.RoleInsider
		}
		a := &model.Agent{
			ID:          fmt.Sprintf("agent-%03d", i+1),
			Role:        role,
			Balance:     g.cfg.Endowment,
			PositionYes: decimal.Zero,
			PositionNo:  decimal.Zero,
			TotalSpent:  decimal.Zero,
			FinalPnL:    decimal.Zero,
		}
		g.agents = append(g.agents, a)
		g.agentIDs = append(g.agentIDs, a.ID)
		if insider[i] {
			g.insiderIDs = append(g.insiderIDs, a.ID)
		}
	}
}

// On subscribes a handler to one event type for live observation.
func (g *Game) On(t model.EventType, h Handler) {
	g.bus.On(t, h)
}

// OnAny subscribes a handler to every event.
func (g *Game) OnAny(h Handler) {
	g.bus.OnAny(h)
}

// Events returns a copy of the event log emitted so far.
func (g *Game) Events() []model.Event {
	return g.bus.Events()
}

// Market returns a snapshot of the current market state.
func (g *Game) Market() model.MarketState {
	return g.market
}

// Config returns the normalized configuration the game was built with.
func (g *Game) Config() model.GameConfig {
	return g.cfg
}

// Run executes the game start to finish and returns the settlement. It is
// synchronous; no partial results are returned mid-run. Once started with
// valid configuration the loop never fails for agent-level reasons — only
// a broken pricing invariant aborts it.
func (g *Game) Run() (*model.GameResult, error) {
	switch g.state {
	case stateEnded:
		return nil, ErrGameEnded
	case stateRunning, stateResolving:
		return nil, ErrAlreadyStarted
	}
	g.state = stateRunning

	start := g.clock
	g.emit(model.EventGameStarted, 0, model.GameStartedPayload{
		Question:  g.cfg.Question,
		NumAgents: g.cfg.NumAgents,
		Duration:  g.cfg.Duration,
		Liquidity: g.cfg.LiquidityParameter,
		ClueCount: len(g.clues),
	})

	for day := 1; day <= g.cfg.Duration; day++ {
		if err := g.runDay(day); err != nil {
			return nil, err
		}
	}

	g.state = stateResolving
	result := g.resolve(start)
	g.state = stateEnded
	return result, nil
}

// runDay executes one day in the fixed order the history depends on:
// day marker, clue distribution, agent decisions (ascending agent ID),
// then the periodic social checkpoint.
func (g *Game) runDay(day int) error {
	g.day = day
	g.emit(model.EventDayChanged, day, model.DayChangedPayload{Day: day})

	newClue := g.distributeClues(day)

	for _, a := range g.agents {
		snapshot := g.market
		act, err := agent.Decide(a, g.knowledge[a.ID], snapshot, day, g.cfg.Duration, newClue[a.ID], g.rng)
		if err != nil {
			// Agent-level failure: absorbed as a Hold, run continues.
			g.log.Warn("agent decision failed; holding",
				"agent", a.ID, "day", day, "err", err)
			continue
		}
		if act.Type != agent.Bet {
			continue
		}
		if err := g.executeBet(a, act, day); err != nil {
			return err
		}
	}

	if day%g.cfg.PostInterval == 0 {
		g.emit(model.EventAgentPost, day, model.AgentPostPayload{
			Day:         day,
			PriceYes:    g.market.PriceYes,
			TotalVolume: g.market.TotalVolume,
			BetsToDate:  g.totalBets(),
		})
	}

	return nil
}

// distributeClues releases the day's due clues and updates agent knowledge.
// It returns the set of agents who learned something today.
func (g *Game) distributeClues(day int) map[string]bool {
	newClue := make(map[string]bool)

	for _, dist := range g.distributor.Release(day, g.insiderIDs, g.agentIDs, g.rng) {
		for _, id := range dist.Recipients {
			newClue[id] = true
		}
		g.recordKnowledge(dist)
		g.emit(model.EventClueDistributed, day, model.ClueDistributedPayload{
			ClueID:      dist.Clue.ID,
			Reliability: dist.Clue.Reliability,
			Signal:      dist.Clue.Signal,
			Audience:    dist.Clue.Audience,
			Recipients:  dist.Recipients,
		})
	}

	return newClue
}

func (g *Game) recordKnowledge(dist clue.Distribution) {
	for _, a := range g.agents {
		for _, id := range dist.Recipients {
			if a.ID == id {
				a.KnownClues = append(a.KnownClues, dist.Clue.ID)
				g.knowledge[a.ID] = append(g.knowledge[a.ID], dist.Clue)
			}
		}
	}
}

// executeBet runs a scheduler bet through the risk limiter and the pricing
// engine. Limit breaches and rejected quantities downgrade to Hold; a
// numeric instability in the pricing engine is fatal and aborts the run.
func (g *Game) executeBet(a *model.Agent, act agent.Action, day int) error {
	exposureDelta := act.Amount
	if act.Side == model.SideNo {
		exposureDelta = act.Amount.Neg()
	}
	if err := g.limiter.CheckBet(a.NetPosition(), exposureDelta); err != nil {
		g.log.Warn("bet rejected by risk limits; holding",
			"agent", a.ID, "day", day, "err", err)
		return nil
	}

	if _, err := g.applyBet(a, act.Side, act.Amount, day); err != nil {
		if errors.Is(err, lmsr.ErrNumericInstability) {
			return fmt.Errorf("sim: day %d agent %s: %w", day, a.ID, err)
		}
		g.log.Warn("bet rejected; holding", "agent", a.ID, "day", day, "err", err)
		return nil
	}
	return nil
}

// applyBet prices a buy, checks affordability, commits market and agent
// state, and emits the agent:bet / market:updated pair. Every committed bet
// goes through here, so the event log records every market mutation.
func (g *Game) applyBet(a *model.Agent, side string, amount decimal.Decimal, day int) (decimal.Decimal, error) {
	cost, next, err := g.mm.Trade(g.market, side, amount)
	if err != nil {
		return decimal.Zero, err
	}

	// Prices are strictly below 1, so the charge for N shares is below N;
	// the decision step already clamped the amount to the balance.
	if cost.GreaterThan(a.Balance) {
		return decimal.Zero, ErrInsufficientBalance
	}

	fill := cost.Div(amount).Round(lmsr.PriceScale)

	g.market = next
	if side == model.SideYes {
		a.PositionYes = a.PositionYes.Add(amount)
	} else {
		a.PositionNo = a.PositionNo.Add(amount)
	}
	a.Balance = a.Balance.Sub(cost)
	a.TotalSpent = a.TotalSpent.Add(cost)
	a.BetsPlaced++
	a.LastActionDay = day

	g.emit(model.EventAgentBet, day, model.AgentBetPayload{
		AgentID:   a.ID,
		Side:      side,
		Amount:    amount,
		Cost:      cost,
		FillPrice: fill,
	})
	g.emit(model.EventMarketUpdated, day, model.MarketUpdatedPayload{
		QYes:        g.market.QYes,
		QNo:         g.market.QNo,
		PriceYes:    g.market.PriceYes,
		PriceNo:     g.market.PriceNo,
		TotalVolume: g.market.TotalVolume,
	})

	return cost, nil
}

// resolve reveals the outcome, settles every agent, and freezes the game.
func (g *Game) resolve(start int64) *model.GameResult {
	duration := g.cfg.Duration
	outcome := g.cfg.Outcome

	g.emit(model.EventOutcomeRevealed, duration, model.OutcomeRevealedPayload{
		Outcome: outcome,
	})

	winners := make([]string, 0)
	losers := make([]string, 0)

	for _, a := range g.agents {
		// Each share on the realized side pays out 1 unit.
		payout := a.PositionNo
		if outcome {
			payout = a.PositionYes
		}
		a.FinalPnL = payout.Sub(a.TotalSpent)
		a.Balance = a.Balance.Add(payout)

		net := a.NetPosition()
		switch {
		case net.IsZero():
			// Net-flat agents are neither winners nor losers.
		case (net.IsPositive() && outcome) || (net.IsNegative() && !outcome):
			a.Reputation += 10
			winners = append(winners, a.ID)
		default:
			a.Reputation -= 5
			losers = append(losers, a.ID)
		}
	}

	g.emit(model.EventGameEnded, duration, model.GameEndedPayload{
		Winners:       winners,
		Losers:        losers,
		FinalPriceYes: g.market.PriceYes,
		TotalVolume:   g.market.TotalVolume,
	})

	agents := make([]model.Agent, 0, len(g.agents))
	for _, a := range g.agents {
		agents = append(agents, *a)
	}

	return &model.GameResult{
		Question:  g.cfg.Question,
		Outcome:   outcome,
		Events:    g.bus.Events(),
		Agents:    agents,
		Market:    g.market,
		Winners:   winners,
		Losers:    losers,
		StartTime: start,
		EndTime:   g.clock,
	}
}

// Trade executes an external buy for an agent while the game is running. It
// goes through the same committed-bet path as the scheduler, so it emits the
// same agent:bet / market:updated pair and honors the risk limits and the
// balance check. In every other state it rejects without touching market or
// agent state.
func (g *Game) Trade(agentID, side string, amount decimal.Decimal) (decimal.Decimal, error) {
	switch g.state {
	case stateRunning:
	case stateNotStarted:
		return decimal.Zero, ErrNotRunning
	default:
		return decimal.Zero, ErrGameEnded
	}

	var target *model.Agent
	for _, a := range g.agents {
		if a.ID == agentID {
			target = a
			break
		}
	}
	if target == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownAgent, agentID)
	}

	exposureDelta := amount
	if side == model.SideNo {
		exposureDelta = amount.Neg()
	}
	if err := g.limiter.CheckBet(target.NetPosition(), exposureDelta); err != nil {
		return decimal.Zero, err
	}

	return g.applyBet(target, side, amount, g.day)
}

func (g *Game) totalBets() int {
	total := 0
	for _, a := range g.agents {
		total += a.BetsPlaced
	}
	return total
}

// emit stamps an event with its sequence and logical timestamp and sends
// it to the bus.
func (g *Game) emit(t model.EventType, day int, p model.Payload) {
	e := model.Event{
		Seq:       g.seq,
		Type:      t,
		Day:       day,
		Timestamp: g.clock,
		Payload:   p,
	}
	g.seq++
	g.clock++
	g.bus.Emit(e)
}
