// Package agent implements the per-day decision process of one simulated
// trader: tally the signals it has seen, lean with the majority, and bet a
// randomized amount within a fixed band.
package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/babylon/sim-engine/internal/model"
)

// ErrCorruptKnowledge indicates the agent's knowledge set contains an
// invalid clue. The scheduler recovers locally: the agent holds for the day.
var ErrCorruptKnowledge = errors.New("agent: corrupt knowledge set")

// Bet sizing band (shares). Bet size is deliberately independent of
// conviction strength: conviction decides whether to bet and which side,
// not magnitude.
var (
	MinBet = decimal.NewFromInt(50)
	MaxBet = decimal.NewFromInt(150)
)

// ActionType distinguishes holding from betting.
type ActionType int

const (
	Hold ActionType = iota
	Bet
)

// Action is the outcome of one agent decision.
type Action struct {
	Type   ActionType
	Side   string
	Amount decimal.Decimal
}

// ReconsiderInterval returns how many days an agent waits between
// spontaneous position reviews. Betting frequency rises over the horizon:
// roughly every 5 days early, every 3 mid-game, every 2 near resolution.
func ReconsiderInterval(day, duration int) int {
	switch {
	case day*3 <= duration:
		return 5
	case day*3 <= duration*2:
		return 3
	default:
		return 2
	}
}

// Decide runs one agent's daily decision. newClue reports whether the agent
// received information today; that always triggers a review. Otherwise the
// agent reviews with probability 1/interval, drawn from the game's single
// seeded random source so runs stay reproducible.
//
// The market state is a read-only snapshot; executing a resulting Bet is
// the scheduler's job.
func Decide(a *model.Agent, known []model.Clue, market model.MarketState, day, duration int, newClue bool, rng *rand.Rand) (Action, error) {
	if err := validateKnowledge(known); err != nil {
		return Action{Type: Hold}, err
	}

	// An agent out of funds can only hold.
	if a.Balance.LessThanOrEqual(decimal.Zero) {
		return Action{Type: Hold}, nil
	}

	interval := ReconsiderInterval(day, duration)
	if !newClue && rng.Float64() >= 1.0/float64(interval) {
		return Action{Type: Hold}, nil
	}

	side, ok := majoritySide(known)
	if !ok {
		return Action{Type: Hold}, nil
	}

	// Uniform amount in [MinBet, MaxBet], clamped to remaining balance.
	span := int(MaxBet.Sub(MinBet).IntPart()) + 1
	amount := MinBet.Add(decimal.NewFromInt(int64(rng.Intn(span))))
	if amount.GreaterThan(a.Balance) {
		amount = a.Balance
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return Action{Type: Hold}, nil
	}

	return Action{Type: Bet, Side: side, Amount: amount}, nil
}

// majoritySide tallies signals across the knowledge set. Ties, and empty
// knowledge, produce no lean.
func majoritySide(known []model.Clue) (string, bool) {
	yes, no := 0, 0
	for _, c := range known {
		if c.Signal {
			yes++
		} else {
			no++
		}
	}
	switch {
	case yes > no:
		return model.SideYes, true
	case no > yes:
		return model.SideNo, true
	default:
		return "", false
	}
}

func validateKnowledge(known []model.Clue) error {
	for _, c := range known {
		if c.ID == "" || c.Reliability <= 0 || c.Reliability > 1 || c.Day < 1 {
			return fmt.Errorf("%w: clue %q day=%d reliability=%v",
				ErrCorruptKnowledge, c.ID, c.Day, c.Reliability)
		}
	}
	return nil
}
