// Package clue builds and distributes the staged, imperfect information
// network for a game: a fixed pool of clues about the hidden outcome,
// released day by day, insiders first.
package clue

import (
	"fmt"
	"math/rand"

	"github.com/babylon/sim-engine/internal/model"
)

// Reliability bands by horizon third. Reliability is banded-constant:
// every clue in a band carries the band's exact reliability. Signals grow
// more trustworthy as resolution approaches.
const (
	EarlyReliability = 0.70
	MidReliability   = 0.80
	LateReliability  = 0.90
)

// insiderFirstShare is the fraction of clues released to insiders a day
// before the general population. The rest go to everyone immediately.
const insiderFirstShare = 0.7

// PoolSize returns the clue pool size for a horizon: 7 clues per 10 days
// (21 for the standard 30-day game), minimum 1.
func PoolSize(duration int) int {
	n := duration * 7 / 10
	if n < 1 {
		n = 1
	}
	return n
}

// reliabilityFor returns the band reliability for a day within the horizon.
func reliabilityFor(day, duration int) float64 {
	switch {
	case day*3 <= duration:
		return EarlyReliability
	case day*3 <= duration*2:
		return MidReliability
	default:
		return LateReliability
	}
}

// drawSignal samples a clue signal: equals the true outcome with
// probability = reliability, otherwise the opposite. This is the only
// place randomness touches ground truth.
func drawSignal(rng *rand.Rand, outcome bool, reliability float64) bool {
	if rng.Float64() < reliability {
		return outcome
	}
	return !outcome
}

// BuildNetwork generates the immutable clue pool for a game. Clue days are
// spread evenly across the horizon; reliability follows the band of the
// clue's day. The pool is deterministic given the injected random source.
func BuildNetwork(cfg model.GameConfig, rng *rand.Rand) []model.Clue {
	n := PoolSize(cfg.Duration)
	clues := make([]model.Clue, 0, n)

	for i := 0; i < n; i++ {
		day := i*cfg.Duration/n + 1
		if day > cfg.Duration {
			day = cfg.Duration
		}
		reliability := reliabilityFor(day, cfg.Duration)

		audience := model.AudienceInsider
		if rng.Float64() >= insiderFirstShare {
			audience = model.AudienceAll
		}

		clues = append(clues, model.Clue{
			ID:          fmt.Sprintf("clue-%03d", i+1),
			Day:         day,
			Reliability: reliability,
			Signal:      drawSignal(rng, cfg.Outcome, reliability),
			Audience:    audience,
		})
	}

	return clues
}
