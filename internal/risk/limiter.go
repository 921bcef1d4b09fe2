// Package risk enforces per-agent exposure limits on the bet execution
// path. Limits are a scheduler policy, not an agent decision: a bet that
// would breach them is absorbed as a Hold for the day, never surfaced as a
// simulation-level error.
package risk

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrBetTooLarge is returned when a single bet exceeds the per-bet cap.
	ErrBetTooLarge = errors.New("risk: single bet exceeds per-bet limit")

	// ErrExposureExceeded is returned when a bet would push an agent's
	// absolute net exposure beyond the configured maximum.
	ErrExposureExceeded = errors.New("risk: net exposure limit exceeded")
)

// Limiter caps how much any one agent can sway the market.
type Limiter struct {
	// MaxPerBet is the maximum share quantity of a single bet.
	MaxPerBet decimal.Decimal

	// MaxNetExposure is the maximum absolute net position
	// (|positionYes - positionNo|) an agent may accumulate.
	MaxNetExposure decimal.Decimal
}

// NewLimiter creates a limiter with the given caps. Non-positive caps are
// treated as unlimited.
func NewLimiter(maxPerBet, maxNetExposure decimal.Decimal) *Limiter {
	return &Limiter{MaxPerBet: maxPerBet, MaxNetExposure: maxNetExposure}
}

// CheckBet validates a proposed bet against the limits.
//
// Parameters:
//   - netPosition: the agent's current positionYes - positionNo
//   - exposureDelta: signed exposure change (+amount for YES, -amount for NO)
//
// Returns nil if the bet is within limits, or an error naming the violation.
func (l *Limiter) CheckBet(netPosition, exposureDelta decimal.Decimal) error {
	if l == nil {
		return nil
	}

	if l.MaxPerBet.IsPositive() && exposureDelta.Abs().GreaterThan(l.MaxPerBet) {
		return ErrBetTooLarge
	}

	if l.MaxNetExposure.IsPositive() {
		newExposure := netPosition.Add(exposureDelta).Abs()
		if newExposure.GreaterThan(l.MaxNetExposure) {
			return ErrExposureExceeded
		}
	}

	return nil
}
