// Package lmsr implements the Logarithmic Market Scoring Rule (LMSR)
// automated market maker that prices the simulator's binary outcome market.
//
// The LMSR was proposed by Robin Hanson and provides:
//   - Bounded loss for the market maker (capped at b * ln(n))
//   - Continuous pricing with infinite liquidity
//   - Path-independent cost function
//
// All monetary values use shopspring/decimal — never float64 for money.
// Internal transcendental math uses the log-sum-exp trick for numerical
// stability, with results immediately converted to decimal.
//
// The simulator only models net accumulation toward resolution, so the
// trade path is buy-only: selling/closing positions is not supported.
//
// Reference: Hanson, R. (2003) "Combinatorial Information Market Design"
package lmsr

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/babylon/sim-engine/internal/model"
)

var (
	// ErrInvalidLiquidity is returned when b <= 0.
	ErrInvalidLiquidity = errors.New("lmsr: liquidity parameter b must be positive")

	// ErrNonPositiveQuantity is returned for trades with delta <= 0.
	// The simulation core only accumulates positions; it never sells.
	ErrNonPositiveQuantity = errors.New("lmsr: trade quantity must be positive")

	// ErrInvalidSide is returned for sides other than YES or NO.
	ErrInvalidSide = errors.New("lmsr: side must be YES or NO")

	// ErrNumericInstability indicates the cost function produced NaN or Inf.
	// With validated configuration and shifted log-sum-exp this must not
	// happen; when it does, a pricing invariant is broken and the run aborts.
	ErrNumericInstability = errors.New("lmsr: cost function produced NaN or Inf")

	// MinPrice is the lowest allowed price (probability floor).
	// Prevents degenerate markets where shares become worthless.
	MinPrice = decimal.NewFromFloat(0.001)

	// MaxPrice is the highest allowed price (probability ceiling).
	// Prevents degenerate markets where outcome appears "certain".
	MaxPrice = decimal.NewFromFloat(0.999)

	// PriceScale is the number of decimal places for price/cost rounding.
	PriceScale int32 = 8
)

// MarketMaker implements the LMSR cost function for the binary outcome
// market. It is stateless — market quantities are passed as arguments.
type MarketMaker struct {
	b decimal.Decimal
}

// NewMarketMaker creates a new LMSR market maker with the given liquidity
// parameter b. Higher b → more liquidity, lower price impact per trade.
// Maximum market-maker loss is bounded by b * ln(2) for binary markets.
func NewMarketMaker(b decimal.Decimal) (*MarketMaker, error) {
	if b.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidLiquidity
	}
	// b is used as a float64 divisor in the cost function; values outside
	// float64 range cannot price anything.
	if bf := b.InexactFloat64(); bf == 0 || math.IsInf(bf, 1) {
		return nil, ErrInvalidLiquidity
	}
	return &MarketMaker{b: b}, nil
}

// B returns the liquidity parameter.
func (m *MarketMaker) B() decimal.Decimal {
	return m.b
}

// logSumExp computes ln(Σ exp(x_i)) using the log-sum-exp trick to prevent
// floating-point overflow. Without this trick, exp(x) overflows float64
// when x > ~709.
//
// Algorithm: LSE(x) = max(x) + ln(Σ exp(x_i - max(x)))
// Since (x_i - max(x)) <= 0, all exp arguments are in [0, 1].
func logSumExp(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}

	maxVal := xs[0]
	for _, x := range xs[1:] {
		if x > maxVal {
			maxVal = x
		}
	}

	if math.IsInf(maxVal, -1) {
		return math.Inf(-1)
	}

	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - maxVal)
	}
	return maxVal + math.Log(sum)
}

// Cost computes the LMSR cost function:
//
//	C(q) = b * ln(exp(qYes/b) + exp(qNo/b))
//
// Uses logSumExp internally for numerical stability. Quantities beyond
// float64 range still degenerate to NaN or Inf; those surface as
// ErrNumericInstability before any conversion back to decimal.
func (m *MarketMaker) Cost(qYes, qNo decimal.Decimal) (decimal.Decimal, error) {
	bf := m.b.InexactFloat64()
	qy := qYes.InexactFloat64()
	qn := qNo.InexactFloat64()

	lse := logSumExp([]float64{qy / bf, qn / bf})
	cost := bf * lse

	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return decimal.Zero, ErrNumericInstability
	}
	return decimal.NewFromFloat(cost).Round(PriceScale), nil
}

// Price computes the instantaneous price (probability) for the YES outcome:
//
//	p_yes = exp(qYes / b) / (exp(qYes / b) + exp(qNo / b))
//
// This is the softmax function. Uses max-subtraction for numerical stability.
// Result is clamped to [MinPrice, MaxPrice] to prevent degenerate pricing,
// which also keeps every reachable price strictly inside (0, 1).
func (m *MarketMaker) Price(qYes, qNo decimal.Decimal) decimal.Decimal {
	bf := m.b.InexactFloat64()
	qy := qYes.InexactFloat64()
	qn := qNo.InexactFloat64()

	// Softmax with numerical stability: subtract max to avoid overflow.
	yOverB := qy / bf
	nOverB := qn / bf
	maxVal := math.Max(yOverB, nOverB)

	expYes := math.Exp(yOverB - maxVal)
	expNo := math.Exp(nOverB - maxVal)

	price := expYes / (expYes + expNo)
	if math.IsNaN(price) {
		// Quantities beyond float64 range degenerate the softmax;
		// pin the price to the dominant side's bound.
		switch {
		case yOverB > nOverB:
			return MaxPrice
		case nOverB > yOverB:
			return MinPrice
		default:
			return decimal.NewFromFloat(0.5)
		}
	}
	result := decimal.NewFromFloat(price).Round(PriceScale)

	// Clamp to bounds.
	if result.LessThan(MinPrice) {
		return MinPrice
	}
	if result.GreaterThan(MaxPrice) {
		return MaxPrice
	}
	return result
}

// PriceNo returns the instantaneous price for the NO outcome: 1 - p_yes,
// so the two prices always sum to exactly 1.
func (m *MarketMaker) PriceNo(qYes, qNo decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(m.Price(qYes, qNo))
}

// TradeCost computes the charge for buying delta shares of one side:
//
//	cost = C(q_after) - C(q_before)
//
// The charge is always positive for delta > 0 (convex cost function).
func (m *MarketMaker) TradeCost(qYes, qNo, delta decimal.Decimal, side string) (decimal.Decimal, error) {
	if delta.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrNonPositiveQuantity
	}

	costBefore, err := m.Cost(qYes, qNo)
	if err != nil {
		return decimal.Zero, err
	}

	var costAfter decimal.Decimal
	switch side {
	case model.SideYes:
		costAfter, err = m.Cost(qYes.Add(delta), qNo)
	case model.SideNo:
		costAfter, err = m.Cost(qYes, qNo.Add(delta))
	default:
		return decimal.Zero, ErrInvalidSide
	}
	if err != nil {
		return decimal.Zero, err
	}

	return costAfter.Sub(costBefore), nil
}

// FillPrice returns the average execution price per share for a buy.
func (m *MarketMaker) FillPrice(qYes, qNo, delta decimal.Decimal, side string) (decimal.Decimal, error) {
	cost, err := m.TradeCost(qYes, qNo, delta, side)
	if err != nil {
		return decimal.Zero, err
	}
	return cost.Div(delta).Round(PriceScale), nil
}

// Trade executes a buy of delta shares against the given market state and
// returns the charge plus the resulting state. The input state is passed by
// value and never mutated; the scheduler owns the authoritative copy.
func (m *MarketMaker) Trade(state model.MarketState, side string, delta decimal.Decimal) (decimal.Decimal, model.MarketState, error) {
	cost, err := m.TradeCost(state.QYes, state.QNo, delta, side)
	if err != nil {
		return decimal.Zero, state, err
	}

	next := state
	if side == model.SideYes {
		next.QYes = state.QYes.Add(delta)
	} else {
		next.QNo = state.QNo.Add(delta)
	}
	next.PriceYes = m.Price(next.QYes, next.QNo)
	next.PriceNo = m.PriceNo(next.QYes, next.QNo)
	next.TotalVolume = state.TotalVolume.Add(delta)

	return cost, next, nil
}

// MaxLoss returns the maximum possible loss for the market maker: b * ln(2)
// for binary markets.
func (m *MarketMaker) MaxLoss() decimal.Decimal {
	bf := m.b.InexactFloat64()
	loss := bf * math.Log(2)
	return decimal.NewFromFloat(loss).Round(PriceScale)
}
