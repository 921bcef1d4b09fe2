// Package question handles market question ticker parsing, validation, and
// derivation of the LMSR liquidity parameter from expected betting volume.
package question

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Supported question categories.
const (
	CategoryPolitics = "POLITICS"
	CategorySports   = "SPORTS"
	CategoryCrypto   = "CRYPTO"
	CategoryTech     = "TECH"
	CategoryScience  = "SCIENCE"
)

var validCategories = map[string]bool{
	CategoryPolitics: true,
	CategorySports:   true,
	CategoryCrypto:   true,
	CategoryTech:     true,
	CategoryScience:  true,
}

// tickerRegex matches: SIM-{topic}-{category}-{YYYYMMDD}
// Example: SIM-rate-cut-CRYPTO-20260315
var tickerRegex = regexp.MustCompile(
	`^SIM-([a-z0-9]+(?:-[a-z0-9]+)*)-([A-Z]+)-(\d{8})$`,
)

var (
	ErrInvalidTicker   = errors.New("question: invalid ticker format")
	ErrInvalidCategory = errors.New("question: unsupported category")
)

// Question represents a parsed market question.
type Question struct {
	Ticker         string    `json:"ticker"`
	Topic          string    `json:"topic"`
	Category       string    `json:"category"`
	ResolutionDate time.Time `json:"resolution_date"`
}

// ParseTicker parses and validates a question ticker string.
// Format: SIM-{topic}-{category}-{YYYYMMDD}
func ParseTicker(ticker string) (*Question, error) {
	matches := tickerRegex.FindStringSubmatch(ticker)
	if matches == nil {
		return nil, fmt.Errorf("%w: %s (expected SIM-{topic}-{category}-{YYYYMMDD})",
			ErrInvalidTicker, ticker)
	}

	topic := matches[1]
	category := matches[2]
	dateStr := matches[3]

	if !validCategories[category] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}

	resolution, err := time.Parse("20060102", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %s", ErrInvalidTicker, dateStr)
	}

	return &Question{
		Ticker:         ticker,
		Topic:          topic,
		Category:       category,
		ResolutionDate: resolution,
	}, nil
}

// DeriveLiquidity computes the LMSR b parameter from expected betting
// volume: b scales with the population size, the horizon, and the average
// bet, damped so a standard game (10 agents, 30 days) lands near the
// default depth of 150.
//
// Deeper pools slow price discovery; shallower pools let a handful of
// insider bets swing the price. The divisor was tuned against the standard
// game so that prices converge without pinning at the bounds.
func DeriveLiquidity(numAgents, duration int, avgBet decimal.Decimal) (decimal.Decimal, error) {
	if numAgents < 1 || duration < 1 {
		return decimal.Zero, errors.New("question: numAgents and duration must be positive")
	}
	if avgBet.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.New("question: avgBet must be positive")
	}

	expectedVolume := decimal.NewFromInt(int64(numAgents * duration)).Mul(avgBet)
	b := expectedVolume.Div(decimal.NewFromInt(200))

	// Enforce minimum b to prevent degenerate markets.
	minB := decimal.NewFromInt(10)
	if b.LessThan(minB) {
		return minB, nil
	}
	return b.Round(2), nil
}
