package risk

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestCheckBet_WithinLimits(t *testing.T) {
	l := NewLimiter(d(150), d(1000))

	if err := l.CheckBet(d(0), d(100)); err != nil {
		t.Errorf("bet within limits should pass, got %v", err)
	}
	if err := l.CheckBet(d(-500), d(-100)); err != nil {
		t.Errorf("NO-side bet within limits should pass, got %v", err)
	}
}

func TestCheckBet_PerBetLimit(t *testing.T) {
	l := NewLimiter(d(150), d(10000))

	if err := l.CheckBet(d(0), d(151)); err != ErrBetTooLarge {
		t.Errorf("expected ErrBetTooLarge, got %v", err)
	}
	// Exactly at the limit is allowed.
	if err := l.CheckBet(d(0), d(150)); err != nil {
		t.Errorf("bet at the limit should pass, got %v", err)
	}
}

func TestCheckBet_ExposureLimit(t *testing.T) {
	l := NewLimiter(d(150), d(1000))

	if err := l.CheckBet(d(950), d(100)); err != ErrExposureExceeded {
		t.Errorf("expected ErrExposureExceeded, got %v", err)
	}
	// Betting the other way reduces exposure and is allowed.
	if err := l.CheckBet(d(950), d(-100)); err != nil {
		t.Errorf("exposure-reducing bet should pass, got %v", err)
	}
	// Exposure counts on the NO side too.
	if err := l.CheckBet(d(-950), d(-100)); err != ErrExposureExceeded {
		t.Errorf("expected ErrExposureExceeded for NO side, got %v", err)
	}
}

func TestCheckBet_ZeroCapsUnlimited(t *testing.T) {
	l := NewLimiter(decimal.Zero, decimal.Zero)

	if err := l.CheckBet(d(1e9), d(1e9)); err != nil {
		t.Errorf("zero caps mean unlimited, got %v", err)
	}
}

func TestCheckBet_NilLimiter(t *testing.T) {
	var l *Limiter
	if err := l.CheckBet(d(100), d(100)); err != nil {
		t.Errorf("nil limiter must allow everything, got %v", err)
	}
}
