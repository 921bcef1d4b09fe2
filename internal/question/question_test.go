package question

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseTicker_Valid(t *testing.T) {
	q, err := ParseTicker("SIM-rate-cut-CRYPTO-20260315")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Topic != "rate-cut" {
		t.Errorf("expected topic rate-cut, got %s", q.Topic)
	}
	if q.Category != CategoryCrypto {
		t.Errorf("expected category CRYPTO, got %s", q.Category)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !q.ResolutionDate.Equal(want) {
		t.Errorf("expected resolution %v, got %v", want, q.ResolutionDate)
	}
}

func TestParseTicker_SingleWordTopic(t *testing.T) {
	q, err := ParseTicker("SIM-election-POLITICS-20261103")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Topic != "election" {
		t.Errorf("expected topic election, got %s", q.Topic)
	}
}

func TestParseTicker_InvalidFormat(t *testing.T) {
	for _, ticker := range []string{
		"",
		"SIM",
		"election-POLITICS-20261103",
		"SIM-Election-POLITICS-20261103", // uppercase topic
		"SIM-election-POLITICS-2026",     // short date
	} {
		if _, err := ParseTicker(ticker); !errors.Is(err, ErrInvalidTicker) {
			t.Errorf("ticker %q: expected ErrInvalidTicker, got %v", ticker, err)
		}
	}
}

func TestParseTicker_InvalidCategory(t *testing.T) {
	_, err := ParseTicker("SIM-election-WEATHER-20261103")
	if !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestDeriveLiquidity_StandardGame(t *testing.T) {
	b, err := DeriveLiquidity(10, 30, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Equal(decimal.NewFromInt(150)) {
		t.Errorf("standard game should derive b=150, got %s", b)
	}
}

func TestDeriveLiquidity_MinimumB(t *testing.T) {
	b, err := DeriveLiquidity(1, 1, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Equal(decimal.NewFromInt(10)) {
		t.Errorf("tiny game should floor at b=10, got %s", b)
	}
}

func TestDeriveLiquidity_InvalidInputs(t *testing.T) {
	if _, err := DeriveLiquidity(0, 30, decimal.NewFromInt(100)); err == nil {
		t.Error("expected error for zero agents")
	}
	if _, err := DeriveLiquidity(10, 30, decimal.Zero); err == nil {
		t.Error("expected error for zero avgBet")
	}
}
