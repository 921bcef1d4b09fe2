package model

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEvent_JSONRoundTrip(t *testing.T) {
	events := []Event{
		{Seq: 0, Type: EventGameStarted, Day: 0, Timestamp: 0, Payload: GameStartedPayload{
			Question: "SIM-election-POLITICS-20261103", NumAgents: 10, Duration: 30,
			Liquidity: decimal.NewFromInt(150), ClueCount: 21,
		}},
		{Seq: 1, Type: EventDayChanged, Day: 1, Timestamp: 1, Payload: DayChangedPayload{Day: 1}},
		{Seq: 2, Type: EventClueDistributed, Day: 1, Timestamp: 2, Payload: ClueDistributedPayload{
			ClueID: "clue-001", Reliability: 0.7, Signal: true,
			Audience: AudienceInsider, Recipients: []string{"agent-001", "agent-004"},
		}},
		{Seq: 3, Type: EventAgentBet, Day: 1, Timestamp: 3, Payload: AgentBetPayload{
			AgentID: "agent-001", Side: SideYes,
			Amount: decimal.NewFromInt(100), Cost: decimal.NewFromFloat(51.2),
			FillPrice: decimal.NewFromFloat(0.512),
		}},
		{Seq: 4, Type: EventMarketUpdated, Day: 1, Timestamp: 4, Payload: MarketUpdatedPayload{
			QYes: decimal.NewFromInt(100), QNo: decimal.NewFromInt(0),
			PriceYes: decimal.NewFromFloat(0.66), PriceNo: decimal.NewFromFloat(0.34),
			TotalVolume: decimal.NewFromInt(100),
		}},
		{Seq: 5, Type: EventAgentPost, Day: 3, Timestamp: 5, Payload: AgentPostPayload{
			Day: 3, PriceYes: decimal.NewFromFloat(0.66),
			TotalVolume: decimal.NewFromInt(100), BetsToDate: 1,
		}},
		{Seq: 6, Type: EventOutcomeRevealed, Day: 30, Timestamp: 6, Payload: OutcomeRevealedPayload{Outcome: true}},
		{Seq: 7, Type: EventGameEnded, Day: 30, Timestamp: 7, Payload: GameEndedPayload{
			Winners: []string{"agent-001"}, Losers: []string{"agent-002"},
			FinalPriceYes: decimal.NewFromFloat(0.9), TotalVolume: decimal.NewFromInt(100),
		}},
	}

	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("%s: marshal: %v", e.Type, err)
		}

		var back Event
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("%s: unmarshal: %v", e.Type, err)
		}

		if !reflect.DeepEqual(e, back) {
			t.Errorf("%s: round trip changed event:\n before %+v\n after  %+v", e.Type, e, back)
		}
	}
}

func TestEvent_UnknownTypeRejected(t *testing.T) {
	var e Event
	err := json.Unmarshal([]byte(`{"seq":0,"type":"game:paused","day":1,"timestamp":0,"payload":{}}`), &e)
	if err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestGameConfig_Validate(t *testing.T) {
	valid := GameConfig{
		NumAgents:          10,
		Duration:           30,
		LiquidityParameter: decimal.NewFromInt(150),
		InsiderPercentage:  0.25,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*GameConfig)
		want   error
	}{
		{"zero agents", func(c *GameConfig) { c.NumAgents = 0 }, ErrInvalidNumAgents},
		{"zero duration", func(c *GameConfig) { c.Duration = 0 }, ErrInvalidDuration},
		{"negative b", func(c *GameConfig) { c.LiquidityParameter = decimal.NewFromInt(-5) }, ErrInvalidLiquidity},
		{"zero b", func(c *GameConfig) { c.LiquidityParameter = decimal.Zero }, ErrInvalidLiquidity},
		{"insider pct 0", func(c *GameConfig) { c.InsiderPercentage = 0 }, ErrInvalidInsiderPct},
		{"insider pct 1", func(c *GameConfig) { c.InsiderPercentage = 1 }, ErrInvalidInsiderPct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGameConfig_NormalizeDefaults(t *testing.T) {
	cfg := GameConfig{NumAgents: 5}.Normalize()

	if cfg.Duration != DefaultDuration {
		t.Errorf("expected default duration %d, got %d", DefaultDuration, cfg.Duration)
	}
	if !cfg.LiquidityParameter.Equal(DefaultLiquidity) {
		t.Errorf("expected default liquidity %s, got %s", DefaultLiquidity, cfg.LiquidityParameter)
	}
	if cfg.InsiderPercentage != DefaultInsiderPct {
		t.Errorf("expected default insider pct %v, got %v", DefaultInsiderPct, cfg.InsiderPercentage)
	}
	if !cfg.Endowment.Equal(DefaultEndowment) {
		t.Errorf("expected default endowment %s, got %s", DefaultEndowment, cfg.Endowment)
	}
	if cfg.PostInterval != DefaultPostInterval {
		t.Errorf("expected default post interval %d, got %d", DefaultPostInterval, cfg.PostInterval)
	}
}
