package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// EventType enumerates the eight kinds of simulation events.
type EventType string

const (
	EventGameStarted     EventType = "game:started"
	EventDayChanged      EventType = "day:changed"
	EventClueDistributed EventType = "clue:distributed"
	EventAgentBet        EventType = "agent:bet"
	EventAgentPost       EventType = "agent:post"
	EventMarketUpdated   EventType = "market:updated"
	EventOutcomeRevealed EventType = "outcome:revealed"
	EventGameEnded       EventType = "game:ended"
)

// Payload is the tagged-union interface implemented by every event payload
// variant. The marker method gives compile-time exhaustiveness over the
// event kinds without dynamic event names.
type Payload interface {
	isPayload()
}

// Event is an immutable, append-only record of one state change. Events are
// strictly ordered by Seq; Timestamp is a logical, simulation-relative
// clock (no wall time enters the core).
type Event struct {
	Seq       int       `json:"seq"`
	Type      EventType `json:"type"`
	Day       int       `json:"day"`
	Timestamp int64     `json:"timestamp"`
	Payload   Payload   `json:"payload"`
}

// GameStartedPayload announces the run configuration (outcome excluded —
// nothing about the hidden truth may leak before resolution).
type GameStartedPayload struct {
	Question  string          `json:"question"`
	NumAgents int             `json:"num_agents"`
	Duration  int             `json:"duration"`
	Liquidity decimal.Decimal `json:"liquidity"`
	ClueCount int             `json:"clue_count"`
}

// DayChangedPayload marks the start of a simulation day.
type DayChangedPayload struct {
	Day int `json:"day"`
}

// ClueDistributedPayload records one distribution step of a clue to a set
// of agents. The clue's signal is included so downstream consumers can
// replay information flow; agents only ever read it through their own
// knowledge sets.
type ClueDistributedPayload struct {
	ClueID      string   `json:"clue_id"`
	Reliability float64  `json:"reliability"`
	Signal      bool     `json:"signal"`
	Audience    string   `json:"audience"`
	Recipients  []string `json:"recipients"`
}

// AgentBetPayload records one executed bet.
type AgentBetPayload struct {
	AgentID   string          `json:"agent_id"`
	Side      string          `json:"side"`
	Amount    decimal.Decimal `json:"amount"`
	Cost      decimal.Decimal `json:"cost"`
	FillPrice decimal.Decimal `json:"fill_price"`
}

// MarketUpdatedPayload snapshots the market immediately after a trade.
type MarketUpdatedPayload struct {
	QYes        decimal.Decimal `json:"q_yes"`
	QNo         decimal.Decimal `json:"q_no"`
	PriceYes    decimal.Decimal `json:"price_yes"`
	PriceNo     decimal.Decimal `json:"price_no"`
	TotalVolume decimal.Decimal `json:"total_volume"`
}

// AgentPostPayload is the periodic social-content checkpoint. It carries
// structured market state only; narrative text generation is a downstream
// concern.
type AgentPostPayload struct {
	Day         int             `json:"day"`
	PriceYes    decimal.Decimal `json:"price_yes"`
	TotalVolume decimal.Decimal `json:"total_volume"`
	BetsToDate  int             `json:"bets_to_date"`
}

// OutcomeRevealedPayload discloses the hidden ground truth at resolution.
type OutcomeRevealedPayload struct {
	Outcome bool `json:"outcome"`
}

// GameEndedPayload summarizes settlement.
type GameEndedPayload struct {
	Winners       []string        `json:"winners"`
	Losers        []string        `json:"losers"`
	FinalPriceYes decimal.Decimal `json:"final_price_yes"`
	TotalVolume   decimal.Decimal `json:"total_volume"`
}

func (GameStartedPayload) isPayload()     {}
func (DayChangedPayload) isPayload()      {}
func (ClueDistributedPayload) isPayload() {}
func (AgentBetPayload) isPayload()        {}
func (MarketUpdatedPayload) isPayload()   {}
func (AgentPostPayload) isPayload()       {}
func (OutcomeRevealedPayload) isPayload() {}
func (GameEndedPayload) isPayload()       {}

// UnmarshalJSON decodes the payload into the concrete variant selected by
// the event type, so that events round-trip through serialization unchanged.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Seq       int             `json:"seq"`
		Type      EventType       `json:"type"`
		Day       int             `json:"day"`
		Timestamp int64           `json:"timestamp"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Seq = raw.Seq
	e.Type = raw.Type
	e.Day = raw.Day
	e.Timestamp = raw.Timestamp

	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		e.Payload = nil
		return nil
	}

	var payload Payload
	switch raw.Type {
	case EventGameStarted:
		payload = &GameStartedPayload{}
	case EventDayChanged:
		payload = &DayChangedPayload{}
	case EventClueDistributed:
		payload = &ClueDistributedPayload{}
	case EventAgentBet:
		payload = &AgentBetPayload{}
	case EventMarketUpdated:
		payload = &MarketUpdatedPayload{}
	case EventAgentPost:
		payload = &AgentPostPayload{}
	case EventOutcomeRevealed:
		payload = &OutcomeRevealedPayload{}
	case EventGameEnded:
		payload = &GameEndedPayload{}
	default:
		return fmt.Errorf("model: unknown event type %q", raw.Type)
	}

	if err := json.Unmarshal(raw.Payload, payload); err != nil {
		return fmt.Errorf("model: decode %s payload: %w", raw.Type, err)
	}
	e.Payload = deref(payload)
	return nil
}

// deref converts the pointer used for decoding back to the value form used
// everywhere else, so reflect.DeepEqual works across a round trip.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *GameStartedPayload:
		return *v
	case *DayChangedPayload:
		return *v
	case *ClueDistributedPayload:
		return *v
	case *AgentBetPayload:
		return *v
	case *MarketUpdatedPayload:
		return *v
	case *AgentPostPayload:
		return *v
	case *OutcomeRevealedPayload:
		return *v
	case *GameEndedPayload:
		return *v
	default:
		return p
	}
}
