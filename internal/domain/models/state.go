package models

import (
	"strings"
	"time"
)

// SignalClass is the directional class of an agent signal.
type SignalClass string

const (
	SignalBullish SignalClass = "BULLISH"
	SignalBearish SignalClass = "BEARISH"
	SignalNeutral SignalClass = "NEUTRAL"
)

// SignalClassFrom derives a class from raw signal text, case-insensitively.
// Anything unrecognized is NEUTRAL.
func SignalClassFrom(s string) SignalClass {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BULLISH":
		return SignalBullish
	case "BEARISH":
		return SignalBearish
	default:
		return SignalNeutral
	}
}

// SystemTicker is the sentinel symbol for updates that carry no ticker.
const SystemTicker = "SYSTEM"

// AgentLogEntry is one human-readable line in the signal log.
// Immutable once created.
type AgentLogEntry struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Ticker     string      `json:"ticker"`
	AgentID    string      `json:"agent_id"`
	Signal     SignalClass `json:"signal"`
	Confidence float64     `json:"confidence"`
	Magnitude  float64     `json:"magnitude"`
	Rationale  string      `json:"rationale"`
}

// DedupKey identifies an entry for at-least-once absorption.
func (e AgentLogEntry) DedupKey() string {
	return e.AgentID + "\x00" + e.Ticker + "\x00" + e.Rationale
}

// FactorVector holds per-factor z-scores; zero is the neutral position.
type FactorVector struct {
	Value    float64 `json:"value"`
	Quality  float64 `json:"quality"`
	Momentum float64 `json:"momentum"`
	Growth   float64 `json:"growth"`
	Risk     float64 `json:"risk"`
}

// Insight is the upstream directional signal artifact.
type Insight struct {
	Direction  string  `json:"direction"` // UP, DOWN, FLAT
	Magnitude  float64 `json:"magnitude"`
	Confidence float64 `json:"confidence"`
	PeriodDays float64 `json:"period_days"`
}

// Target is the desired portfolio target downstream of an Insight.
type Target struct {
	Weight   float64 `json:"weight"`
	Quantity float64 `json:"quantity"`
}

// RiskVerdict is the risk gate decision applied to a target.
type RiskVerdict struct {
	Status string  `json:"status"` // PASS, FAIL, CAP
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// ExecutionIntent is the resulting order intent.
type ExecutionIntent struct {
	Action   string  `json:"action"` // BUY, SELL, HOLD, COVER, SHORT
	Quantity float64 `json:"quantity"`
}

// TickerState is the current reconciled view for one symbol. Defaults are the
// values a symbol shows before any event has touched the corresponding field.
type TickerState struct {
	Symbol       string       `json:"symbol"`
	Price        float64      `json:"price"`
	Score        float64      `json:"score" default:"50"`
	Signal       SignalClass  `json:"signal" default:"NEUTRAL"`
	RSI          float64      `json:"rsi" default:"50"`
	RiskScore    float64      `json:"risk_score" default:"3.0"`
	TargetWeight float64      `json:"target_weight"`
	Factors      FactorVector `json:"factors"`

	Insight   *Insight         `json:"insight,omitempty"`
	Target    *Target          `json:"target,omitempty"`
	Risk      *RiskVerdict     `json:"risk,omitempty"`
	Execution *ExecutionIntent `json:"execution,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TickerUpdate is a field-level partial update. Nil fields leave the current
// state untouched; they never reset to defaults.
type TickerUpdate struct {
	Price        *float64
	Score        *float64
	Signal       *SignalClass
	RSI          *float64
	RiskScore    *float64
	TargetWeight *float64
	Factors      *FactorVector

	Insight   *Insight
	Target    *Target
	Risk      *RiskVerdict
	Execution *ExecutionIntent

	Timestamp time.Time
}

// RankedCandidate is one row of the screener's top-K ranking.
type RankedCandidate struct {
	Symbol  string             `json:"symbol"`
	Score   float64            `json:"score"`
	Factors map[string]float64 `json:"factors"`
}

// UniverseCounts is the wholesale-replaced universe selection snapshot.
type UniverseCounts struct {
	Base            int      `json:"base"`
	Eligible        int      `json:"eligible"`
	Selected        int      `json:"selected"`
	SelectedSymbols []string `json:"selected_symbols"`
}

// SessionState is the stream session lifecycle state.
type SessionState string

const (
	SessionNew        SessionState = "NEW"
	SessionConnecting SessionState = "CONNECTING"
	SessionOpen       SessionState = "OPEN"
	SessionClosed     SessionState = "CLOSED"
	SessionErrored    SessionState = "ERRORED"
)

// StreamStatus is the connection status exposed to the UI layer.
type StreamStatus struct {
	Connected bool         `json:"connected"`
	State     SessionState `json:"state"`
	Reason    string       `json:"reason,omitempty"`
	Params    StreamParams `json:"params"`
}
