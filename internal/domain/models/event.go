package models

import "time"

// Channel names multiplexed within one stream connection.
const (
	ChannelProgress = "progress"
	ChannelUniverse = "universe"
	ChannelRanking  = "ranking"
)

// SchemaVersion is the single supported envelope version.
const SchemaVersion = "1.0"

// TerminationSentinel is the plain-text end-of-stream marker emitted by the
// engine. It is a normal completion signal, not an error.
const TerminationSentinel = "[DONE]"

// StreamParams identifies one logical subscription. Equality decides whether
// a desired-params change requires a reconnect.
type StreamParams struct {
	SymbolScope string `json:"symbol_scope"`
	Market      string `json:"market,omitempty"`
	TopK        int    `json:"top_k,omitempty"`
}

// Equal reports whether two parameter sets address the same subscription.
func (p StreamParams) Equal(o StreamParams) bool {
	return p.SymbolScope == o.SymbolScope && p.Market == o.Market && p.TopK == o.TopK
}

// RawFrame is one frame exactly as received: opaque payload plus channel name.
type RawFrame struct {
	Channel string
	Payload string
}

// Event is one validated frame, tagged by originating channel.
type Event interface {
	EventChannel() string
}

// ProgressEvent is a validated default-channel frame: one agent's update,
// optionally carrying a signal, a score, and staged pipeline artifacts.
type ProgressEvent struct {
	Agent      string
	Ticker     string // empty when the update is not symbol-specific
	Content    string
	Signal     string   // raw signal text; class derivation happens in routing
	Score      *float64 // nil when the frame carried no score field
	Confidence float64
	Magnitude  float64
	Timestamp  time.Time
	Insight    *Insight
	Target     *Target
	Risk       *RiskVerdict
	Execution  *ExecutionIntent
}

func (ProgressEvent) EventChannel() string { return ChannelProgress }

// UniverseEvent replaces the universe selection snapshot wholesale.
type UniverseEvent struct {
	BaseCount       int
	EligibleCount   int
	SelectedSymbols []string
}

func (UniverseEvent) EventChannel() string { return ChannelUniverse }

// RankingEvent replaces the ranked-candidate list wholesale.
type RankingEvent struct {
	TopK []RankedCandidate
}

func (RankingEvent) EventChannel() string { return ChannelRanking }
