// Package schema decodes and type-checks raw stream frames. Failures are
// classified, never surfaced to users: the far end is a separately-evolving
// process and transient malformed frames must not interrupt the dashboard.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"SignalDeck/internal/domain/models"
	"SignalDeck/pkg/util"
)

var (
	// ErrSchema marks an envelope failure: bad JSON, missing required
	// fields, or an unsupported schema_version.
	ErrSchema = errors.New("schema validation failed")
	// ErrChannelDecode marks a frame whose envelope passed but whose
	// channel-specific required fields are missing.
	ErrChannelDecode = errors.New("channel decode failed")
	// ErrUnknownChannel marks a channel name this build does not know.
	ErrUnknownChannel = errors.New("unknown channel")
)

// Validator turns one RawFrame into a typed Event. Unknown and extra JSON
// fields are ignored.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

// wire shapes; transport concerns stay inside this package.

type progressFrame struct {
	SchemaVersion string   `json:"schema_version" validate:"required,eq=1.0"`
	Agent         string   `json:"agent" validate:"required"`
	Timestamp     string   `json:"timestamp" validate:"required"`
	Ticker        string   `json:"ticker"`
	Content       string   `json:"content"`
	Signal        string   `json:"signal"`
	Score         *float64 `json:"score"`
	Confidence    float64  `json:"confidence"`
	Magnitude     float64  `json:"magnitude"`

	Insight   *insightFrame   `json:"insight"`
	Target    *targetFrame    `json:"target"`
	Risk      *riskFrame      `json:"risk"`
	Execution *executionFrame `json:"execution"`
}

type insightFrame struct {
	Direction  json.RawMessage `json:"direction"`
	Magnitude  float64         `json:"magnitude"`
	Confidence float64         `json:"confidence"`
	PeriodDays float64         `json:"period_days"`
}

type targetFrame struct {
	Weight   float64 `json:"weight"`
	Quantity float64 `json:"quantity"`
}

type riskFrame struct {
	Status string  `json:"status"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type executionFrame struct {
	Action   string  `json:"action"`
	Quantity float64 `json:"quantity"`
}

type universeFrame struct {
	SchemaVersion   string   `json:"schema_version" validate:"required,eq=1.0"`
	BaseCount       *int     `json:"base_count" validate:"required"`
	EligibleCount   *int     `json:"eligible_count" validate:"required"`
	SelectedSymbols []string `json:"selected_symbols"`
}

type rankingFrame struct {
	SchemaVersion string       `json:"schema_version" validate:"required,eq=1.0"`
	TopK          []rankingRow `json:"top_k" validate:"required"`
}

type rankingRow struct {
	Symbol  string             `json:"symbol"`
	Score   float64            `json:"score"`
	Factors map[string]float64 `json:"factors"`
}

// Validate decodes one raw frame into a typed event.
func (v *Validator) Validate(f models.RawFrame) (models.Event, error) {
	switch f.Channel {
	case models.ChannelProgress:
		return v.progress(f.Payload)
	case models.ChannelUniverse:
		return v.universe(f.Payload)
	case models.ChannelRanking:
		return v.ranking(f.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, f.Channel)
	}
}

func (v *Validator) progress(payload string) (models.Event, error) {
	var pf progressFrame
	if err := json.Unmarshal([]byte(payload), &pf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := v.v.Struct(&pf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	ts, ok := util.ParseTime(pf.Timestamp)
	if !ok {
		return nil, fmt.Errorf("%w: bad timestamp %q", ErrSchema, pf.Timestamp)
	}

	ev := models.ProgressEvent{
		Agent:      pf.Agent,
		Ticker:     pf.Ticker,
		Content:    pf.Content,
		Signal:     pf.Signal,
		Score:      pf.Score,
		Confidence: pf.Confidence,
		Magnitude:  pf.Magnitude,
		Timestamp:  ts,
	}
	if pf.Insight != nil {
		ev.Insight = &models.Insight{
			Direction:  decodeDirection(pf.Insight.Direction),
			Magnitude:  pf.Insight.Magnitude,
			Confidence: pf.Insight.Confidence,
			PeriodDays: pf.Insight.PeriodDays,
		}
	}
	if pf.Target != nil {
		ev.Target = &models.Target{Weight: pf.Target.Weight, Quantity: pf.Target.Quantity}
	}
	if pf.Risk != nil {
		ev.Risk = &models.RiskVerdict{
			Status: strings.ToUpper(pf.Risk.Status),
			Score:  pf.Risk.Score,
			Reason: pf.Risk.Reason,
		}
	}
	if pf.Execution != nil {
		ev.Execution = &models.ExecutionIntent{
			Action:   strings.ToUpper(pf.Execution.Action),
			Quantity: pf.Execution.Quantity,
		}
	}
	return ev, nil
}

func (v *Validator) universe(payload string) (models.Event, error) {
	var uf universeFrame
	if err := json.Unmarshal([]byte(payload), &uf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if uf.SchemaVersion != models.SchemaVersion {
		return nil, fmt.Errorf("%w: schema_version %q", ErrSchema, uf.SchemaVersion)
	}
	if uf.BaseCount == nil || uf.EligibleCount == nil {
		return nil, fmt.Errorf("%w: universe frame missing counts", ErrChannelDecode)
	}
	return models.UniverseEvent{
		BaseCount:       *uf.BaseCount,
		EligibleCount:   *uf.EligibleCount,
		SelectedSymbols: uf.SelectedSymbols,
	}, nil
}

func (v *Validator) ranking(payload string) (models.Event, error) {
	var rf rankingFrame
	if err := json.Unmarshal([]byte(payload), &rf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if rf.SchemaVersion != models.SchemaVersion {
		return nil, fmt.Errorf("%w: schema_version %q", ErrSchema, rf.SchemaVersion)
	}
	if rf.TopK == nil {
		return nil, fmt.Errorf("%w: ranking frame missing top_k", ErrChannelDecode)
	}
	rows := make([]models.RankedCandidate, 0, len(rf.TopK))
	for _, r := range rf.TopK {
		rows = append(rows, models.RankedCandidate{Symbol: r.Symbol, Score: r.Score, Factors: r.Factors})
	}
	return models.RankingEvent{TopK: rows}, nil
}

// decodeDirection accepts the engine's two encodings: "UP"/"DOWN"/"FLAT"
// strings and the LEAN integer enum (1, -1, 0).
func decodeDirection(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "FLAT"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToUpper(s) {
		case "UP", "DOWN", "FLAT":
			return strings.ToUpper(s)
		}
		return "FLAT"
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		switch {
		case n > 0:
			return "UP"
		case n < 0:
			return "DOWN"
		}
	}
	return "FLAT"
}
