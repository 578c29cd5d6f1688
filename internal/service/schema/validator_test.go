package schema

import (
	"errors"
	"testing"

	"SignalDeck/internal/domain/models"
)

func TestValidateProgress(t *testing.T) {
	v := New()
	payload := `{
		"schema_version": "1.0",
		"agent": "fundamental",
		"timestamp": "2026-05-04T12:00:00Z",
		"ticker": "AAPL",
		"content": "strong balance sheet",
		"signal": "bullish",
		"score": 72.5,
		"confidence": 0.8
	}`

	ev, err := v.Validate(models.RawFrame{Channel: models.ChannelProgress, Payload: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pe, ok := ev.(models.ProgressEvent)
	if !ok {
		t.Fatalf("expected ProgressEvent, got %T", ev)
	}
	if pe.Agent != "fundamental" || pe.Ticker != "AAPL" {
		t.Fatalf("fields not decoded: %+v", pe)
	}
	if pe.Score == nil || *pe.Score != 72.5 {
		t.Fatalf("score not decoded: %v", pe.Score)
	}
}

func TestValidateProgressScoreAbsent(t *testing.T) {
	v := New()
	payload := `{"schema_version":"1.0","agent":"status","timestamp":"2026-05-04T12:00:00Z","content":"warming up"}`

	ev, err := v.Validate(models.RawFrame{Channel: models.ChannelProgress, Payload: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pe := ev.(models.ProgressEvent); pe.Score != nil {
		t.Fatalf("absent score must decode as nil, got %v", *pe.Score)
	}
}

func TestValidateProgressMissingRequired(t *testing.T) {
	v := New()
	cases := map[string]string{
		"no version":  `{"agent":"a","timestamp":"2026-05-04T12:00:00Z"}`,
		"bad version": `{"schema_version":"2.0","agent":"a","timestamp":"2026-05-04T12:00:00Z"}`,
		"no agent":    `{"schema_version":"1.0","timestamp":"2026-05-04T12:00:00Z"}`,
		"no ts":       `{"schema_version":"1.0","agent":"a"}`,
		"bad ts":      `{"schema_version":"1.0","agent":"a","timestamp":"not-a-time"}`,
		"not json":    `{{{`,
	}
	for name, payload := range cases {
		if _, err := v.Validate(models.RawFrame{Channel: models.ChannelProgress, Payload: payload}); !errors.Is(err, ErrSchema) {
			t.Fatalf("%s: expected ErrSchema, got %v", name, err)
		}
	}
}

func TestValidateProgressUnknownFieldsIgnored(t *testing.T) {
	v := New()
	payload := `{"schema_version":"1.0","agent":"a","timestamp":"2026-05-04T12:00:00Z","future_field":{"x":1}}`

	if _, err := v.Validate(models.RawFrame{Channel: models.ChannelProgress, Payload: payload}); err != nil {
		t.Fatalf("unknown fields must be ignored: %v", err)
	}
}

func TestValidateProgressArtifacts(t *testing.T) {
	v := New()
	payload := `{
		"schema_version": "1.0",
		"agent": "portfolio",
		"timestamp": "2026-05-04T12:00:00Z",
		"ticker": "TSLA",
		"insight": {"direction": 1, "magnitude": 0.03, "confidence": 0.7, "period_days": 14},
		"target": {"weight": 0.08, "quantity": 120},
		"risk": {"status": "pass", "score": 2.1},
		"execution": {"action": "buy", "quantity": 120}
	}`

	ev, err := v.Validate(models.RawFrame{Channel: models.ChannelProgress, Payload: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pe := ev.(models.ProgressEvent)
	if pe.Insight == nil || pe.Insight.Direction != "UP" {
		t.Fatalf("numeric direction not normalized: %+v", pe.Insight)
	}
	if pe.Target == nil || pe.Target.Weight != 0.08 {
		t.Fatalf("target not decoded: %+v", pe.Target)
	}
	if pe.Risk == nil || pe.Risk.Status != "PASS" {
		t.Fatalf("risk status not normalized: %+v", pe.Risk)
	}
	if pe.Execution == nil || pe.Execution.Action != "BUY" {
		t.Fatalf("execution action not normalized: %+v", pe.Execution)
	}
}

func TestDecodeDirection(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`"UP"`, "UP"},
		{`"down"`, "DOWN"},
		{`"FLAT"`, "FLAT"},
		{`"sideways"`, "FLAT"},
		{`1`, "UP"},
		{`-1`, "DOWN"},
		{`0`, "FLAT"},
		{``, "FLAT"},
	}
	for _, c := range cases {
		if got := decodeDirection([]byte(c.raw)); got != c.want {
			t.Fatalf("decodeDirection(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestValidateUniverse(t *testing.T) {
	v := New()
	payload := `{"schema_version":"1.0","base_count":3200,"eligible_count":240,"selected_symbols":["AAPL","MSFT"]}`

	ev, err := v.Validate(models.RawFrame{Channel: models.ChannelUniverse, Payload: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ue := ev.(models.UniverseEvent)
	if ue.BaseCount != 3200 || ue.EligibleCount != 240 || len(ue.SelectedSymbols) != 2 {
		t.Fatalf("universe not decoded: %+v", ue)
	}
}

func TestValidateUniverseMissingCounts(t *testing.T) {
	v := New()
	payload := `{"schema_version":"1.0","selected_symbols":["AAPL"]}`

	if _, err := v.Validate(models.RawFrame{Channel: models.ChannelUniverse, Payload: payload}); !errors.Is(err, ErrChannelDecode) {
		t.Fatalf("expected ErrChannelDecode, got %v", err)
	}
}

func TestValidateUniverseZeroCounts(t *testing.T) {
	v := New()
	// explicit zeros are valid values, not missing fields
	payload := `{"schema_version":"1.0","base_count":0,"eligible_count":0}`

	ev, err := v.Validate(models.RawFrame{Channel: models.ChannelUniverse, Payload: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ue := ev.(models.UniverseEvent); ue.BaseCount != 0 {
		t.Fatalf("zero count mangled: %+v", ue)
	}
}

func TestValidateRanking(t *testing.T) {
	v := New()
	payload := `{"schema_version":"1.0","top_k":[{"symbol":"NVDA","score":0.95,"factors":{"momentum":1.2}}]}`

	ev, err := v.Validate(models.RawFrame{Channel: models.ChannelRanking, Payload: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	re := ev.(models.RankingEvent)
	if len(re.TopK) != 1 || re.TopK[0].Symbol != "NVDA" {
		t.Fatalf("ranking not decoded: %+v", re)
	}
	if re.TopK[0].Factors["momentum"] != 1.2 {
		t.Fatalf("factors not decoded: %+v", re.TopK[0].Factors)
	}
}

func TestValidateRankingMissingTopK(t *testing.T) {
	v := New()
	payload := `{"schema_version":"1.0"}`

	if _, err := v.Validate(models.RawFrame{Channel: models.ChannelRanking, Payload: payload}); !errors.Is(err, ErrChannelDecode) {
		t.Fatalf("expected ErrChannelDecode, got %v", err)
	}
}

func TestValidateUnknownChannel(t *testing.T) {
	v := New()
	if _, err := v.Validate(models.RawFrame{Channel: "heartbeat", Payload: `{}`}); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}
