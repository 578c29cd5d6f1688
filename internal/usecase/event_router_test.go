package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"SignalDeck/internal/domain/models"
	"SignalDeck/internal/store"
)

// fakeMetrics counts recorder calls for assertions.
type fakeMetrics struct {
	mu       sync.Mutex
	frames   map[string]int
	routed   map[string]int
	logEntry map[string]int
	errs     map[string]int
	streamUp bool
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		frames:   make(map[string]int),
		routed:   make(map[string]int),
		logEntry: make(map[string]int),
		errs:     make(map[string]int),
	}
}

func (m *fakeMetrics) RecordFrame(channel, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames[channel+"/"+outcome]++
}
func (m *fakeMetrics) RecordEventRouted(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routed[channel]++
}
func (m *fakeMetrics) RecordLogEntry(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logEntry[result]++
}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}
func (m *fakeMetrics) SetStreamUp(up bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamUp = up
}
func (m *fakeMetrics) RecordTickerScore(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)     {}
func (m *fakeMetrics) RecordReconnect()                  {}

func (m *fakeMetrics) count(mp map[string]int, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mp[key]
}

// captureNotifier records pushes by kind.
type captureNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *captureNotifier) Notify(kind string, _ interface{}) {
	n.mu.Lock()
	n.kinds = append(n.kinds, kind)
	n.mu.Unlock()
}

func newRouterFixture() (*EventRouter, *store.SignalLog, *store.TickerStateStore, *store.SnapshotStore, *fakeMetrics, *captureNotifier) {
	log := store.NewSignalLog(200)
	tickers := store.NewTickerStateStore()
	snapshots := store.NewSnapshotStore()
	m := newFakeMetrics()
	n := &captureNotifier{}
	r := NewEventRouter(log, tickers, snapshots, m, nil, n)
	return r, log, tickers, snapshots, m, n
}

func score(v float64) *float64 { return &v }

func TestRouteProgressAppendsLogAndUpdatesTicker(t *testing.T) {
	r, log, tickers, _, m, _ := newRouterFixture()

	r.Route(context.Background(), models.ProgressEvent{
		Agent:     "fundamental",
		Ticker:    "AAPL",
		Content:   "strong balance sheet",
		Signal:    "bullish",
		Score:     score(72),
		Timestamp: time.Now(),
	})

	if log.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", log.Len())
	}
	st, ok := tickers.Get("AAPL")
	if !ok {
		t.Fatalf("expected AAPL tracked")
	}
	if st.Score != 72 || st.Signal != models.SignalBullish {
		t.Fatalf("ticker not updated: %+v", st)
	}
	if m.count(m.logEntry, "inserted") != 1 {
		t.Fatalf("insert not recorded")
	}
}

func TestRouteProgressDuplicate(t *testing.T) {
	r, log, _, _, m, _ := newRouterFixture()

	ev := models.ProgressEvent{Agent: "a", Ticker: "T", Content: "same", Timestamp: time.Now()}
	r.Route(context.Background(), ev)
	r.Route(context.Background(), ev)

	if log.Len() != 1 {
		t.Fatalf("duplicate entered the log")
	}
	if m.count(m.logEntry, "duplicate") != 1 {
		t.Fatalf("duplicate not recorded")
	}
}

func TestRouteProgressStatusChatterSkipsTicker(t *testing.T) {
	r, _, tickers, _, _, _ := newRouterFixture()

	r.Route(context.Background(), models.ProgressEvent{
		Agent:     "orchestrator",
		Ticker:    "AAPL",
		Content:   "analysis started",
		Timestamp: time.Now(),
	})

	if tickers.Len() != 0 {
		t.Fatalf("pure status chatter must not create ticker state")
	}
}

func TestRouteProgressDefaultScore(t *testing.T) {
	r, _, tickers, _, _, _ := newRouterFixture()

	// signal but no score on an untracked symbol: the seed supplies 50
	r.Route(context.Background(), models.ProgressEvent{
		Agent:     "sentiment",
		Ticker:    "TSLA",
		Signal:    "bearish",
		Timestamp: time.Now(),
	})

	st, _ := tickers.Get("TSLA")
	if st.Score != 50 {
		t.Fatalf("expected seeded score 50, got %v", st.Score)
	}
	if st.Signal != models.SignalBearish {
		t.Fatalf("signal not applied: %v", st.Signal)
	}
}

func TestRouteProgressScorelessFrameKeepsScore(t *testing.T) {
	r, _, tickers, _, _, _ := newRouterFixture()

	r.Route(context.Background(), models.ProgressEvent{
		Agent:     "fundamental",
		Ticker:    "NVDA",
		Signal:    "bullish",
		Score:     score(82),
		Timestamp: time.Now(),
	})
	r.Route(context.Background(), models.ProgressEvent{
		Agent:     "sentiment",
		Ticker:    "NVDA",
		Signal:    "bearish",
		Timestamp: time.Now(),
	})

	st, _ := tickers.Get("NVDA")
	if st.Score != 82 {
		t.Fatalf("score-less frame regressed the score: got %v, want 82", st.Score)
	}
	if st.Signal != models.SignalBearish {
		t.Fatalf("signal from the later frame lost: %v", st.Signal)
	}
}

func TestRouteProgressNoTickerGoesToSystem(t *testing.T) {
	r, log, _, _, _, _ := newRouterFixture()

	r.Route(context.Background(), models.ProgressEvent{
		Agent:     "orchestrator",
		Content:   "universe refresh scheduled",
		Timestamp: time.Now(),
	})

	got := log.Snapshot(0)
	if len(got) != 1 || got[0].Ticker != models.SystemTicker {
		t.Fatalf("expected SYSTEM ticker, got %v", got)
	}
}

func TestRouteProgressArtifacts(t *testing.T) {
	r, _, tickers, _, _, _ := newRouterFixture()

	r.Route(context.Background(), models.ProgressEvent{
		Agent:     "portfolio",
		Ticker:    "NVDA",
		Target:    &models.Target{Weight: 0.08, Quantity: 120},
		Risk:      &models.RiskVerdict{Status: "PASS", Score: 2.1},
		Timestamp: time.Now(),
	})

	st, _ := tickers.Get("NVDA")
	if st.TargetWeight != 0.08 {
		t.Fatalf("target weight not derived: %v", st.TargetWeight)
	}
	if st.RiskScore != 2.1 {
		t.Fatalf("risk score not derived: %v", st.RiskScore)
	}
	if st.Target == nil || st.Risk == nil {
		t.Fatalf("artifacts not stored")
	}
}

func TestRouteUniverseAndRankingIndependent(t *testing.T) {
	r, _, _, snapshots, m, n := newRouterFixture()

	r.Route(context.Background(), models.RankingEvent{
		TopK: []models.RankedCandidate{{Symbol: "AAPL", Score: 0.9}},
	})
	r.Route(context.Background(), models.UniverseEvent{
		BaseCount: 3200, EligibleCount: 240, SelectedSymbols: []string{"NVDA"},
	})

	if got := snapshots.Ranking(); len(got) != 1 || got[0].Symbol != "AAPL" {
		t.Fatalf("ranking disturbed by universe event: %v", got)
	}
	u := snapshots.Universe()
	if u.Selected != 1 || u.Base != 3200 {
		t.Fatalf("universe not applied: %+v", u)
	}
	if m.count(m.routed, models.ChannelUniverse) != 1 || m.count(m.routed, models.ChannelRanking) != 1 {
		t.Fatalf("routed metrics missing")
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.kinds) != 2 {
		t.Fatalf("expected 2 notifications, got %v", n.kinds)
	}
}
