package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SignalDeck/internal/domain/models"
)

type memHistory struct {
	mu      sync.Mutex
	entries []models.AgentLogEntry
	fail    bool
}

func (h *memHistory) Init(context.Context) error { return nil }
func (h *memHistory) Store(_ context.Context, e models.AgentLogEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail {
		return errors.New("unavailable")
	}
	h.entries = append(h.entries, e)
	return nil
}
func (h *memHistory) Query(context.Context, string, time.Time, time.Time, int) ([]models.AgentLogEntry, error) {
	return nil, nil
}
func (h *memHistory) Health(context.Context) error { return nil }
func (h *memHistory) Close() error                 { return nil }

func (h *memHistory) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *memHistory) setFail(v bool) {
	h.mu.Lock()
	h.fail = v
	h.mu.Unlock()
}

type memCache struct {
	mu   sync.Mutex
	keys map[string]interface{}
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys == nil {
		c.keys = make(map[string]interface{})
	}
	c.keys[key] = value
	return nil
}
func (c *memCache) Get(context.Context, string, interface{}) error { return errors.New("miss") }

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[key]
	return ok
}

type countMetrics struct {
	mu   sync.Mutex
	errs map[string]int
}

func (m *countMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errs == nil {
		m.errs = make(map[string]int)
	}
	m.errs[kind]++
}
func (m *countMetrics) RecordFrame(string, string)        {}
func (m *countMetrics) RecordEventRouted(string)          {}
func (m *countMetrics) RecordLogEntry(string)             {}
func (m *countMetrics) SetStreamUp(bool)                  {}
func (m *countMetrics) RecordTickerScore(string, float64) {}
func (m *countMetrics) RecordLatency(string, float64)     {}
func (m *countMetrics) RecordReconnect()                  {}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", msg)
}

func TestPipelineFlushesEntries(t *testing.T) {
	h := &memHistory{}
	p := NewSinkPipeline(h, nil, nil, &countMetrics{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	p.OfferEntry(models.AgentLogEntry{ID: "1", AgentID: "a"})
	waitUntil(t, func() bool { return h.len() == 1 }, "entry flushed")
}

func TestPipelineFlushesSnapshots(t *testing.T) {
	c := &memCache{}
	p := NewSinkPipeline(nil, nil, c, &countMetrics{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	p.OfferSnapshot(SnapshotKeyUniverse, models.UniverseCounts{Base: 10})
	waitUntil(t, func() bool { return c.has(SnapshotKeyUniverse) }, "snapshot cached")
}

func TestPipelineRetriesOnFailure(t *testing.T) {
	h := &memHistory{}
	h.setFail(true)
	m := &countMetrics{}
	p := NewSinkPipeline(h, nil, nil, m)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	p.OfferEntry(models.AgentLogEntry{ID: "1", AgentID: "a"})

	waitUntil(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.errs["sink_flush"] > 0
	}, "flush failure recorded")

	h.setFail(false)
	waitUntil(t, func() bool { return h.len() == 1 }, "entry flushed after recovery")
}

func TestPipelineSkipsAbsentSinks(t *testing.T) {
	p := NewSinkPipeline(nil, nil, nil, &countMetrics{})
	// offers to nil sinks are no-ops, not buffered jobs
	p.OfferEntry(models.AgentLogEntry{ID: "1"})
	p.OfferSnapshot(SnapshotKeyRanking, nil)
	if len(p.bufCh) != 0 {
		t.Fatalf("jobs buffered for absent sinks")
	}
}
