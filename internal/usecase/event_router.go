package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"SignalDeck/internal/domain/models"
	drepo "SignalDeck/internal/domain/repository"
	mid "SignalDeck/internal/middleware"
	"SignalDeck/internal/store"
)

// Notifier receives a push for every state mutation the router applies.
// Implementations must not block.
type Notifier interface {
	Notify(kind string, payload interface{})
}

// EventRouter applies validated events to the reconciled state. Each channel
// handler is independently idempotent under replay; ordering is guaranteed
// only within one connection.
type EventRouter struct {
	log       *store.SignalLog
	tickers   *store.TickerStateStore
	snapshots *store.SnapshotStore
	metrics   drepo.Metrics
	sinks     *mid.SinkPipeline // optional
	notifier  Notifier          // optional
}

// NewEventRouter creates a router over the three state stores.
func NewEventRouter(
	log *store.SignalLog,
	tickers *store.TickerStateStore,
	snapshots *store.SnapshotStore,
	metrics drepo.Metrics,
	sinks *mid.SinkPipeline,
	notifier Notifier,
) *EventRouter {
	return &EventRouter{
		log:       log,
		tickers:   tickers,
		snapshots: snapshots,
		metrics:   metrics,
		sinks:     sinks,
		notifier:  notifier,
	}
}

// Route dispatches one validated event to the matching state mutation.
func (r *EventRouter) Route(ctx context.Context, ev models.Event) {
	start := time.Now()

	switch e := ev.(type) {
	case models.ProgressEvent:
		r.progress(ctx, e)
	case models.UniverseEvent:
		r.universe(ctx, e)
	case models.RankingEvent:
		r.ranking(ctx, e)
	default:
		// validator only produces the three variants above
		r.metrics.RecordError("route_unhandled")
		return
	}

	r.metrics.RecordEventRouted(ev.EventChannel())
	r.metrics.RecordLatency("route", time.Since(start).Seconds())

	if r.sinks != nil {
		r.sinks.OfferEvent(ev)
	}
}

func (r *EventRouter) progress(ctx context.Context, e models.ProgressEvent) {
	ticker := e.Ticker
	if ticker == "" {
		ticker = models.SystemTicker
	}

	entry := models.AgentLogEntry{
		ID:         uuid.NewString(),
		Timestamp:  e.Timestamp,
		Ticker:     ticker,
		AgentID:    e.Agent,
		Signal:     models.SignalClassFrom(e.Signal),
		Confidence: e.Confidence,
		Magnitude:  e.Magnitude,
		Rationale:  e.Content,
	}

	if r.log.Append(entry) {
		r.metrics.RecordLogEntry("inserted")
		if r.sinks != nil {
			r.sinks.OfferEntry(entry)
		}
		r.notify("log", entry)
	} else {
		r.metrics.RecordLogEntry("duplicate")
	}

	// A frame that carries a signal or score (or staged artifacts) also moves
	// the ticker view; pure status chatter does not.
	if e.Score == nil && e.Signal == "" && e.Insight == nil && e.Target == nil && e.Risk == nil && e.Execution == nil {
		return
	}

	// An absent score stays absent: the store seeds 50 on first touch and a
	// score-less frame must not drag an established score back to it.
	u := models.TickerUpdate{Timestamp: e.Timestamp, Score: e.Score}
	if e.Signal != "" {
		cls := models.SignalClassFrom(e.Signal)
		u.Signal = &cls
	}
	u.Insight = e.Insight
	u.Risk = e.Risk
	u.Execution = e.Execution
	if e.Target != nil {
		u.Target = e.Target
		w := e.Target.Weight
		u.TargetWeight = &w
	}
	if e.Risk != nil {
		s := e.Risk.Score
		u.RiskScore = &s
	}

	st := r.tickers.Apply(ticker, u)
	r.metrics.RecordTickerScore(ticker, st.Score)
	r.notify("ticker", st)
}

func (r *EventRouter) universe(ctx context.Context, e models.UniverseEvent) {
	u := models.UniverseCounts{
		Base:            e.BaseCount,
		Eligible:        e.EligibleCount,
		Selected:        len(e.SelectedSymbols),
		SelectedSymbols: e.SelectedSymbols,
	}
	r.snapshots.SetUniverse(u)
	if r.sinks != nil {
		r.sinks.OfferSnapshot(mid.SnapshotKeyUniverse, u)
	}
	r.notify("universe", u)
}

func (r *EventRouter) ranking(ctx context.Context, e models.RankingEvent) {
	r.snapshots.SetRanking(e.TopK)
	if r.sinks != nil {
		r.sinks.OfferSnapshot(mid.SnapshotKeyRanking, e.TopK)
	}
	r.notify("ranking", e.TopK)
}

func (r *EventRouter) notify(kind string, payload interface{}) {
	if r.notifier != nil {
		r.notifier.Notify(kind, payload)
	}
}
