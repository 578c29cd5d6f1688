package repository

import (
	"context"
	"time"

	"SignalDeck/internal/domain/models"
)

// AnalysisStream is one live connection to the analysis engine's event
// stream. Implementations never reconnect on their own; a new subscription
// means a new instance.
type AnalysisStream interface {
	Connect(ctx context.Context) (<-chan models.RawFrame, <-chan error, error)
	Close() error
	IsConnected() bool
}

// SignalHistory persists accepted log entries for retrieval beyond the
// in-memory retention window.
type SignalHistory interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, e models.AgentLogEntry) error
	Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.AgentLogEntry, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher re-publishes validated events for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.Event) error
	Close() error
}

// SnapshotCache stores wholesale snapshots so a restart can warm-start the
// dashboard view.
type SnapshotCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

type Metrics interface {
	RecordFrame(channel, outcome string)
	RecordEventRouted(channel string)
	RecordLogEntry(result string)
	RecordError(kind string)
	SetStreamUp(up bool)
	RecordTickerScore(symbol string, score float64)
	RecordLatency(op string, seconds float64)
	RecordReconnect()
}
