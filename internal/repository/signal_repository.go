package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SignalDeck/internal/domain/models"
	"SignalDeck/internal/domain/repository"
	pkgkafka "SignalDeck/pkg/kafka"
)

// ClickHouseSignalHistory implements SignalHistory for ClickHouse.
type ClickHouseSignalHistory struct {
	db    *sql.DB
	table string
}

// NewClickHouseSignalHistory creates ClickHouse-backed history storage.
func NewClickHouseSignalHistory(db *sql.DB, table string) repository.SignalHistory {
	return &ClickHouseSignalHistory{db: db, table: table}
}

// Init creates the history table when it does not exist.
func (s *ClickHouseSignalHistory) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id String,
		ts DateTime64(3),
		ticker LowCardinality(String),
		agent LowCardinality(String),
		signal LowCardinality(String),
		confidence Float64,
		magnitude Float64,
		rationale String
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(ts)
	ORDER BY (ticker, ts)`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *ClickHouseSignalHistory) Store(ctx context.Context, e models.AgentLogEntry) error {
	q := fmt.Sprintf("INSERT INTO %s (id, ts, ticker, agent, signal, confidence, magnitude, rationale) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		e.ID,
		e.Timestamp,
		e.Ticker,
		e.AgentID,
		string(e.Signal),
		e.Confidence,
		e.Magnitude,
		e.Rationale,
	)
	return err
}

func (s *ClickHouseSignalHistory) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.AgentLogEntry, error) {
	q := fmt.Sprintf("SELECT id, ts, ticker, agent, signal, confidence, magnitude, rationale FROM %s WHERE ts >= ? AND ts <= ?", s.table)
	args := []interface{}{from, to}
	if ticker != "" {
		q += " AND ticker = ?"
		args = append(args, ticker)
	}
	q += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AgentLogEntry
	for rows.Next() {
		var e models.AgentLogEntry
		var signal string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Ticker, &e.AgentID, &signal, &e.Confidence, &e.Magnitude, &e.Rationale); err != nil {
			return nil, err
		}
		e.Signal = models.SignalClass(signal)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *ClickHouseSignalHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalHistory) Close() error {
	return nil // Managed by pkg
}

// KafkaEventPublisher implements EventPublisher for Kafka. Messages are
// keyed by ticker (or channel name for symbol-less events) so per-symbol
// ordering survives partitioning.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev models.Event) error {
	key := ev.EventChannel()
	payload := map[string]interface{}{
		"channel": ev.EventChannel(),
	}

	switch e := ev.(type) {
	case models.ProgressEvent:
		if e.Ticker != "" {
			key = e.Ticker
		}
		payload["agent"] = e.Agent
		payload["ticker"] = e.Ticker
		payload["signal"] = string(models.SignalClassFrom(e.Signal))
		if e.Score != nil {
			payload["score"] = *e.Score
		}
		payload["content"] = e.Content
		payload["timestamp"] = e.Timestamp
	case models.UniverseEvent:
		payload["base_count"] = e.BaseCount
		payload["eligible_count"] = e.EligibleCount
		payload["selected_symbols"] = e.SelectedSymbols
	case models.RankingEvent:
		payload["top_k"] = e.TopK
	}

	return p.producer.Publish(ctx, p.topic, []byte(key), payload)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
