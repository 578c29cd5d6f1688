package di

import (
	"context"
	"fmt"
	"time"

	"SignalDeck/internal/domain/models"
	domrepo "SignalDeck/internal/domain/repository"
	"SignalDeck/internal/handler/api"
	"SignalDeck/internal/handler/ws"
	mid "SignalDeck/internal/middleware"
	internalrepo "SignalDeck/internal/repository"
	"SignalDeck/internal/service/schema"
	"SignalDeck/internal/service/stream"
	"SignalDeck/internal/store"
	"SignalDeck/internal/usecase"
	pkgcache "SignalDeck/pkg/cache"
	pkgch "SignalDeck/pkg/clickhouse"
	"SignalDeck/pkg/config"
	xhttp "SignalDeck/pkg/http"
	pkgkafka "SignalDeck/pkg/kafka"
	applogger "SignalDeck/pkg/logger"
	"SignalDeck/pkg/metrics"
	"SignalDeck/pkg/server"

	"github.com/labstack/echo/v4"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCache selects Redis when configured, in-memory otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Cache.Redis.Enabled {
		c, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(cfg.Cache.Redis.Addr),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return pkgcache.NewMemoryCache(), nil
}

// ProvideClickHouseClient creates a ClickHouse client when the history sink
// is enabled. Returns nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Sinks.ClickHouse {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, false),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideSignalHistory creates the ClickHouse-backed history store. Nil when
// the sink is disabled.
func ProvideSignalHistory(client *pkgch.Client, cfg *config.Config) (domrepo.SignalHistory, error) {
	if client == nil {
		return nil, nil
	}
	h := internalrepo.NewClickHouseSignalHistory(client.DB(), cfg.ClickHouse.Database+".signal_log")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Init(ctx); err != nil {
		return nil, fmt.Errorf("history init: %w", err)
	}
	return h, nil
}

// ProvideKafkaProducer creates a Kafka producer when the republish sink is
// enabled. Returns nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Sinks.Kafka {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher creates the Kafka re-publish sink. Nil when disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSinkPipeline wires the optional side channels behind a buffer.
func ProvideSinkPipeline(
	history domrepo.SignalHistory,
	pub domrepo.EventPublisher,
	cacheSvc pkgcache.Service,
	m domrepo.Metrics,
	cfg *config.Config,
) *mid.SinkPipeline {
	return mid.NewSinkPipeline(history, pub, cacheSvc, m,
		mid.WithBufferSize(cfg.Sinks.BufferSize),
		mid.WithFlushRetry(cfg.Sinks.FlushRetry),
		mid.WithSnapshotTTL(cfg.Cache.SnapshotTTL),
	)
}

// ProvideSignalLog creates the bounded agent log.
func ProvideSignalLog(cfg *config.Config) *store.SignalLog {
	return store.NewSignalLog(cfg.SignalLog.Capacity)
}

// ProvideTickerStateStore creates the per-symbol state store.
func ProvideTickerStateStore() *store.TickerStateStore {
	return store.NewTickerStateStore()
}

// ProvideSnapshotStore creates the universe/ranking snapshot store.
func ProvideSnapshotStore() *store.SnapshotStore {
	return store.NewSnapshotStore()
}

// ProvideHub creates the WebSocket fan-out hub.
func ProvideHub(logger *applogger.Logger) *ws.Hub {
	return ws.NewHub(logger)
}

// ProvideValidator creates the frame schema validator.
func ProvideValidator() *schema.Validator {
	return schema.New()
}

// ProvideEventRouter creates the channel → state router.
func ProvideEventRouter(
	log *store.SignalLog,
	tickers *store.TickerStateStore,
	snapshots *store.SnapshotStore,
	m domrepo.Metrics,
	sinks *mid.SinkPipeline,
	hub *ws.Hub,
) *usecase.EventRouter {
	return usecase.NewEventRouter(log, tickers, snapshots, m, sinks, hub)
}

// ProvideSessionFactory builds fresh sessions for each parameter set.
func ProvideSessionFactory(
	cfg *config.Config,
	validator *schema.Validator,
	router *usecase.EventRouter,
	m domrepo.Metrics,
	logger *applogger.Logger,
) usecase.SessionFactory {
	return func(params models.StreamParams) *usecase.StreamSession {
		tr := stream.New(cfg.Engine.BaseURL, params, cfg.Engine.DialTimeout)
		return usecase.NewStreamSession(params, tr, validator, router, m, logger)
	}
}

// ProvideSessionManager creates the single-active-session composition layer.
func ProvideSessionManager(factory usecase.SessionFactory, m domrepo.Metrics, logger *applogger.Logger, hub *ws.Hub) *usecase.SessionManager {
	return usecase.NewSessionManager(factory, m, logger, hub)
}

// ProvideStateHandler creates the read-surface HTTP handler.
func ProvideStateHandler(
	logger *applogger.Logger,
	log *store.SignalLog,
	tickers *store.TickerStateStore,
	snapshots *store.SnapshotStore,
	sessions *usecase.SessionManager,
	history domrepo.SignalHistory,
) *api.StateHandler {
	return api.NewStateHandler(logger, log, tickers, snapshots, sessions, history)
}

// compositeHandler registers every route group on one Echo instance.
type compositeHandler struct {
	parts []xhttp.Handler
}

func (h compositeHandler) RegisterRoutes(e *echo.Echo) {
	for _, p := range h.parts {
		p.RegisterRoutes(e)
	}
}

// ProvideHTTPHandler combines the API and WebSocket route groups.
func ProvideHTTPHandler(state *api.StateHandler, hub *ws.Hub) xhttp.Handler {
	return compositeHandler{parts: []xhttp.Handler{state, hub}}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	sessions *usecase.SessionManager,
	sinks *mid.SinkPipeline,
	snapshots *store.SnapshotStore,
	cacheSvc pkgcache.Service,
	hub *ws.Hub,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, logger, handler, sessions, sinks, snapshots, cacheSvc, hub, chClient, producer)
}
