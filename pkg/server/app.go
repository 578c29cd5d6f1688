package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SignalDeck/internal/domain/models"
	"SignalDeck/internal/handler/ws"
	mid "SignalDeck/internal/middleware"
	"SignalDeck/internal/store"
	"SignalDeck/internal/usecase"
	pkgcache "SignalDeck/pkg/cache"
	pkgch "SignalDeck/pkg/clickhouse"
	"SignalDeck/pkg/config"
	xhttp "SignalDeck/pkg/http"
	pkgkafka "SignalDeck/pkg/kafka"
	applogger "SignalDeck/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	logger    *applogger.Logger
	handler   xhttp.Handler
	sessions  *usecase.SessionManager
	sinks     *mid.SinkPipeline
	snapshots *store.SnapshotStore
	cache     pkgcache.Service
	hub       *ws.Hub
	chClient  *pkgch.Client
	producer  *pkgkafka.Producer

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	sessions *usecase.SessionManager,
	sinks *mid.SinkPipeline,
	snapshots *store.SnapshotStore,
	cache pkgcache.Service,
	hub *ws.Hub,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		handler:   handler,
		sessions:  sessions,
		sinks:     sinks,
		snapshots: snapshots,
		cache:     cache,
		hub:       hub,
		chClient:  chClient,
		producer:  producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.sinks.Start(ctx)
	a.warmStart(ctx)

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestLogger(a.logger, 0),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	if a.cfg.Engine.AutoStart {
		params := models.StreamParams{
			SymbolScope: a.cfg.Engine.SymbolScope,
			Market:      a.cfg.Engine.Market,
			TopK:        a.cfg.Engine.TopK,
		}
		if _, err := a.sessions.Subscribe(ctx, params); err != nil {
			// The stream can be brought up later via the subscribe endpoint.
			a.logger.Warn("auto-start subscribe failed", applogger.Error(err))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// warmStart restores the last persisted snapshots so the read surface is not
// empty between process start and the first stream update.
func (a *App) warmStart(ctx context.Context) {
	if a.cache == nil {
		return
	}

	var u models.UniverseCounts
	if err := a.cache.Get(ctx, mid.SnapshotKeyUniverse, &u); err == nil && u.Base > 0 {
		a.snapshots.SetUniverse(u)
		a.logger.Info("universe snapshot restored", applogger.Int("selected", u.Selected))
	}

	var rows []models.RankedCandidate
	if err := a.cache.Get(ctx, mid.SnapshotKeyRanking, &rows); err == nil && len(rows) > 0 {
		a.snapshots.SetRanking(rows)
		a.logger.Info("ranking snapshot restored", applogger.Int("rows", len(rows)))
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.sessions.Stop()
	a.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.sinks.Stop()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
