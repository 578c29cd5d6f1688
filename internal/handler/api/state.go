package api

import (
	"context"
	"net/http"
	"time"

	"SignalDeck/internal/domain/models"
	domrepo "SignalDeck/internal/domain/repository"
	"SignalDeck/internal/service/ratelimit"
	"SignalDeck/internal/services/analytics"
	"SignalDeck/internal/store"
	"SignalDeck/internal/usecase"
	xhttp "SignalDeck/pkg/http"
	xlogger "SignalDeck/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StateHandler serves the reconciled stream state over Echo.
type StateHandler struct {
	logger    *xlogger.Logger
	log       *store.SignalLog
	tickers   *store.TickerStateStore
	snapshots *store.SnapshotStore
	sessions  *usecase.SessionManager
	history   domrepo.SignalHistory
	rl        *ratelimit.Limiter
}

func NewStateHandler(
	logger *xlogger.Logger,
	log *store.SignalLog,
	tickers *store.TickerStateStore,
	snapshots *store.SnapshotStore,
	sessions *usecase.SessionManager,
	history domrepo.SignalHistory,
) *StateHandler {
	return &StateHandler{
		logger:    logger,
		log:       log,
		tickers:   tickers,
		snapshots: snapshots,
		sessions:  sessions,
		history:   history,
		rl:        ratelimit.New(),
	}
}

func (h *StateHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/log", h.Log)
	g.GET("/log/history", h.LogHistory)
	g.GET("/tickers", h.Tickers)
	g.GET("/tickers/:symbol", h.Ticker)
	g.GET("/breadth", h.Breadth)
	g.GET("/universe", h.Universe)
	g.GET("/ranking", h.Ranking)
	g.GET("/stream/status", h.StreamStatus)
	g.POST("/stream/subscribe", h.Subscribe)
	g.POST("/stream/stop", h.Stop)
	g.POST("/state/reset", h.Reset)
}

// Log returns the in-memory agent log window, newest last.
func (h *StateHandler) Log(c echo.Context) error {
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0)
	rows := h.log.Snapshot(limit)
	return xhttp.ListResponse(c, rows, int64(h.log.Len()))
}

// LogHistory queries the persisted history store. Rate limited per remote
// since every hit is a ClickHouse scan.
func (h *StateHandler) LogHistory(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(
			"ERR_HISTORY_DISABLED", "", "history store is not configured", http.StatusServiceUnavailable))
	}
	if !h.rl.Allow(c.RealIP()+":history", 3, 1) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(
			"ERR_RATE_LIMITED", "", "too many history requests", http.StatusTooManyRequests))
	}

	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)

	rows, err := h.history.Query(c.Request().Context(), req.Ticker, from, to, req.Limit)
	if err != nil {
		h.logger.Error("history query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history query failed").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Tickers returns every reconciled ticker state, sorted by symbol.
func (h *StateHandler) Tickers(c echo.Context) error {
	rows := h.tickers.All()
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Ticker returns one symbol's state.
func (h *StateHandler) Ticker(c echo.Context) error {
	symbol := c.Param("symbol")
	st, ok := h.tickers.Get(symbol)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("ticker %s not tracked", symbol))
	}
	return xhttp.SuccessResponse(c, st)
}

// Breadth returns aggregate statistics over the tracked tickers.
func (h *StateHandler) Breadth(c echo.Context) error {
	return xhttp.SuccessResponse(c, analytics.ComputeBreadth(h.tickers.All()))
}

// Universe returns the latest universe snapshot.
func (h *StateHandler) Universe(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.snapshots.Universe())
}

// Ranking returns the latest ranked-candidate list.
func (h *StateHandler) Ranking(c echo.Context) error {
	rows := h.snapshots.Ranking()
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// StreamStatus reports the active session.
func (h *StateHandler) StreamStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.sessions.Status())
}

// Subscribe switches the active subscription to the requested parameters.
func (h *StateHandler) Subscribe(c echo.Context) error {
	req := &models.SubscribeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	status, err := h.sessions.Subscribe(c.Request().Context(), req.Params())
	if err != nil {
		h.logger.Error("subscribe error",
			xlogger.String("scope", req.SymbolScope),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(
			"ERR_UPSTREAM", "", "stream connect failed", http.StatusBadGateway).WithError(err))
	}
	return xhttp.SuccessResponse(c, status)
}

// Stop disposes the active session. State stores are left intact.
func (h *StateHandler) Stop(c echo.Context) error {
	h.sessions.Stop()
	return xhttp.SuccessResponse(c, h.sessions.Status())
}

// Reset clears the log, ticker states, and snapshots. Explicit operator
// action only; never triggered by reconnects.
func (h *StateHandler) Reset(c echo.Context) error {
	h.log.Reset()
	h.tickers.Reset()
	h.snapshots.Reset()
	h.logger.Info("state reset")
	return xhttp.NoContentResponse(c)
}

// Health reports process liveness plus history-store reachability.
func (h *StateHandler) Health(c echo.Context) error {
	out := map[string]string{"status": "ok"}
	if h.history != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.history.Health(ctx); err != nil {
			out["history"] = "degraded"
		} else {
			out["history"] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, out)
}
