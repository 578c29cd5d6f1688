package usecase

import (
	"context"
	"sync"

	"SignalDeck/internal/domain/models"
	drepo "SignalDeck/internal/domain/repository"
	applogger "SignalDeck/pkg/logger"
)

// SessionFactory builds a fresh session for one parameter set. Sessions are
// never reused; a desired-params change always produces a new instance.
type SessionFactory func(params models.StreamParams) *StreamSession

// SessionManager is the composition layer: it holds at most one active
// session, de-duplicated by params equality. The old session's transport is
// closed before the new one opens.
type SessionManager struct {
	factory  SessionFactory
	metrics  drepo.Metrics
	logger   *applogger.Logger
	notifier Notifier // optional, pushed on every status change

	mu     sync.Mutex
	active *StreamSession
	opened bool // at least one session has been opened
}

func NewSessionManager(factory SessionFactory, metrics drepo.Metrics, logger *applogger.Logger, notifier Notifier) *SessionManager {
	return &SessionManager{factory: factory, metrics: metrics, logger: logger, notifier: notifier}
}

// Subscribe switches the active subscription to params. Subscribing with the
// params of a live session is a no-op; anything else disposes the old
// session synchronously and connects a new one.
func (m *SessionManager) Subscribe(ctx context.Context, params models.StreamParams) (models.StreamStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		st := m.active.Status()
		if m.active.Params().Equal(params) && (st.State == models.SessionOpen || st.State == models.SessionConnecting) {
			return st, nil
		}
		m.active.Dispose()
		m.logger.Info("stream session disposed",
			applogger.String("scope", m.active.Params().SymbolScope),
		)
	}

	s := m.factory(params)
	if err := s.Connect(ctx); err != nil {
		m.active = s
		m.notifyStatus(s.Status())
		return s.Status(), err
	}
	if m.opened {
		m.metrics.RecordReconnect()
	}
	m.opened = true
	m.active = s
	m.logger.Info("stream session opened",
		applogger.String("scope", params.SymbolScope),
		applogger.String("market", params.Market),
		applogger.Int("top_k", params.TopK),
	)
	m.notifyStatus(s.Status())
	return s.Status(), nil
}

// Stop disposes the active session, if any.
func (m *SessionManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		m.active.Dispose()
		m.notifyStatus(m.active.Status())
	}
}

func (m *SessionManager) notifyStatus(st models.StreamStatus) {
	if m.notifier != nil {
		m.notifier.Notify("status", st)
	}
}

// Status reports the active session's status; Disconnected when none exists.
func (m *SessionManager) Status() models.StreamStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return models.StreamStatus{Connected: false, State: models.SessionNew}
	}
	return m.active.Status()
}
