package usecase

import (
	"context"
	"errors"
	"sync"

	"SignalDeck/internal/domain/models"
	drepo "SignalDeck/internal/domain/repository"
	"SignalDeck/internal/service/ratelimit"
	"SignalDeck/internal/service/schema"
	applogger "SignalDeck/pkg/logger"
)

// ErrSessionTerminal is returned when Connect is called on a session that
// has already closed or errored. Terminal states are final for an instance;
// new params always mean a new instance.
var ErrSessionTerminal = errors.New("stream session is terminal")

// StreamSession owns exactly one live connection to the analysis stream and
// feeds raw frames through the validator → router pipeline. Delivery is
// single-goroutine: each frame is handled to completion before the next.
// The session never retries on its own; retry policy belongs to the caller.
type StreamSession struct {
	params    models.StreamParams
	stream    drepo.AnalysisStream
	validator *schema.Validator
	router    *EventRouter
	metrics   drepo.Metrics
	logger    *applogger.Logger
	diag      *ratelimit.Limiter

	mu     sync.Mutex
	state  models.SessionState
	reason string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStreamSession creates a session in the NEW state.
func NewStreamSession(
	params models.StreamParams,
	stream drepo.AnalysisStream,
	validator *schema.Validator,
	router *EventRouter,
	metrics drepo.Metrics,
	logger *applogger.Logger,
) *StreamSession {
	return &StreamSession{
		params:    params,
		stream:    stream,
		validator: validator,
		router:    router,
		metrics:   metrics,
		logger:    logger,
		diag:      ratelimit.New(),
		state:     models.SessionNew,
		done:      make(chan struct{}),
	}
}

// Params returns the subscription parameters this session is keyed by.
func (s *StreamSession) Params() models.StreamParams { return s.params }

// Connect opens the transport and starts delivery. It is idempotent while
// the session is connecting or open, and fails once the session is terminal.
func (s *StreamSession) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case models.SessionConnecting, models.SessionOpen:
		s.mu.Unlock()
		return nil
	case models.SessionClosed, models.SessionErrored:
		s.mu.Unlock()
		return ErrSessionTerminal
	}
	s.state = models.SessionConnecting
	s.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)

	frames, errs, err := s.stream.Connect(loopCtx)
	if err != nil {
		cancel()
		s.transition(models.SessionErrored, err.Error())
		s.closeDone()
		return err
	}

	s.mu.Lock()
	if s.state != models.SessionConnecting {
		// Dispose won the race while the transport was dialing
		s.mu.Unlock()
		cancel()
		_ = s.stream.Close()
		return ErrSessionTerminal
	}
	s.cancel = cancel
	s.state = models.SessionOpen
	s.mu.Unlock()
	s.metrics.SetStreamUp(true)

	go s.consume(loopCtx, frames, errs)
	return nil
}

// consume is the single delivery goroutine. It exits on end-of-stream,
// transport error, or cancellation, and always closes done.
func (s *StreamSession) consume(ctx context.Context, frames <-chan models.RawFrame, errs <-chan error) {
	defer close(s.done)
	defer s.metrics.SetStreamUp(false)

	for {
		select {
		case <-ctx.Done():
			s.transition(models.SessionClosed, "")
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				s.logger.Warn("stream transport error", applogger.Error(err))
				s.metrics.RecordError("transport")
				_ = s.stream.Close()
				s.transition(models.SessionErrored, err.Error())
				return
			}
		case f, ok := <-frames:
			if !ok {
				// sentinel or server-side end of stream: a clean close
				s.transition(models.SessionClosed, "end of stream")
				return
			}
			s.handle(ctx, f)
		}
	}
}

// handle runs one frame through the validate → route pipeline. Decode and
// validation failures are dropped here and never escape.
func (s *StreamSession) handle(ctx context.Context, f models.RawFrame) {
	ev, err := s.validator.Validate(f)
	if err != nil {
		s.metrics.RecordFrame(f.Channel, dropOutcome(err))
		// diagnostic only, throttled so a misbehaving peer cannot flood logs
		if s.diag.Allow("drop:"+f.Channel, 5, 1) {
			s.logger.Debug("frame dropped",
				applogger.String("channel", f.Channel),
				applogger.Error(err),
			)
		}
		return
	}
	s.metrics.RecordFrame(f.Channel, "accepted")
	s.router.Route(ctx, ev)
}

func dropOutcome(err error) string {
	switch {
	case errors.Is(err, schema.ErrUnknownChannel):
		return "unknown_channel"
	case errors.Is(err, schema.ErrChannelDecode):
		return "decode_drop"
	default:
		return "schema_drop"
	}
}

// Dispose detaches delivery and closes the transport synchronously. No event
// reaches the router after Dispose returns.
func (s *StreamSession) Dispose() {
	s.mu.Lock()
	cancel := s.cancel
	started := cancel != nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = s.stream.Close()

	if started {
		<-s.done
	} else {
		s.transition(models.SessionClosed, "")
		s.closeDone()
	}
}

// closeDone closes the done channel at most once.
func (s *StreamSession) closeDone() {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
}

// transition moves to a terminal state exactly once; the first terminal
// transition wins so an error reason is not overwritten by a later close.
func (s *StreamSession) transition(state models.SessionState, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == models.SessionClosed || s.state == models.SessionErrored {
		return
	}
	s.state = state
	s.reason = reason
}

// Status reports the current connection status for the UI layer.
func (s *StreamSession) Status() models.StreamStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.StreamStatus{
		Connected: s.state == models.SessionOpen,
		State:     s.state,
		Reason:    s.reason,
		Params:    s.params,
	}
}
