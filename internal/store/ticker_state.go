package store

import (
	"sort"
	"sync"

	"github.com/creasty/defaults"

	"SignalDeck/internal/domain/models"
)

// TickerStateStore maps symbol → current reconciled TickerState. The first
// reference to a symbol seeds the default state; every later update is a
// field-level partial merge. Single writer, many readers.
type TickerStateStore struct {
	mu sync.RWMutex
	m  map[string]*models.TickerState
}

func NewTickerStateStore() *TickerStateStore {
	return &TickerStateStore{m: make(map[string]*models.TickerState)}
}

// seed builds the default state for a symbol (score 50, NEUTRAL, rsi 50,
// riskScore 3.0 "safe", zero target weight, neutral factor vector).
func seed(symbol string) *models.TickerState {
	st := &models.TickerState{Symbol: symbol}
	_ = defaults.Set(st)
	return st
}

// Apply merges a partial update into the symbol's state and returns the
// resulting snapshot. Nil update fields never overwrite existing values.
func (s *TickerStateStore) Apply(symbol string, u models.TickerUpdate) models.TickerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.m[symbol]
	if !ok {
		st = seed(symbol)
		s.m[symbol] = st
	}

	if u.Price != nil {
		st.Price = *u.Price
	}
	if u.Score != nil {
		st.Score = *u.Score
	}
	if u.Signal != nil {
		st.Signal = *u.Signal
	}
	if u.RSI != nil {
		st.RSI = *u.RSI
	}
	if u.RiskScore != nil {
		st.RiskScore = *u.RiskScore
	}
	if u.TargetWeight != nil {
		st.TargetWeight = *u.TargetWeight
	}
	if u.Factors != nil {
		st.Factors = *u.Factors
	}
	if u.Insight != nil {
		v := *u.Insight
		st.Insight = &v
	}
	if u.Target != nil {
		v := *u.Target
		st.Target = &v
	}
	if u.Risk != nil {
		v := *u.Risk
		st.Risk = &v
	}
	if u.Execution != nil {
		v := *u.Execution
		st.Execution = &v
	}
	if !u.Timestamp.IsZero() {
		st.UpdatedAt = u.Timestamp
	}

	return *st
}

// Get returns the state for a symbol, if any event has ever referenced it.
func (s *TickerStateStore) Get(symbol string) (models.TickerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[symbol]
	if !ok {
		return models.TickerState{}, false
	}
	return *st, true
}

// All returns every tracked state, sorted by symbol for stable output.
func (s *TickerStateStore) All() []models.TickerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TickerState, 0, len(s.m))
	for _, st := range s.m {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Len returns the number of tracked symbols.
func (s *TickerStateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Reset drops all tracked symbols. Never called automatically on reconnect.
func (s *TickerStateStore) Reset() {
	s.mu.Lock()
	s.m = make(map[string]*models.TickerState)
	s.mu.Unlock()
}
