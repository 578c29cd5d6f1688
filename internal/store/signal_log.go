package store

import (
	"sync"

	"SignalDeck/internal/domain/models"
)

// DefaultLogCapacity is the product-chosen retention window.
const DefaultLogCapacity = 200

// SignalLog is a bounded, append-only, time-ordered store of agent log
// entries. An entry whose (agentId, ticker, rationale) triple already exists
// anywhere in the current window is discarded, which absorbs at-least-once
// delivery from the transport without server-side acknowledgement.
type SignalLog struct {
	mu      sync.RWMutex
	cap     int
	entries []models.AgentLogEntry
}

// NewSignalLog creates a log with the given capacity (DefaultLogCapacity
// when zero or negative).
func NewSignalLog(capacity int) *SignalLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &SignalLog{cap: capacity}
}

// Append inserts an entry in arrival order. It returns false when the entry
// is a duplicate of one already in the window. When the window is full the
// oldest entry is evicted.
func (l *SignalLog) Append(e models.AgentLogEntry) bool {
	key := e.DedupKey()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Linear scan over the whole window, not just the tail. O(n) is fine at
	// n=200; switch to a seen-key set if the window ever grows.
	for i := range l.entries {
		if l.entries[i].DedupKey() == key {
			return false
		}
	}

	l.entries = append(l.entries, e)
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
	return true
}

// Snapshot returns the most recent entries in arrival order. A non-positive
// limit returns the whole window.
func (l *SignalLog) Snapshot(limit int) []models.AgentLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.AgentLogEntry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len returns the current number of retained entries.
func (l *SignalLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset clears the window. Never called automatically on reconnect.
func (l *SignalLog) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
