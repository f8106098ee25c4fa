// Package episodes holds the in-memory episode log fed by the simulation
// engine. The log is transient: it lives for the process and can be
// cleared on demand.
package episodes

import (
	"sync"

	"github.com/autorl-dev/autorl/internal/domain"
)

// Log is an insertion-ordered, concurrency-safe episode list
type Log struct {
	mu       sync.Mutex
	episodes []domain.Episode
}

// NewLog creates an empty episode log
func NewLog() *Log {
	return &Log{}
}

// Append adds an episode to the end of the log
func (l *Log) Append(ep domain.Episode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.episodes = append(l.episodes, ep)
}

// List returns a copy of the log in insertion order.
// An empty log yields an empty (non-nil) slice.
func (l *Log) List() []domain.Episode {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Episode, len(l.episodes))
	copy(out, l.episodes)
	return out
}

// Len returns the number of recorded episodes
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.episodes)
}

// Reset clears the log. Runs still in flight may append afterwards.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.episodes = nil
}
