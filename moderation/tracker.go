package moderation

import (
	"sync"
	"time"
)

// rateKey scopes a timestamp window to one user in one group.
type rateKey struct {
	ChatID int64
	UserID int64
}

// RateTracker counts events per (chat, user) inside a trailing time window.
// State is in-memory only; losing it on restart is acceptable because the
// punitive actions it triggers are persisted separately.
type RateTracker struct {
	mu     sync.Mutex
	events map[rateKey][]time.Time
}

func NewRateTracker() *RateTracker {
	return &RateTracker{events: make(map[rateKey][]time.Time)}
}

// Record registers an event at now and returns the number of events inside
// (now-window, now], including the one just recorded. Entries older than the
// window are pruned before the new event is appended, so the returned count
// is exact for the trailing window. The prune-append-count sequence runs
// under the tracker lock, so two concurrent messages from the same user
// cannot both observe a stale count.
func (t *RateTracker) Record(key rateKey, now time.Time, window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-window)
	kept := t.events[key][:0]
	for _, ts := range t.events[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	t.events[key] = kept

	return len(kept)
}

// Reset drops a key's window entirely. Called after a punitive action so the
// offending burst does not immediately re-trigger.
func (t *RateTracker) Reset(key rateKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.events, key)
}
