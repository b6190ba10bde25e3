package availability

import (
	"sync"
	"time"
)

// DefaultBlacklistDuration is the suppression window applied when
// MarkUnavailable is called with a zero duration.
const DefaultBlacklistDuration = time.Hour

// Entry is a snapshot of the tracked state for one model.
type Entry struct {
	// BlacklistedUntil is the end of the current suppression window.
	// Zero means the model is not blacklisted.
	BlacklistedUntil time.Time

	// UsageCount is the number of successful invocations recorded.
	UsageCount int64

	// TokensUsed accumulates token counts reported via RecordUsage.
	TokensUsed int64

	// LastUsed is the time of the most recent RecordUsage call.
	LastUsed time.Time
}

// Tracker holds per-model circuit-breaker state. It is safe for concurrent
// use; the mutex is held only across map updates, never across a network
// call.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// NewTracker constructs an empty tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsAvailable reports whether id is outside any suppression window.
// Unknown models are available: the tracker only covers the time window,
// deprecation is the selector's concern.
func (t *Tracker) IsAvailable(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok || e.BlacklistedUntil.IsZero() {
		return true
	}
	return !t.now().Before(e.BlacklistedUntil)
}

// MarkUnavailable suppresses id until now+d (DefaultBlacklistDuration when
// d == 0). The latest call always wins: a later call with a shorter window
// replaces an earlier, longer one rather than accumulating.
func (t *Tracker) MarkUnavailable(id string, d time.Duration) {
	if d == 0 {
		d = DefaultBlacklistDuration
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.ensureLocked(id)
	e.BlacklistedUntil = t.now().Add(d)
}

// RecordUsage increments invocation and token counters for id without
// affecting availability.
func (t *Tracker) RecordUsage(id string, tokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.ensureLocked(id)
	e.UsageCount++
	e.TokensUsed += int64(tokens)
	e.LastUsed = t.now()
}

// Status returns a copy of the full state map for diagnostics.
func (t *Tracker) Status() map[string]Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Entry, len(t.entries))
	for id, e := range t.entries {
		out[id] = *e
	}
	return out
}

// Blacklisted returns the ids currently inside a suppression window.
func (t *Tracker) Blacklisted() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	now := t.now()
	var ids []string
	for id, e := range t.entries {
		if !e.BlacklistedUntil.IsZero() && now.Before(e.BlacklistedUntil) {
			ids = append(ids, id)
		}
	}
	return ids
}

// ForceUnblock administratively clears the suppression window for id.
// Usage counters are preserved.
func (t *Tracker) ForceUnblock(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		e.BlacklistedUntil = time.Time{}
	}
}

func (t *Tracker) ensureLocked(id string) *Entry {
	e, ok := t.entries[id]
	if !ok {
		e = &Entry{}
		t.entries[id] = e
	}
	return e
}
