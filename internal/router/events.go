package router

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirychukyurii/webitel-region-router/internal/model"
)

// EventLog is a bounded, append-only log of failed routing attempts kept for
// observability. Once full, the oldest entry is evicted on append. It is
// never consulted for routing decisions.
type EventLog struct {
	mu      sync.Mutex
	entries []model.FailoverEvent
	limit   int
	total   int // all-time count, survives eviction
}

// NewEventLog creates an event log bounded to limit entries
func NewEventLog(limit int) *EventLog {
	return &EventLog{
		entries: make([]model.FailoverEvent, 0, limit),
		limit:   limit,
	}
}

// Append records a failed attempt, evicting the oldest entry if the log is full
func (l *EventLog) Append(regionID, errMsg string, attempt int) model.FailoverEvent {
	event := model.FailoverEvent{
		ID:        uuid.NewString(),
		RegionID:  regionID,
		Error:     errMsg,
		Attempt:   attempt,
		Timestamp: time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.limit {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, event)
	l.total++

	return event
}

// Recent returns up to n most recent events, newest first
func (l *EventLog) Recent(n int) []model.FailoverEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}

	out := make([]model.FailoverEvent, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Total returns the all-time number of recorded events
func (l *EventLog) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Len returns the number of retained entries
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// CountsSince buckets retained events newer than t by originating region
func (l *EventLog) CountsSince(t time.Time) map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int)
	for _, event := range l.entries {
		if event.Timestamp.After(t) {
			out[event.RegionID]++
		}
	}
	return out
}
