package tracking

import (
	"sync"

	"cliq_go/internal/domain"
)

// DefaultLogCapacity is how many tracking events are retained
const DefaultLogCapacity = 100

// ActivityLog is a fixed-size ring buffer of tracking events.
// Once full, each append evicts the oldest entry.
type ActivityLog struct {
	mu    sync.Mutex
	buf   []domain.TrackingEvent
	head  int // next write position
	count int
}

// NewActivityLog creates a log holding at most capacity events
func NewActivityLog(capacity int) *ActivityLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &ActivityLog{buf: make([]domain.TrackingEvent, capacity)}
}

// Append stores ev, evicting the oldest event when full
func (l *ActivityLog) Append(ev domain.TrackingEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf[l.head] = ev
	l.head = (l.head + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
}

// Recent returns up to n most recent events, oldest first.
// n <= 0 returns everything retained.
func (l *ActivityLog) Recent(n int) []domain.TrackingEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > l.count {
		n = l.count
	}
	out := make([]domain.TrackingEvent, n)
	start := (l.head - n + len(l.buf)) % len(l.buf)
	for i := 0; i < n; i++ {
		out[i] = l.buf[(start+i)%len(l.buf)]
	}
	return out
}

// Len returns the number of retained events
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Cap returns the retention limit
func (l *ActivityLog) Cap() int {
	return len(l.buf)
}
