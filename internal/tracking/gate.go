package tracking

import (
	"sync/atomic"
	"time"
)

// DefaultInactiveThreshold pauses tracking after a day without requests
const DefaultInactiveThreshold = 24 * time.Hour

// ActivityGate remembers when the user was last seen.
// Both tracking loops consult it every tick; last write wins.
type ActivityGate struct {
	lastActive atomic.Int64 // unix nanos
	threshold  time.Duration
	now        func() time.Time
}

// NewActivityGate creates a gate that starts out active
func NewActivityGate(threshold time.Duration) *ActivityGate {
	return newActivityGate(threshold, time.Now)
}

func newActivityGate(threshold time.Duration, now func() time.Time) *ActivityGate {
	if threshold <= 0 {
		threshold = DefaultInactiveThreshold
	}
	g := &ActivityGate{threshold: threshold, now: now}
	g.RecordActivity()
	return g
}

// RecordActivity marks the user as active now
func (g *ActivityGate) RecordActivity() {
	g.lastActive.Store(g.now().UnixNano())
}

// LastActive returns the last recorded activity
func (g *ActivityGate) LastActive() time.Time {
	return time.Unix(0, g.lastActive.Load())
}

// Threshold returns the configured inactivity window
func (g *ActivityGate) Threshold() time.Duration {
	return g.threshold
}

// IsActive reports whether less than the threshold has elapsed since the last activity
func (g *ActivityGate) IsActive() bool {
	return g.now().Sub(g.LastActive()) < g.threshold
}

// TimeUntilPause is the remaining active window, zero once inactive
func (g *ActivityGate) TimeUntilPause() time.Duration {
	left := g.threshold - g.now().Sub(g.LastActive())
	if left < 0 {
		return 0
	}
	return left
}
