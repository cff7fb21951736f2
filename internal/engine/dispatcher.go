package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"cliq_go/internal/domain"
	"cliq_go/internal/event"
)

// Dispatcher is the single-threaded fan-out point for tracking events.
// Producers call Publish; Run stamps each event with the next sequence number
// and delivers it to every live subscriber.
type Dispatcher struct {
	inbox   chan domain.TrackingEvent
	nextSeq uint64 // owned by the Run goroutine

	mu      sync.RWMutex
	subs    map[uint64]chan event.Envelope
	nextSub uint64

	lastSeq atomic.Uint64
	dropped atomic.Uint64
}

// NewDispatcher creates a dispatcher with the given inbox size
func NewDispatcher(inboxSize int) *Dispatcher {
	if inboxSize <= 0 {
		inboxSize = 256
	}
	return &Dispatcher{
		inbox:   make(chan domain.TrackingEvent, inboxSize),
		nextSeq: 1,
		subs:    make(map[uint64]chan event.Envelope),
	}
}

// Publish enqueues an event without blocking. Events are dropped when the
// inbox is full so the tracking loops never stall on slow consumers.
func (d *Dispatcher) Publish(ev domain.TrackingEvent) {
	select {
	case d.inbox <- ev:
	default: // DROP
		d.dropped.Add(1)
	}
}

// Run starts the dispatch loop. This MUST be run in a single goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Info("Dispatcher started")
	defer d.closeAll()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Dispatcher stopping...")
			return
		case ev := <-d.inbox:
			d.dispatch(ev)
		}
	}
}

func (d *Dispatcher) dispatch(ev domain.TrackingEvent) {
	env := event.Envelope{Seq: d.nextSeq, Event: ev}
	d.nextSeq++
	d.lastSeq.Store(env.Seq)

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, ch := range d.subs {
		select {
		case ch <- env:
		default: // slow subscriber misses this event; Seq reveals the gap
			d.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber with a buffered channel. The returned
// cancel func unregisters it and closes the channel; it is safe to call twice.
func (d *Dispatcher) Subscribe(buffer int) (<-chan event.Envelope, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	ch := make(chan event.Envelope, buffer)

	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if c, ok := d.subs[id]; ok {
				delete(d.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the number of live subscribers
func (d *Dispatcher) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// LastSeq returns the sequence number of the last dispatched event
func (d *Dispatcher) LastSeq() uint64 {
	return d.lastSeq.Load()
}

// Dropped counts events lost to a full inbox or a slow subscriber
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *Dispatcher) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, ch := range d.subs {
		delete(d.subs, id)
		close(ch)
	}
}
