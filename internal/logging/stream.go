package logging

import (
	"context"
	"sync"
	"time"
)

// LogEvent is a build record as handed to sinks.
type LogEvent struct {
	Sequence   uint64         `json:"seq"`
	Timestamp  time.Time      `json:"ts"`
	Level      string         `json:"level"`
	Message    string         `json:"msg"`
	Template   string         `json:"template,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// LogEventSink receives every published event synchronously.
type LogEventSink interface {
	Append(LogEvent)
}

// StreamHub is a bounded in-memory queue of log events. Publishing never
// blocks: when the hub is full the oldest event is overwritten, whether or
// not a consumer has read it. Batching consumers read with Fetch using the
// last sequence they processed as a cursor and detect loss as a gap in the
// sequence.
type StreamHub struct {
	mu      sync.Mutex
	cond    *sync.Cond
	ring    []LogEvent
	start   int
	size    int
	nextSeq uint64
	wrapped uint64
	sinks   []LogEventSink
	closed  bool
}

// NewStreamHub constructs a hub holding at most capacity events.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = 1024
	}
	h := &StreamHub{ring: make([]LogEvent, capacity)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// AddSink wires a sink that receives every event as it is published.
func (h *StreamHub) AddSink(sink LogEventSink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Publish assigns the next sequence number and stores the event.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	capacity := len(h.ring)
	if h.size == capacity {
		h.ring[h.start] = evt
		h.start = (h.start + 1) % capacity
		h.wrapped++
	} else {
		h.ring[(h.start+h.size)%capacity] = evt
		h.size++
	}
	sinks := append([]LogEventSink(nil), h.sinks...)
	h.cond.Broadcast()
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(evt)
	}
}

// Close wakes all waiting Fetch calls; they return what is buffered.
func (h *StreamHub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.closed = true
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Fetch returns up to limit events with a sequence greater than since, plus
// the latest sequence published. When wait is true Fetch blocks until an
// event is available, the hub is closed or ctx ends.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > len(h.ring) {
		limit = len(h.ring)
	}

	stop := make(chan struct{})
	defer close(stop)
	if wait && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.mu.Lock()
				h.cond.Broadcast()
				h.mu.Unlock()
			case <-stop:
			}
		}()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		events := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait || h.closed {
			return events, h.nextSeq, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, h.nextSeq, err
		}
		h.cond.Wait()
	}
}

// Tail returns the most recent limit events without blocking.
func (h *StreamHub) Tail(limit int) []LogEvent {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > h.size {
		limit = h.size
	}
	out := make([]LogEvent, 0, limit)
	for i := h.size - limit; i < h.size; i++ {
		out = append(out, h.ring[(h.start+i)%len(h.ring)])
	}
	return out
}

// Overwritten reports how many events left the ring to make room. It says
// nothing about delivery; see Seq stats for events a consumer never read.
func (h *StreamHub) Overwritten() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.wrapped
}

func (h *StreamHub) snapshotLocked(since uint64, limit int) []LogEvent {
	var out []LogEvent
	for i := 0; i < h.size && len(out) < limit; i++ {
		evt := h.ring[(h.start+i)%len(h.ring)]
		if evt.Sequence > since {
			out = append(out, evt)
		}
	}
	return out
}
