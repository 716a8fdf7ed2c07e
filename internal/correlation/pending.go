package correlation

import "errors"

// ErrPendingClosed is returned by Add after the buffer has been drained.
var ErrPendingClosed = errors.New("pending buffer already drained")

// Pending holds records produced before the root project is known. It is
// drained exactly once, in insertion order, and rejects records afterwards.
type Pending[T any] struct {
	items   []T
	drained bool
}

// Add queues a record.
func (p *Pending[T]) Add(item T) error {
	if p.drained {
		return ErrPendingClosed
	}
	p.items = append(p.items, item)
	return nil
}

// Drain returns the queued records and closes the buffer. Later calls return
// nil.
func (p *Pending[T]) Drain() []T {
	if p.drained {
		return nil
	}
	p.drained = true
	out := p.items
	p.items = nil
	return out
}

// Len is the number of queued records.
func (p *Pending[T]) Len() int { return len(p.items) }

// Drained reports whether Drain has run.
func (p *Pending[T]) Drained() bool { return p.drained }
