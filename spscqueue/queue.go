// Package spscqueue provides the bounded single-producer/single-consumer
// queue the transform pipeline uses to decouple the upstream publisher's
// onNext rate from the worker goroutine's drain rate. It is a thin
// adapter over code.hybscloud.com/lfq's lock-free SPSC ring buffer
// rather than a hand-rolled queue, already exercised elsewhere in this
// ecosystem for pipeline-stage handoff.
package spscqueue

import "code.hybscloud.com/lfq"

// Queue is the minimal bounded FIFO surface the transform worker needs:
// non-blocking Offer/Poll and a Clear used once on teardown.
type Queue[T any] interface {
	// Offer enqueues item, returning false if the queue is full. The
	// transform pipeline's contract guarantees this never happens in
	// practice (upstream never has more than capacity items
	// outstanding), but callers must still check the return value.
	Offer(item T) bool

	// Poll dequeues the oldest item, returning false if the queue is
	// empty.
	Poll() (T, bool)

	// Clear drains any remaining items, discarding them. Used once, by
	// the worker's teardown path.
	Clear()
}

// spsc adapts lfq's generic SPSC queue to Queue[T].
type spsc[T any] struct {
	q *lfq.SPSC[T]
}

// New returns a Queue[T] with the given capacity, rounded up to the
// next power of two by lfq (minimum 2).
func New[T any](capacity int) Queue[T] {
	return &spsc[T]{q: lfq.NewSPSC[T](capacity)}
}

func (s *spsc[T]) Offer(item T) bool {
	err := s.q.Enqueue(&item)
	return err == nil
}

func (s *spsc[T]) Poll() (T, bool) {
	v, err := s.q.Dequeue()
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

func (s *spsc[T]) Clear() {
	for {
		if _, err := s.q.Dequeue(); err != nil {
			return
		}
	}
}
