// Package park provides a single-waiter, reusable suspension primitive
// used to bridge a cooperative worker goroutine's "no progress possible
// right now" moments with another goroutine's readiness signal.
package park

import "sync/atomic"

type state int32

const (
	stateEmpty state = iota
	stateArmed
	statePermit
)

// Latch is a one-shot-reusable park/unpark gate. Exactly one goroutine
// may call Await at a time; any number of goroutines may call Resume
// concurrently. A Resume that happens before the matching Await makes
// that Await return immediately, consuming the permit; Resume is
// idempotent while a permit is outstanding.
//
// Latch is the Go analogue of a binary semaphore restricted to a single
// consumer: it carries a boolean permit, not a count.
type Latch struct {
	state atomic.Int32
	wake  chan struct{}
}

// New returns a ready-to-use Latch with no permit outstanding.
func New() *Latch {
	return &Latch{wake: make(chan struct{}, 1)}
}

// Await blocks the calling goroutine until a permit is available,
// consuming it. Only one goroutine may be inside Await at a time; the
// behavior of concurrent callers is undefined.
func (l *Latch) Await() {
	for {
		switch state(l.state.Load()) {
		case statePermit:
			if l.state.CompareAndSwap(int32(statePermit), int32(stateEmpty)) {
				return
			}
		case stateEmpty:
			if l.state.CompareAndSwap(int32(stateEmpty), int32(stateArmed)) {
				<-l.wake
				// Resume already reset state to stateEmpty before sending;
				// the permit this Await consumed is accounted for.
				return
			}
		default: // stateArmed: a prior Await failed to settle yet, retry
		}
	}
}

// Resume deposits a permit, waking a parked Await if one is waiting.
// Calling Resume any number of times before the next Await is
// equivalent to calling it once.
func (l *Latch) Resume() {
	for {
		switch state(l.state.Load()) {
		case stateArmed:
			if l.state.CompareAndSwap(int32(stateArmed), int32(stateEmpty)) {
				l.wake <- struct{}{}
				return
			}
		case stateEmpty:
			if l.state.CompareAndSwap(int32(stateEmpty), int32(statePermit)) {
				return
			}
		case statePermit:
			// Permit already outstanding; resume is idempotent.
			return
		}
	}
}
