// Package fiberhandle implements the cancel-capable slot that a
// pipeline uses to hold the handle of its spawned worker goroutine. It
// resolves the race between "spawn the worker task" and "cancel or
// terminate before the handle is stored": whichever happens first wins,
// and the other party observes it through the same atomic slot.
package fiberhandle

import "sync/atomic"

// Task is a cancellable unit of scheduled work, as returned by a
// scheduler.Scheduler. Cancel must be safe to call multiple times and
// from any goroutine.
type Task interface {
	Cancel()
}

// tag distinguishes the three states a Slot can hold without mixing a
// sentinel value into the Task type itself.
type tag int32

const (
	tagEmpty tag = iota
	tagHandle
	tagTerminated
)

type entry struct {
	tag    tag
	handle Task
}

// Slot is the atomic, tagged-union home for a pipeline's worker handle.
// Its zero value is ready to use (empty).
type Slot struct {
	v atomic.Pointer[entry]
}

// Set installs h as the slot's handle unless the slot has already been
// terminated, in which case h is cancelled immediately (it arrived too
// late to matter). Returns true if h was installed.
func (s *Slot) Set(h Task) bool {
	cur := s.v.Load()
	if cur != nil && cur.tag == tagTerminated {
		h.Cancel()
		return false
	}
	if s.v.CompareAndSwap(cur, &entry{tag: tagHandle, handle: h}) {
		return true
	}
	// Lost the race; whoever won already terminated or installed a
	// handle. Either way, the entry now reflects terminal state by the
	// time we retry, because only Terminate can race a Set to
	// completion in this protocol.
	if after := s.v.Load(); after != nil && after.tag == tagTerminated {
		h.Cancel()
	}
	return false
}

// Terminate swaps the slot to the terminated tag, cancelling whatever
// handle was previously installed (if any), and marks the slot so that
// any handle installed afterward via Set is cancelled on arrival.
// Idempotent: calling Terminate more than once cancels nothing on the
// second and later calls.
func (s *Slot) Terminate() {
	next := &entry{tag: tagTerminated}
	for {
		cur := s.v.Load()
		if cur != nil && cur.tag == tagTerminated {
			return
		}
		if s.v.CompareAndSwap(cur, next) {
			if cur != nil && cur.tag == tagHandle {
				cur.handle.Cancel()
			}
			return
		}
	}
}

// Terminated reports whether the slot has been terminated.
func (s *Slot) Terminated() bool {
	cur := s.v.Load()
	return cur != nil && cur.tag == tagTerminated
}
