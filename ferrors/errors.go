// Package ferrors collects the sentinel errors shared by create and
// transform: typed errors compared with errors.Is, rather than ad hoc
// string matching.
package ferrors

import (
	"errors"
	"reflect"
)

// ErrStopped is the internal unwinding signal delivered to a parked
// emit call after cancellation. It is caught silently by the worker
// loop in create.Core and transform.Core and must never reach a
// downstream OnError.
var ErrStopped = errors.New("fiberflow: stopped")

// ErrNilItem is returned by Emit (and also wraps into a downstream
// OnError in the transform worker's error path) when the generator or
// transformer attempts to emit a nil item.
var ErrNilItem = errors.New("fiberflow: emit called with a nil item")

// ErrBadRequest is delivered to a subscriber's OnError when Request is
// called with n <= 0, treated as a protocol error rather than undefined
// behavior.
var ErrBadRequest = errors.New("fiberflow: request(n) requires n > 0")

// ErrQueueFull wraps the queue-full condition from the bounded SPSC
// queue when it surfaces where the transform protocol guarantees it
// should not: an onNext delivered after upstream already had prefetch
// items outstanding is a contract breach by the publisher.
var ErrQueueFull = errors.New("fiberflow: upstream violated prefetch contract, queue full")

// IsNil reports whether a generically-typed item is the nil value of
// its underlying type. Value types (structs, numbers) are never nil;
// pointers, interfaces, maps, slices, channels and funcs are checked via
// reflection since a generic T any cannot be compared to nil directly.
func IsNil(item any) bool {
	if item == nil {
		return true
	}
	v := reflect.ValueOf(item)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}
