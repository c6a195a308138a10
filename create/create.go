// Package create implements the "create" operator: a user generator
// runs on a scheduler-spawned worker goroutine, pushing items to a
// downstream reactive subscriber through Emit, which parks the worker
// whenever downstream demand is exhausted and resumes it when Request
// raises demand.
package create

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/corewell/fiberflow/demand"
	"github.com/corewell/fiberflow/events"
	"github.com/corewell/fiberflow/ferrors"
	"github.com/corewell/fiberflow/fiberhandle"
	"github.com/corewell/fiberflow/fiberid"
	"github.com/corewell/fiberflow/obslog"
	"github.com/corewell/fiberflow/park"
	"github.com/corewell/fiberflow/reactive"
	"github.com/corewell/fiberflow/scheduler"
	"github.com/rs/zerolog"
)

// Emitter is handed to the generator so it can push items downstream.
// Emit rejects nil items, may park the calling goroutine until demand
// exists or the pipeline is cancelled, and unwinds the generator with
// ferrors.ErrStopped after cancellation instead of ever delivering a
// downstream signal on its own.
type Emitter[T any] interface {
	Emit(item T) error
}

// Generator is invoked exactly once per subscription, on the worker
// goroutine. It may call emitter.Emit any number of times and then
// return nil (terminal complete) or a non-nil error (terminal error,
// unless the error is ferrors.ErrStopped — or wraps it — in which case
// the worker exits silently).
type Generator[T any] func(emitter Emitter[T]) error

type options struct {
	logger  zerolog.Logger
	cleanup func()
	bus     *events.Bus
}

// Option configures a Create pipeline.
type Option func(*options)

// WithLogger installs a logger for pipeline lifecycle events. Defaults
// to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCleanup registers a closure run exactly once, after the worker's
// terminal path or on cancellation, whichever reaches it first. It must
// not panic; fiberflow does not propagate cleanup errors.
func WithCleanup(f func()) Option {
	return func(o *options) { o.cleanup = f }
}

// WithEvents publishes pipeline lifecycle notifications to bus. Optional;
// a pipeline built without this option never touches the events package.
func WithEvents(bus *events.Bus) Option {
	return func(o *options) { o.bus = bus }
}

func defaultOptions() options {
	return options{logger: obslog.Nop()}
}

// Create returns a cold Publisher that, on each Subscribe, spawns a
// fresh Core driving a fresh call to generator.
func Create[T any](generator Generator[T], sched scheduler.Scheduler, opts ...Option) reactive.Publisher[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &publisher[T]{generator: generator, sched: sched, opts: o}
}

type publisher[T any] struct {
	generator Generator[T]
	sched     scheduler.Scheduler
	opts      options
}

func (p *publisher[T]) Subscribe(sub reactive.Subscriber[T]) {
	c := &Core[T]{
		consumerReady: park.New(),
		downstream:    sub,
		generator:     p.generator,
		id:            fiberid.New(),
		log:           p.opts.logger,
		cleanup:       p.opts.cleanup,
		bus:           p.opts.bus,
	}
	sub.OnSubscribe(c)
	c.publish(events.Subscribed)

	task := p.sched.Spawn(c.run)
	c.fiber.Set(task)
}

// Core is the subscription presented to downstream, and simultaneously
// the FiberEmitter the generator calls into. It owns the fiber handle,
// the demand counter and the park latch for the lifetime of one
// subscription.
type Core[T any] struct {
	requested     demand.Counter
	produced      int64 // worker-owned, no synchronization needed
	consumerReady *park.Latch
	cancelled     atomic.Bool
	badRequest    atomic.Bool
	fiber         fiberhandle.Slot
	downstream    reactive.Subscriber[T]
	generator     Generator[T]
	id            fiberid.ID
	log           zerolog.Logger
	cleanup       func()
	cleanupDone   atomic.Bool
	bus           *events.Bus
}

var _ reactive.Subscription = (*Core[int])(nil)

func (c *Core[T]) publish(t events.EventType) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.New(t, c.id))
}

// Request raises outstanding downstream demand by n and resumes the
// parked generator, if any. n <= 0 is a protocol error: the pipeline is
// cancelled and the worker delivers ferrors.ErrBadRequest downstream
// instead of silently ignoring it.
func (c *Core[T]) Request(n int64) {
	if n <= 0 {
		c.log.Debug().Str("fiber", c.id.String()).Int64("n", n).Msg("create: bad request, cancelling")
		c.badRequest.Store(true)
		c.cancelled.Store(true)
		c.fiber.Terminate()
		c.consumerReady.Resume()
		return
	}
	c.requested.Add(n)
	c.publish(events.Requested)
	c.consumerReady.Resume()
}

// Cancel stops the pipeline. Idempotent.
func (c *Core[T]) Cancel() {
	if c.cancelled.CompareAndSwap(false, true) {
		c.log.Debug().Str("fiber", c.id.String()).Msg("create: cancelled")
		c.publish(events.Cancelled)
	}
	c.fiber.Terminate()
	c.consumerReady.Resume()
	c.runCleanup()
}

// Emit implements Emitter[T].
func (c *Core[T]) Emit(item T) error {
	if ferrors.IsNil(item) {
		return ferrors.ErrNilItem
	}
	if c.cancelled.Load() {
		return ferrors.ErrStopped
	}
	for {
		if c.requested.IsUnbounded() {
			break
		}
		if c.requested.Get() != c.produced {
			break
		}
		if c.cancelled.Load() {
			return ferrors.ErrStopped
		}
		c.log.Debug().Str("fiber", c.id.String()).Msg("create: parking, demand exhausted")
		c.publish(events.Parked)
		c.consumerReady.Await()
		c.publish(events.Resumed)
		if c.cancelled.Load() {
			return ferrors.ErrStopped
		}
	}
	c.downstream.OnNext(item)
	c.produced++
	c.publish(events.ItemEmitted)
	return nil
}

func (c *Core[T]) run(ctx context.Context) {
	defer func() {
		c.fiber.Terminate()
		c.runCleanup()
	}()
	// A cancelled task context (scheduler disposal) cancels the pipeline.
	// stop runs before the deferred Terminate above, so the worker's own
	// exit does not count as a cancellation.
	stop := context.AfterFunc(ctx, c.Cancel)
	defer stop()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("fiberflow: generator panicked: %v", r)
			}
		}()
		err = c.generator(c)
	}()

	switch {
	case err == nil:
		if !c.cancelled.Load() {
			c.log.Debug().Str("fiber", c.id.String()).Msg("create: complete")
			c.downstream.OnComplete()
			c.publish(events.Completed)
		}
	case errors.Is(err, ferrors.ErrStopped):
		if c.badRequest.Load() {
			c.downstream.OnError(ferrors.ErrBadRequest)
			c.publish(events.Failed)
		}
		// real cancellation: no terminal signal
	default:
		if !c.cancelled.Load() {
			c.log.Debug().Str("fiber", c.id.String()).Err(err).Msg("create: error")
			c.downstream.OnError(err)
			c.publish(events.Failed)
		}
	}
}

func (c *Core[T]) runCleanup() {
	if c.cleanup == nil {
		return
	}
	if c.cleanupDone.CompareAndSwap(false, true) {
		c.cleanup()
		c.publish(events.CleanupRan)
	}
}
