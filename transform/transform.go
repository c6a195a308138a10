// Package transform implements the "transform" operator: an upstream
// subscriber fills a bounded SPSC queue, a scheduler-spawned worker
// goroutine drains it and invokes a user transformer, and a suspension
// point inside the emitter parks the worker when downstream demand is
// exhausted.
package transform

import (
	"context"
	"errors"
	"fmt"
	"sync"
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
	"github.com/corewell/fiberflow/spscqueue"
	"github.com/rs/zerolog"
)

// Emitter is handed to the transformer so it can push results
// downstream. Emit rejects nil items, may park the calling goroutine
// until demand exists or the pipeline is cancelled, and unwinds the
// transformer with ferrors.ErrStopped after cancellation.
type Emitter[R any] interface {
	Emit(item R) error
}

// Transformer is invoked once per upstream item, on the worker
// goroutine. It may call emitter.Emit any number of times (0 for a
// filter, >1 for a flat-map) and then return nil or a non-nil error.
// Returning (or wrapping) ferrors.ErrStopped exits the worker silently;
// any other error cancels the upstream subscription and is delivered
// downstream via OnError.
type Transformer[T, R any] func(value T, emitter Emitter[R]) error

type options struct {
	logger  zerolog.Logger
	cleanup func()
	bus     *events.Bus
}

// Option configures a Transform pipeline.
type Option func(*options)

// WithLogger installs a logger for pipeline lifecycle events. Defaults
// to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCleanup registers a closure run exactly once, on the worker's
// terminal path or on cancellation, whichever reaches it first.
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

// Transform returns a cold Publisher[R] that, on each Subscribe,
// subscribes to upstream and spawns a fresh Core worker draining it
// through transformer.
func Transform[T, R any](upstream reactive.Publisher[T], transformer Transformer[T, R], prefetch int, sched scheduler.Scheduler, opts ...Option) reactive.Publisher[R] {
	if prefetch < 1 {
		prefetch = 1
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &publisher[T, R]{upstream: upstream, transformer: transformer, prefetch: prefetch, sched: sched, opts: o}
}

type publisher[T, R any] struct {
	upstream    reactive.Publisher[T]
	transformer Transformer[T, R]
	prefetch    int
	sched       scheduler.Scheduler
	opts        options
}

func (p *publisher[T, R]) Subscribe(sub reactive.Subscriber[R]) {
	c := &Core[T, R]{
		queue:         spscqueue.New[T](p.prefetch),
		producerReady: park.New(),
		consumerReady: park.New(),
		downstream:    sub,
		transformer:   p.transformer,
		prefetch:      p.prefetch,
		id:            fiberid.New(),
		log:           p.opts.logger,
		cleanup:       p.opts.cleanup,
		bus:           p.opts.bus,
	}
	task := p.sched.Spawn(c.run)
	c.fiber.Set(task)
	p.upstream.Subscribe(c)
	c.publish(events.Subscribed)
}

type upstreamBox struct {
	sub reactive.Subscription
}

// Core is simultaneously the Subscriber presented to upstream, the
// Subscription presented to downstream, and the Emitter the
// transformer calls into.
type Core[T, R any] struct {
	queue         spscqueue.Queue[T]
	requested     demand.Counter // downstream demand
	produced      int64          // worker-owned
	wip           atomic.Int64
	producerReady *park.Latch
	consumerReady *park.Latch
	done          atomic.Bool
	cancelled     atomic.Bool
	badRequest    atomic.Bool
	errVal        atomic.Pointer[error]
	errOnce       sync.Once
	fiber         fiberhandle.Slot
	upstream      atomic.Pointer[upstreamBox]
	downstream    reactive.Subscriber[R]
	transformer   Transformer[T, R]
	prefetch      int
	id            fiberid.ID
	log           zerolog.Logger
	cleanup       func()
	cleanupDone   atomic.Bool
	bus           *events.Bus
}

var (
	_ reactive.Subscriber[int] = (*Core[int, int])(nil)
	_ reactive.Subscription    = (*Core[int, int])(nil)
	_ Emitter[int]             = (*Core[int, int])(nil)
)

func (c *Core[T, R]) publish(t events.EventType) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.New(t, c.id))
}

// --- upstream Subscriber side ---

func (c *Core[T, R]) OnSubscribe(s reactive.Subscription) {
	c.upstream.Store(&upstreamBox{sub: s})
	c.downstream.OnSubscribe(c)
	s.Request(int64(c.prefetch))
}

func (c *Core[T, R]) OnNext(item T) {
	if !c.queue.Offer(item) {
		c.recordError(ferrors.ErrQueueFull)
		c.done.Store(true)
	}
	prev := c.wip.Add(1) - 1
	if prev == 0 {
		c.producerReady.Resume()
	}
}

func (c *Core[T, R]) OnError(err error) {
	c.recordError(err)
	c.done.Store(true)
	prev := c.wip.Add(1) - 1
	if prev == 0 {
		c.producerReady.Resume()
	}
}

func (c *Core[T, R]) OnComplete() {
	c.done.Store(true)
	prev := c.wip.Add(1) - 1
	if prev == 0 {
		c.producerReady.Resume()
	}
}

func (c *Core[T, R]) recordError(err error) {
	c.errOnce.Do(func() {
		c.errVal.Store(&err)
	})
}

// --- downstream Subscription side ---

// Request raises outstanding downstream demand by n and resumes a
// worker parked inside Emit. n <= 0 is a protocol error, handled with
// the same policy as create.Core.Request: the pipeline is cancelled and
// the worker delivers ferrors.ErrBadRequest downstream.
func (c *Core[T, R]) Request(n int64) {
	if n <= 0 {
		c.log.Debug().Str("fiber", c.id.String()).Int64("n", n).Msg("transform: bad request, cancelling")
		c.badRequest.Store(true)
		c.cancelled.Store(true)
		c.fiber.Terminate()
		c.producerReady.Resume()
		c.consumerReady.Resume()
		return
	}
	c.requested.Add(n)
	c.consumerReady.Resume()
}

// Cancel stops the pipeline. Idempotent. This does not itself cancel the
// upstream subscription; only the worker's transformer-error path does
// that, relying on upstream honoring the reactive-streams contract and
// not exceeding outstanding demand once the worker stops requesting
// more.
func (c *Core[T, R]) Cancel() {
	if c.cancelled.CompareAndSwap(false, true) {
		c.log.Debug().Str("fiber", c.id.String()).Msg("transform: cancelled")
		c.publish(events.Cancelled)
	}
	c.fiber.Terminate()
	c.runCleanup()
	c.producerReady.Resume()
	c.consumerReady.Resume()
}

// --- Emitter side, called by the user transformer ---

func (c *Core[T, R]) Emit(item R) error {
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
		c.log.Debug().Str("fiber", c.id.String()).Msg("transform: parking, demand exhausted")
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

// --- worker loop ---

func (c *Core[T, R]) run(ctx context.Context) {
	defer func() {
		c.fiber.Terminate()
		c.queue.Clear()
		c.runCleanup()
	}()
	// A cancelled task context (scheduler disposal) cancels the pipeline.
	// stop runs before the deferred Terminate above, so the worker's own
	// exit does not count as a cancellation.
	stop := context.AfterFunc(ctx, c.Cancel)
	defer stop()

	consumed := 0
	limit := c.prefetch - c.prefetch/4
	if limit < 1 {
		limit = 1
	}
	var wipSeen int64

	for {
		if c.cancelled.Load() {
			if c.badRequest.Load() {
				c.downstream.OnError(ferrors.ErrBadRequest)
			}
			return
		}

		d := c.done.Load()
		v, ok := c.queue.Poll()
		if d && !ok {
			c.deliverTerminal()
			return
		}

		if ok {
			consumed++
			if consumed == limit {
				consumed = 0
				if box := c.upstream.Load(); box != nil {
					box.sub.Request(int64(limit))
				}
			}

			if err := c.invokeTransformer(v); err != nil {
				if errors.Is(err, ferrors.ErrStopped) {
					if c.badRequest.Load() {
						c.downstream.OnError(ferrors.ErrBadRequest)
					}
					return
				}
				if !c.cancelled.Load() {
					if box := c.upstream.Load(); box != nil {
						box.sub.Cancel()
					}
					c.log.Debug().Str("fiber", c.id.String()).Err(err).Msg("transform: transformer error")
					c.downstream.OnError(err)
					c.publish(events.Failed)
				}
				return
			}
			continue
		}

		wipSeen = c.wip.Add(-wipSeen)
		if wipSeen == 0 {
			c.publish(events.Parked)
			c.producerReady.Await()
			c.publish(events.Resumed)
		}
	}
}

func (c *Core[T, R]) invokeTransformer(v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fiberflow: transformer panicked: %v", r)
		}
	}()
	return c.transformer(v, c)
}

func (c *Core[T, R]) deliverTerminal() {
	if c.cancelled.Load() {
		return
	}
	if e := c.errVal.Load(); e != nil {
		c.log.Debug().Str("fiber", c.id.String()).Err(*e).Msg("transform: upstream error, forwarding")
		c.downstream.OnError(*e)
		c.publish(events.Failed)
		return
	}
	c.log.Debug().Str("fiber", c.id.String()).Msg("transform: complete")
	c.downstream.OnComplete()
	c.publish(events.Completed)
}

func (c *Core[T, R]) runCleanup() {
	if c.cleanup == nil {
		return
	}
	if c.cleanupDone.CompareAndSwap(false, true) {
		c.cleanup()
		c.publish(events.CleanupRan)
	}
}
