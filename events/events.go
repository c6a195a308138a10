// Package events carries pipeline lifecycle notifications out of a
// running create/transform fiber for a dashboard or log sink to
// consume: a typed EventType, a builder-style Event, and a small
// in-process Bus.
package events

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/corewell/fiberflow/fiberid"
)

// EventType identifies what happened to a pipeline.
type EventType string

const (
	Subscribed  EventType = "pipeline.subscribed"
	Requested   EventType = "pipeline.requested"
	ItemEmitted EventType = "pipeline.item.emitted"
	Parked      EventType = "pipeline.parked"
	Resumed     EventType = "pipeline.resumed"
	Cancelled   EventType = "pipeline.cancelled"
	Completed   EventType = "pipeline.completed" // Terminal: OnComplete delivered
	Failed      EventType = "pipeline.failed"    // Terminal: OnError delivered
	CleanupRan  EventType = "pipeline.cleanup"
)

// Event is one occurrence in a pipeline's lifetime.
type Event struct {
	Time    time.Time
	Type    EventType
	Fiber   fiberid.ID
	Payload any
	Error   string
}

// New creates an event stamped with the current time.
func New(t EventType, fiber fiberid.ID) Event {
	return Event{Time: time.Now(), Type: t, Fiber: fiber}
}

// WithPayload returns a copy of the event with the payload set.
func (e Event) WithPayload(p any) Event {
	e.Payload = p
	return e
}

// WithError returns a copy of the event with the error message set.
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// IsTerminal reports whether this event ends the pipeline's lifecycle.
func (e Event) IsTerminal() bool {
	return e.Type == Completed || e.Type == Failed || e.Type == Cancelled
}

func (e Event) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))
	if e.Fiber != "" {
		parts = append(parts, e.Fiber.String())
	}
	if e.Payload != nil {
		parts = append(parts, fmt.Sprintf("payload=%v", e.Payload))
	}
	if e.Error != "" {
		parts = append(parts, fmt.Sprintf("err=%s", e.Error))
	}
	return strings.Join(parts, " ")
}

// Handler reacts to one published event.
type Handler func(Event)

// Bus fans published events out to a bounded set of subscriber
// channels. A full subscriber channel drops the event rather than
// blocking the publisher, since pipeline fibers must never stall on a
// slow dashboard.
type Bus struct {
	capacity int
	publish  chan Event
	add      chan chan Event
	remove   chan chan Event
	done     chan struct{}
}

// NewBus starts a Bus whose subscriber channels each buffer capacity
// events.
func NewBus(capacity int) *Bus {
	b := &Bus{
		capacity: capacity,
		publish:  make(chan Event, capacity),
		add:      make(chan chan Event),
		remove:   make(chan chan Event),
		done:     make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Bus) loop() {
	subscribers := make(map[chan Event]struct{})
	for {
		select {
		case ch := <-b.add:
			subscribers[ch] = struct{}{}
		case ch := <-b.remove:
			delete(subscribers, ch)
			close(ch)
		case e := <-b.publish:
			for ch := range subscribers {
				select {
				case ch <- e:
				default:
				}
			}
		case <-b.done:
			for ch := range subscribers {
				close(ch)
			}
			return
		}
	}
}

// Publish enqueues e for delivery to every current subscriber. Never
// blocks longer than it takes to hand the event to the bus's internal
// loop.
func (b *Bus) Publish(e Event) {
	select {
	case b.publish <- e:
	case <-b.done:
	}
}

// Subscribe returns a channel that receives every event published after
// this call, plus an unsubscribe function that stops delivery and
// closes the channel. The caller must keep draining the channel until
// unsubscribe or Close, or events for it will be dropped once its
// buffer fills.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.capacity)
	select {
	case b.add <- ch:
	case <-b.done:
		close(ch)
		return ch, func() {}
	}
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			select {
			case b.remove <- ch:
			case <-b.done:
			}
		})
	}
	return ch, unsubscribe
}

// Close stops the bus and closes every subscriber channel. Idempotent.
func (b *Bus) Close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

// Listen registers fn to be called for every event published until the
// returned stop function is invoked.
func (b *Bus) Listen(fn Handler) (stop func()) {
	ch, unsubscribe := b.Subscribe()
	stopped := make(chan struct{})
	go func() {
		for {
			select {
			case e, ok := <-ch:
				if !ok {
					return
				}
				fn(e)
			case <-stopped:
				return
			}
		}
	}()
	return func() {
		unsubscribe()
		select {
		case <-stopped:
		default:
			close(stopped)
		}
	}
}
