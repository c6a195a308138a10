// Package testkit holds the fake reactive-streams collaborators used by
// the create and transform test suites: small, hand-rolled stand-ins
// rather than a mocking framework.
package testkit

import (
	"sync"

	"github.com/corewell/fiberflow/reactive"
)

// Signal records one callback delivered to a Subscriber.
type Signal struct {
	Kind string // "next", "error", "complete"
	Item any
	Err  error
}

// Subscriber is a recording reactive.Subscriber[T] safe for concurrent
// use by the worker goroutine while the test goroutine inspects it.
type Subscriber[T any] struct {
	mu      sync.Mutex
	sub     reactive.Subscription
	signals []Signal
	onNext  func(T) // optional hook, called while holding the lock
}

// NewSubscriber returns an empty recording subscriber.
func NewSubscriber[T any]() *Subscriber[T] {
	return &Subscriber[T]{}
}

func (s *Subscriber[T]) OnSubscribe(sub reactive.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sub = sub
}

func (s *Subscriber[T]) OnNext(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, Signal{Kind: "next", Item: item})
	if s.onNext != nil {
		s.onNext(item)
	}
}

func (s *Subscriber[T]) OnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, Signal{Kind: "error", Err: err})
}

func (s *Subscriber[T]) OnComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, Signal{Kind: "complete"})
}

// Subscription returns the Subscription stored by OnSubscribe, or nil if
// OnSubscribe has not yet been called.
func (s *Subscriber[T]) Subscription() reactive.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub
}

// Signals returns a copy of the signals delivered so far.
func (s *Subscriber[T]) Signals() []Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Signal, len(s.signals))
	copy(out, s.signals)
	return out
}

// Items returns every item delivered via OnNext so far, in order.
func (s *Subscriber[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []T
	for _, sig := range s.signals {
		if sig.Kind == "next" {
			out = append(out, sig.Item.(T))
		}
	}
	return out
}

// Count returns the number of signals of the given kind delivered so
// far ("next", "error" or "complete").
func (s *Subscriber[T]) Count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sig := range s.signals {
		if sig.Kind == kind {
			n++
		}
	}
	return n
}

// Publisher is a minimal reactive.Publisher[T] a test can drive by hand:
// calling Subscribe stores the subscriber, without calling OnSubscribe
// on it or spawning any goroutine of its own.
type Publisher[T any] struct {
	mu  sync.Mutex
	sub reactive.Subscriber[T]
}

func (p *Publisher[T]) Subscribe(sub reactive.Subscriber[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sub = sub
}

func (p *Publisher[T]) Subscriber() reactive.Subscriber[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sub
}

// Subscription is a recording reactive.Subscription a test hands to a
// Core under test via OnSubscribe, to observe Request/Cancel calls
// without a real upstream or downstream driving them.
type Subscription struct {
	mu        sync.Mutex
	requested int64
	requests  []int64
	cancelled bool
}

func (s *Subscription) Request(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requested += n
	s.requests = append(s.requests, n)
}

func (s *Subscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
}

func (s *Subscription) TotalRequested() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

func (s *Subscription) Requests() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Subscription) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// UpstreamPublisher is a reactive.Publisher[T] a test drives by hand: it
// hands the subscriber a Subscription the test controls, and exposes
// the subscriber so the test can call OnNext/OnError/OnComplete at will
// — standing in for a real upstream that would call these from its own
// goroutine(s).
type UpstreamPublisher[T any] struct {
	Sub *Subscription

	mu         sync.Mutex
	subscriber reactive.Subscriber[T]
}

// NewUpstreamPublisher returns an UpstreamPublisher whose Subscription
// is ready to record Request/Cancel calls.
func NewUpstreamPublisher[T any]() *UpstreamPublisher[T] {
	return &UpstreamPublisher[T]{Sub: &Subscription{}}
}

func (p *UpstreamPublisher[T]) Subscribe(sub reactive.Subscriber[T]) {
	p.mu.Lock()
	p.subscriber = sub
	p.mu.Unlock()
	sub.OnSubscribe(p.Sub)
}

func (p *UpstreamPublisher[T]) Subscriber() reactive.Subscriber[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subscriber
}
