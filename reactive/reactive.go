// Package reactive names the reactive-streams-style contract that the
// create and transform pipelines compose against. It is deliberately
// minimal: only the method set the core protocol actually exercises is
// declared here — no request/cancel signal spec, no TCK compliance,
// just the shapes the rest of this module needs to type-check against a
// caller-supplied Publisher/Subscriber pair.
package reactive

// Subscription is what a pipeline hands to its downstream subscriber.
// Request and Cancel must be non-blocking and safe to call from any
// goroutine, concurrently with each other and with signal delivery.
type Subscription interface {
	// Request raises outstanding downstream demand by n. A
	// implementation may treat n <= 0 as a protocol error and route it
	// to the subscriber's OnError instead of panicking.
	Request(n int64)

	// Cancel asks the pipeline to stop emitting. Idempotent.
	Cancel()
}

// Subscriber receives signals from a Publisher. Signals are always
// delivered serially and in happens-before order with respect to each
// other; at most one terminal signal (OnError or OnComplete) is ever
// delivered, and none at all if the subscriber cancels first.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(item T)
	OnError(err error)
	OnComplete()
}

// Publisher is an upstream source of items. Subscribe is called at most
// once per Subscriber in the flows this module builds.
type Publisher[T any] interface {
	Subscribe(sub Subscriber[T])
}
