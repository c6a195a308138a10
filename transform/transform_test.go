package transform_test

import (
	"errors"
	"testing"
	"time"

	"github.com/corewell/fiberflow/demand"
	"github.com/corewell/fiberflow/ferrors"
	"github.com/corewell/fiberflow/internal/testkit"
	"github.com/corewell/fiberflow/scheduler"
	"github.com/corewell/fiberflow/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition never became true within %v", timeout)
}

func identity(v int, e transform.Emitter[int]) error {
	return e.Emit(v)
}

// S3: prefetch=4, upstream emits 1..7 then completes, downstream
// requests 7. limit = 4 - 4/4 = 3, so the worker refills upstream by 3
// after the 3rd and again after the 6th consumed item.
func TestTransform_Prefetch_S3(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	up := testkit.NewUpstreamPublisher[int]()
	pub := transform.Transform[int, int](up, identity, 4, sched)

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)

	waitUntil(t, time.Second, func() bool { return up.Subscriber() != nil })
	waitUntil(t, time.Second, func() bool { return up.Sub.TotalRequested() >= 4 })
	for i := 1; i <= 4; i++ {
		up.Subscriber().OnNext(i)
	}

	sub.Subscription().Request(7)

	waitUntil(t, time.Second, func() bool { return up.Sub.TotalRequested() >= 7 })
	for i := 5; i <= 7; i++ {
		up.Subscriber().OnNext(i)
	}
	up.Subscriber().OnComplete()

	waitUntil(t, time.Second, func() bool { return sub.Count("complete") == 1 })

	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, sub.Items())
	assert.Equal(t, []int64{4, 3, 3}, up.Sub.Requests())
}

// S4: upstream emits 1,2,3 then onError(E); downstream demand unbounded.
func TestTransform_ErrorMidStream_S4(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	up := testkit.NewUpstreamPublisher[int]()
	pub := transform.Transform[int, int](up, identity, 8, sched)

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)
	waitUntil(t, time.Second, func() bool { return up.Subscriber() != nil })

	sub.Subscription().Request(demand.Unbounded)

	up.Subscriber().OnNext(1)
	up.Subscriber().OnNext(2)
	up.Subscriber().OnNext(3)
	wantErr := errors.New("E")
	up.Subscriber().OnError(wantErr)

	waitUntil(t, time.Second, func() bool { return sub.Count("error") == 1 })

	require.Equal(t, []int{1, 2, 3}, sub.Items())
	sig := sub.Signals()
	assert.Equal(t, "error", sig[len(sig)-1].Kind)
	assert.Same(t, wantErr, sig[len(sig)-1].Err)
}

// S5: transformer throws X on the 2nd item.
func TestTransform_TransformerThrows_S5(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	up := testkit.NewUpstreamPublisher[int]()
	wantErr := errors.New("X")
	xform := func(v int, e transform.Emitter[int]) error {
		if v == 2 {
			return wantErr
		}
		return e.Emit(v * 10)
	}
	cleanedUp := make(chan struct{})
	pub := transform.Transform[int, int](up, xform, 8, sched,
		transform.WithCleanup(func() { close(cleanedUp) }))

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)
	waitUntil(t, time.Second, func() bool { return up.Subscriber() != nil })
	sub.Subscription().Request(demand.Unbounded)

	up.Subscriber().OnNext(1)
	up.Subscriber().OnNext(2)
	up.Subscriber().OnNext(3)

	waitUntil(t, time.Second, func() bool { return sub.Count("error") == 1 })

	require.Equal(t, []int{10}, sub.Items())
	sig := sub.Signals()
	assert.Same(t, wantErr, sig[len(sig)-1].Err)
	assert.True(t, up.Sub.Cancelled())

	select {
	case <-cleanedUp:
	case <-time.After(time.Second):
		t.Fatal("cleanup never ran")
	}
}

// S6: upstream emits one item then silence; downstream requests 1,
// receives it, then cancels while the worker is parked on
// producerReady.
func TestTransform_CancelDuringPark_S6(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	up := testkit.NewUpstreamPublisher[int]()
	cleanedUp := make(chan struct{})
	var cleanupCalls int
	pub := transform.Transform[int, int](up, identity, 8, sched,
		transform.WithCleanup(func() {
			cleanupCalls++
			close(cleanedUp)
		}))

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)
	waitUntil(t, time.Second, func() bool { return up.Subscriber() != nil })

	sub.Subscription().Request(1)
	up.Subscriber().OnNext(1)

	waitUntil(t, time.Second, func() bool { return sub.Count("next") == 1 })
	// Worker has drained the queue and should now be parked on
	// producerReady, waiting for more upstream activity that never
	// comes.
	time.Sleep(20 * time.Millisecond)

	sub.Subscription().Cancel()

	select {
	case <-cleanedUp:
	case <-time.After(time.Second):
		t.Fatal("worker never woke from producerReady park after cancel")
	}
	assert.Equal(t, 1, cleanupCalls)
	assert.Equal(t, 0, sub.Count("complete"))
	assert.Equal(t, 0, sub.Count("error"))

	sub.Subscription().Cancel() // idempotent
}

func TestTransform_BadRequest_DeliversOnError(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	up := testkit.NewUpstreamPublisher[int]()
	pub := transform.Transform[int, int](up, identity, 4, sched)

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)
	waitUntil(t, time.Second, func() bool { return up.Subscriber() != nil })

	sub.Subscription().Request(0)
	waitUntil(t, time.Second, func() bool { return sub.Count("error") == 1 })

	sig := sub.Signals()
	assert.True(t, errors.Is(sig[len(sig)-1].Err, ferrors.ErrBadRequest))
}

// Bad request arriving while the worker is parked inside Emit (demand
// already exhausted by a prior finite Request) must still deliver
// ferrors.ErrBadRequest, not exit silently like an ordinary cancel.
func TestTransform_BadRequest_WhileParkedInEmit_DeliversOnError(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	up := testkit.NewUpstreamPublisher[int]()
	pub := transform.Transform[int, int](up, identity, 4, sched)

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)
	waitUntil(t, time.Second, func() bool { return up.Subscriber() != nil })

	sub.Subscription().Request(1)
	up.Subscriber().OnNext(1)
	waitUntil(t, time.Second, func() bool { return sub.Count("next") == 1 })

	// Demand is now exhausted (requested == produced == 1). The next
	// item's Emit call parks on consumerReady rather than the worker
	// parking on producerReady at the top of the loop.
	up.Subscriber().OnNext(2)
	time.Sleep(20 * time.Millisecond)

	sub.Subscription().Request(0)
	waitUntil(t, time.Second, func() bool { return sub.Count("error") == 1 })

	require.Equal(t, []int{1}, sub.Items())
	sig := sub.Signals()
	assert.True(t, errors.Is(sig[len(sig)-1].Err, ferrors.ErrBadRequest))
}

func TestTransform_EmitNil_ReturnsErrNilItem(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	up := testkit.NewUpstreamPublisher[*int]()
	result := make(chan error, 1)
	xform := func(v *int, e transform.Emitter[*int]) error {
		result <- e.Emit(nil)
		return nil
	}
	pub := transform.Transform[*int, *int](up, xform, 4, sched)

	sub := testkit.NewSubscriber[*int]()
	pub.Subscribe(sub)
	waitUntil(t, time.Second, func() bool { return up.Subscriber() != nil })
	sub.Subscription().Request(1)

	v := 1
	up.Subscriber().OnNext(&v)

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ferrors.ErrNilItem)
	case <-time.After(time.Second):
		t.Fatal("Emit(nil) never returned")
	}
}
