package create_test

import (
	"errors"
	"testing"
	"time"

	"github.com/corewell/fiberflow/create"
	"github.com/corewell/fiberflow/ferrors"
	"github.com/corewell/fiberflow/internal/testkit"
	"github.com/corewell/fiberflow/scheduler"
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

// S1: generator emits 1..5; downstream requests 3, then 2.
func TestCreate_BoundedDemand_S1(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	pub := create.Create[int](func(e create.Emitter[int]) error {
		for i := 1; i <= 5; i++ {
			if err := e.Emit(i); err != nil {
				return err
			}
		}
		return nil
	}, sched)

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)

	waitUntil(t, time.Second, func() bool { return sub.Subscription() != nil })
	sub.Subscription().Request(3)
	waitUntil(t, time.Second, func() bool { return sub.Count("next") == 3 })
	sub.Subscription().Request(2)
	waitUntil(t, time.Second, func() bool { return sub.Count("complete") == 1 })

	require.Equal(t, []int{1, 2, 3, 4, 5}, sub.Items())
	assert.Equal(t, 1, sub.Count("complete"))
	assert.Equal(t, 0, sub.Count("error"))
}

// S2: generator emits 1..inf; downstream requests 10 then cancels.
func TestCreate_EarlyCancel_S2(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	stopped := make(chan struct{})
	pub := create.Create[int](func(e create.Emitter[int]) error {
		for i := 1; ; i++ {
			if err := e.Emit(i); err != nil {
				close(stopped)
				return err
			}
		}
	}, sched)

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)

	waitUntil(t, time.Second, func() bool { return sub.Subscription() != nil })
	sub.Subscription().Request(10)
	waitUntil(t, time.Second, func() bool { return sub.Count("next") >= 10 })
	sub.Subscription().Cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("generator never observed STOP")
	}

	time.Sleep(20 * time.Millisecond) // let any stray terminal signal land
	assert.Equal(t, 10, sub.Count("next"))
	assert.Equal(t, 0, sub.Count("complete"))
	assert.Equal(t, 0, sub.Count("error"))
}

func TestCreate_CancelIsIdempotent(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	pub := create.Create[int](func(e create.Emitter[int]) error {
		for {
			if err := e.Emit(1); err != nil {
				return err
			}
		}
	}, sched)

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)
	waitUntil(t, time.Second, func() bool { return sub.Subscription() != nil })

	sub.Subscription().Cancel()
	sub.Subscription().Cancel()
	sub.Subscription().Cancel()
	time.Sleep(20 * time.Millisecond)
}

func TestCreate_EmitNil_ReturnsErrNilItem(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	result := make(chan error, 1)
	pub := create.Create[*int](func(e create.Emitter[*int]) error {
		result <- e.Emit(nil)
		return nil
	}, sched)

	sub := testkit.NewSubscriber[*int]()
	pub.Subscribe(sub)
	sub.Subscription().Request(1)

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ferrors.ErrNilItem)
	case <-time.After(time.Second):
		t.Fatal("Emit(nil) never returned")
	}
	assert.Equal(t, 0, sub.Count("next"))
}

func TestCreate_BadRequest_DeliversOnError(t *testing.T) {
	sched := scheduler.NewPool(1)
	defer sched.Dispose()

	pub := create.Create[int](func(e create.Emitter[int]) error {
		return e.Emit(1)
	}, sched)

	sub := testkit.NewSubscriber[int]()
	pub.Subscribe(sub)
	waitUntil(t, time.Second, func() bool { return sub.Subscription() != nil })

	sub.Subscription().Request(0)
	waitUntil(t, time.Second, func() bool { return sub.Count("error") == 1 })

	sig := sub.Signals()
	last := sig[len(sig)-1]
	assert.True(t, errors.Is(last.Err, ferrors.ErrBadRequest))
}
