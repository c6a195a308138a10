package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestPool_SpawnRunsFn(t *testing.T) {
	p := NewPool(2)
	defer p.Dispose()

	ran := make(chan struct{})
	p.Spawn(func(ctx context.Context) {
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("fn never ran")
	}
}

func TestPool_CancelStopsContext(t *testing.T) {
	p := NewPool(1)
	defer p.Dispose()

	cancelled := make(chan struct{})
	task := p.Spawn(func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	})
	task.Cancel()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
}

func TestPool_RespectsConcurrencyLimit(t *testing.T) {
	p := NewPool(1)
	defer p.Dispose()

	entered := make(chan struct{})
	release := make(chan struct{})
	p.Spawn(func(ctx context.Context) {
		close(entered)
		<-release
	})
	<-entered

	secondStarted := make(chan struct{})
	go func() {
		p.Spawn(func(ctx context.Context) {
			close(secondStarted)
		})
	}()

	select {
	case <-secondStarted:
		t.Fatal("second task started before pool slot freed")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-secondStarted:
	case <-time.After(time.Second):
		t.Fatal("second task never started after slot freed")
	}
}

func TestPool_DisposeIsIdempotent(t *testing.T) {
	p := NewPool(1)
	p.Dispose()
	p.Dispose()
}
